package gc

import (
	"context"
	"errors"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/refs"
	"github.com/roach88/ditgc/internal/store"
)

// Done is returned by DeletingIter.Next when every reference was handled.
var Done = errors.New("gc: no more references")

// RefDeleter removes a reference as long as it still points at its target.
type RefDeleter interface {
	DeleteRef(ctx context.Context, ref refs.Reference) error
}

// DeletingIter deletes a fixed list of references one at a time.
//
// Each call to Next performs exactly one deletion, so stopping early leaves
// the unvisited suffix in place. There is no rollback of deletions already
// made.
type DeletingIter struct {
	dir  RefDeleter
	refs []refs.Reference
	pos  int
}

// NewDeletingIter wraps list. The slice is copied.
func NewDeletingIter(dir RefDeleter, list []refs.Reference) *DeletingIter {
	return &DeletingIter{
		dir:  dir,
		refs: append([]refs.Reference(nil), list...),
	}
}

// Next deletes the next reference and returns it. A failed deletion returns
// the reference together with a DELETION_FAILED dag.Error; iteration may
// continue after it. Once the list is exhausted Next returns Done.
//
// A cancelled context stops Next before it touches the next reference.
func (it *DeletingIter) Next(ctx context.Context) (refs.Reference, error) {
	if it.pos >= len(it.refs) {
		return refs.Reference{}, Done
	}
	if err := ctx.Err(); err != nil {
		return refs.Reference{}, err
	}

	ref := it.refs[it.pos]
	it.pos++
	if err := it.dir.DeleteRef(ctx, ref); err != nil {
		return ref, dag.NewDeletionError(ref.Name, err)
	}
	return ref, nil
}

// Remaining returns how many references Next has not reached yet.
func (it *DeletingIter) Remaining() int {
	return len(it.refs) - it.pos
}

// DeleteAll drains the iterator. It continues past failed deletions and
// returns how many references were deleted along with every failure joined.
func (it *DeletingIter) DeleteAll(ctx context.Context) (int, error) {
	var (
		deleted int
		errs    []error
	)
	for {
		_, err := it.Next(ctx)
		switch {
		case errors.Is(err, Done):
			return deleted, errors.Join(errs...)
		case err == nil:
			deleted++
		case dag.IsDeletionError(err):
			errs = append(errs, err)
		default:
			// context cancellation
			errs = append(errs, err)
			return deleted, errors.Join(errs...)
		}
	}
}

// IsMissing reports whether a deletion failed only because the reference
// was already gone or another writer moved it. Such a miss is safe to ignore.
func IsMissing(err error) bool {
	return errors.Is(err, store.ErrRefNotFound) || errors.Is(err, store.ErrRefMoved)
}

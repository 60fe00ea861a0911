// Package reach reports which references point into the ancestry of a walk.
//
// ReferringRefs is a reverse index over a walk.Walker: references are watched
// by the id they peel to, and each one is emitted the moment the walk visits
// that id. References whose target the walk never reaches are never emitted;
// that is the normal outcome, not an error.
package reach

import (
	"context"
	"errors"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/refs"
	"github.com/roach88/ditgc/internal/walk"
)

// ErrStarted is returned by WatchRef once iteration has begun.
var ErrStarted = errors.New("reach: cannot watch references after iteration started")

// Peeler resolves a reference to the id of the node it points at.
type Peeler interface {
	PeelToNode(ctx context.Context, ref refs.Reference) (dag.ID, error)
}

// ReferringRefs yields watched references whose target is visited by a walk.
//
// It owns and drains its walker and, like it, is one-shot: it cannot be
// restarted. Matching is one-shot too: the watch entry for an id is removed
// when the id is visited, which is safe because the walker never revisits.
type ReferringRefs struct {
	walker *walk.Walker
	peeler Peeler

	watch   map[dag.ID][]refs.Reference
	watched int

	pending []refs.Reference
	current refs.Reference

	started bool
	done    bool
	err     error
}

// New creates a reverse index over w. The caller must not use w afterwards.
func New(w *walk.Walker, peeler Peeler) *ReferringRefs {
	return &ReferringRefs{
		walker: w,
		peeler: peeler,
		watch:  make(map[dag.ID][]refs.Reference),
	}
}

// WatchRef peels ref and registers it under its target id. References that
// share a target are kept in registration order. A peel failure is returned
// immediately and nothing is registered.
func (r *ReferringRefs) WatchRef(ctx context.Context, ref refs.Reference) error {
	if r.started {
		return ErrStarted
	}
	id, err := r.peeler.PeelToNode(ctx, ref)
	if err != nil {
		return err
	}
	r.watch[id] = append(r.watch[id], ref)
	r.watched++
	return nil
}

// WatchRefs registers every reference in order, stopping at the first error.
func (r *ReferringRefs) WatchRefs(ctx context.Context, list []refs.Reference) error {
	for _, ref := range list {
		if err := r.WatchRef(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

// Next advances to the next reachable reference. It returns false when the
// walk is exhausted or failed; check Err to tell them apart.
func (r *ReferringRefs) Next(ctx context.Context) bool {
	r.started = true

	for {
		if len(r.pending) > 0 {
			r.current = r.pending[0]
			r.pending = r.pending[1:]
			return true
		}
		if r.done {
			r.current = refs.Reference{}
			return false
		}
		// Nothing left to match; no need to walk further.
		if len(r.watch) == 0 {
			r.done = true
			continue
		}

		if !r.walker.Next(ctx) {
			r.done = true
			r.err = r.walker.Err()
			continue
		}

		id := r.walker.ID()
		matched, ok := r.watch[id]
		if !ok {
			continue
		}
		delete(r.watch, id)
		r.watched -= len(matched)
		r.pending = matched
	}
}

// Ref returns the current reference.
func (r *ReferringRefs) Ref() refs.Reference {
	return r.current
}

// Err returns the error that stopped iteration, if any.
func (r *ReferringRefs) Err() error {
	return r.err
}

// Watched returns how many registered references have not been emitted.
func (r *ReferringRefs) Watched() int {
	return r.watched
}

// Visited returns how many nodes the underlying walk has emitted.
func (r *ReferringRefs) Visited() int {
	return r.walker.Visited()
}

// Collect drains the iterator and returns the emitted references in order.
// On error no references are returned.
func (r *ReferringRefs) Collect(ctx context.Context) ([]refs.Reference, error) {
	var out []refs.Reference
	for r.Next(ctx) {
		out = append(out, r.Ref())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

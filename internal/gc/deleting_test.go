package gc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/refs"
	"github.com/roach88/ditgc/internal/store"
	"github.com/roach88/ditgc/internal/testutil"
)

// buildThreeRemovable writes A <- B <- C <- D with the head at D and a leaf
// at each of A, B and C, all of which are subsumed by the head.
func buildThreeRemovable(t *testing.T) *testutil.Graph {
	t.Helper()
	g := testutil.NewGraph(t)
	g.Node("A")
	g.Node("B", "A")
	g.Node("C", "B")
	g.Node("D", "C")
	g.LocalHead("A", "D")
	g.LocalLeaf("A", "A")
	g.LocalLeaf("A", "B")
	g.LocalLeaf("A", "C")
	return g
}

func TestDeleter_PartialConsumption(t *testing.T) {
	g := buildThreeRemovable(t)
	ctx := context.Background()

	it, err := newTestCollector(g.Store, issuesOf(g, "A"), DefaultConfig()).Deleter(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, it.Remaining())

	first, err := it.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, refs.LocalLeafName(g.ID("A"), g.ID("C")), first.Name)
	assert.Equal(t, 2, it.Remaining())

	// Stop here: only the first reference is gone.
	left := g.RefNames(refs.LocalIssuePrefix(g.ID("A")))
	assert.Len(t, left, 3)
	assert.NotContains(t, left, first.Name)
	assert.Contains(t, left, refs.LocalHeadName(g.ID("A")))
	assert.Contains(t, left, refs.LocalLeafName(g.ID("A"), g.ID("A")))
	assert.Contains(t, left, refs.LocalLeafName(g.ID("A"), g.ID("B")))

	// The directory is still consistent: a new run finds the rest.
	again := collectNames(t, g, DefaultConfig(), "A")
	assert.ElementsMatch(t, []string{
		refs.LocalLeafName(g.ID("A"), g.ID("A")),
		refs.LocalLeafName(g.ID("A"), g.ID("B")),
	}, again)
}

func TestDeleter_FullDrain(t *testing.T) {
	g := buildThreeRemovable(t)
	ctx := context.Background()

	it, err := newTestCollector(g.Store, issuesOf(g, "A"), DefaultConfig()).Deleter(ctx)
	require.NoError(t, err)

	var deleted []string
	for {
		ref, err := it.Next(ctx)
		if errors.Is(err, Done) {
			break
		}
		require.NoError(t, err)
		deleted = append(deleted, ref.Name)
	}
	assert.Len(t, deleted, 3)
	assert.Equal(t, 0, it.Remaining())
	assert.Equal(t, []string{refs.LocalHeadName(g.ID("A"))}, g.RefNames(refs.LocalIssuePrefix(g.ID("A"))))

	_, err = it.Next(ctx)
	assert.ErrorIs(t, err, Done, "Done is sticky")

	assert.Empty(t, collectNames(t, g, DefaultConfig(), "A"), "a second run is a no-op")
}

func TestDeletingIter_MovedReference(t *testing.T) {
	g := buildThreeRemovable(t)
	ctx := context.Background()

	la := refs.MustParse(refs.LocalLeafName(g.ID("A"), g.ID("A")), g.ID("A"))
	lb := refs.MustParse(refs.LocalLeafName(g.ID("A"), g.ID("B")), g.ID("B"))

	// Another writer moves la after the set was computed.
	require.NoError(t, g.Store.SetRef(ctx, la.Name, g.ID("D")))

	it := NewDeletingIter(g.Store, []refs.Reference{la, lb})

	ref, err := it.Next(ctx)
	require.Error(t, err)
	assert.Equal(t, la.Name, ref.Name)
	assert.True(t, dag.IsDeletionError(err))
	assert.True(t, IsMissing(err))
	assert.ErrorIs(t, err, store.ErrRefMoved)
	assert.Contains(t, err.Error(), la.Name)

	ref, err = it.Next(ctx)
	require.NoError(t, err, "iteration continues after a failure")
	assert.Equal(t, lb.Name, ref.Name)

	moved, err := g.Store.ReadRef(ctx, la.Name)
	require.NoError(t, err)
	assert.Equal(t, g.ID("D"), moved.Target, "a moved reference is left alone")
}

func TestDeletingIter_VanishedReference(t *testing.T) {
	g := buildThreeRemovable(t)
	ctx := context.Background()

	la := refs.MustParse(refs.LocalLeafName(g.ID("A"), g.ID("A")), g.ID("A"))
	require.NoError(t, g.Store.DeleteRef(ctx, la))

	_, err := NewDeletingIter(g.Store, []refs.Reference{la}).Next(ctx)
	assert.True(t, IsMissing(err))
	assert.ErrorIs(t, err, store.ErrRefNotFound)
}

type failingDeleter struct {
	err   error
	calls int
}

func (f *failingDeleter) DeleteRef(ctx context.Context, ref refs.Reference) error {
	f.calls++
	return f.err
}

func TestDeletingIter_WriteFailureIsNotMissing(t *testing.T) {
	d := &failingDeleter{err: errors.New("disk full")}
	ref := refs.MustParse(refs.LocalHeadName(dag.MustMessageID("a", nil)), dag.MustMessageID("a", nil))

	_, err := NewDeletingIter(d, []refs.Reference{ref}).Next(context.Background())
	require.Error(t, err)
	assert.True(t, dag.IsDeletionError(err))
	assert.False(t, IsMissing(err))
}

func TestDeletingIter_DeleteAllContinuesPastFailures(t *testing.T) {
	g := buildThreeRemovable(t)
	ctx := context.Background()

	list, err := newTestCollector(g.Store, issuesOf(g, "A"), DefaultConfig()).Collect(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	// The middle one vanishes before deletion.
	require.NoError(t, g.Store.DeleteRef(ctx, list[1]))

	n, err := NewDeletingIter(g.Store, list).DeleteAll(ctx)
	assert.Equal(t, 2, n)
	require.Error(t, err)
	assert.True(t, IsMissing(err))
	assert.True(t, dag.IsDeletionError(err))
	assert.Equal(t, []string{refs.LocalHeadName(g.ID("A"))}, g.RefNames(refs.LocalIssuePrefix(g.ID("A"))))
}

func TestDeletingIter_CancelledContext(t *testing.T) {
	d := &failingDeleter{}
	ref := refs.MustParse(refs.LocalHeadName(dag.MustMessageID("a", nil)), dag.MustMessageID("a", nil))
	it := NewDeletingIter(d, []refs.Reference{ref})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := it.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, it.Remaining())
	assert.Equal(t, 0, d.calls)

	n, err := it.DeleteAll(ctx)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeletingIter_Empty(t *testing.T) {
	it := NewDeletingIter(&failingDeleter{}, nil)
	_, err := it.Next(context.Background())
	assert.ErrorIs(t, err, Done)

	n, err := it.DeleteAll(context.Background())
	assert.Equal(t, 0, n)
	assert.NoError(t, err)
}

package walk

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/testutil"
)

// buildDiamond writes:
//
//	A <- B <- C <- M
//	 \            /
//	  <--- D <---
func buildDiamond(t *testing.T) *testutil.Graph {
	t.Helper()
	g := testutil.NewGraph(t)
	g.Node("A")
	g.Node("B", "A")
	g.Node("C", "B")
	g.Node("D", "A")
	g.Node("M", "C", "D")
	return g
}

func walkLabels(t *testing.T, g *testutil.Graph, opts Options, seeds ...string) []string {
	t.Helper()
	ctx := context.Background()

	w := New(g.Store, opts)
	for _, s := range seeds {
		require.NoError(t, w.Push(ctx, g.ID(s)))
	}
	ids, err := w.Collect(ctx)
	require.NoError(t, err)
	return g.Labels(ids)
}

func TestWalker_TopologicalOrder(t *testing.T) {
	g := buildDiamond(t)

	got := walkLabels(t, g, Options{}, "M")
	assert.Equal(t, []string{"M", "D", "C", "B", "A"}, got)
}

func TestWalker_FirstParent(t *testing.T) {
	g := buildDiamond(t)

	got := walkLabels(t, g, Options{FirstParent: true}, "M")
	assert.Equal(t, []string{"M", "C", "B", "A"}, got)
}

func TestWalker_MultipleSeedsUnion(t *testing.T) {
	g := buildDiamond(t)

	got := walkLabels(t, g, Options{}, "C", "D")
	assert.Equal(t, []string{"D", "C", "B", "A"}, got)
}

func TestWalker_EmitsEachNodeOnce(t *testing.T) {
	g := buildDiamond(t)

	// B is both a seed and an ancestor of C; A is reachable along two paths.
	got := walkLabels(t, g, Options{}, "B", "M", "B")
	assert.Equal(t, []string{"M", "D", "C", "B", "A"}, got)
}

func TestWalker_SeedPushedAfterDescendant(t *testing.T) {
	g := buildDiamond(t)

	// Pushing an ancestor first must not emit it before its descendant.
	got := walkLabels(t, g, Options{}, "A", "C")
	assert.Equal(t, []string{"C", "B", "A"}, got)
}

func TestWalker_NoSeeds(t *testing.T) {
	g := buildDiamond(t)
	w := New(g.Store, Options{})

	assert.False(t, w.Next(context.Background()))
	assert.NoError(t, w.Err())
	assert.Equal(t, 0, w.Visited())
}

func TestWalker_NotRestartable(t *testing.T) {
	g := buildDiamond(t)
	ctx := context.Background()

	w := New(g.Store, Options{})
	require.NoError(t, w.Push(ctx, g.ID("B")))

	require.True(t, w.Next(ctx))
	assert.Equal(t, g.ID("B"), w.ID())
	assert.Equal(t, "B", w.Node().Message)

	assert.ErrorIs(t, w.Push(ctx, g.ID("M")), ErrStarted)

	require.True(t, w.Next(ctx))
	assert.False(t, w.Next(ctx))
	assert.False(t, w.Next(ctx), "exhausted walker stays exhausted")
	assert.Equal(t, 2, w.Visited())
}

func TestWalker_UnknownSeed(t *testing.T) {
	g := buildDiamond(t)
	w := New(g.Store, Options{})

	err := w.Push(context.Background(), dag.MustMessageID("ghost", nil))
	require.Error(t, err)
	assert.True(t, dag.IsLookupError(err))
}

// failingResolver fails to resolve one id.
type failingResolver struct {
	Resolver
	bad dag.ID
}

func (r failingResolver) ResolveNode(ctx context.Context, id dag.ID) (dag.Node, error) {
	if id == r.bad {
		return dag.Node{}, dag.NewLookupError(id, sql.ErrNoRows)
	}
	return r.Resolver.ResolveNode(ctx, id)
}

func TestWalker_MissingAncestor(t *testing.T) {
	g := buildDiamond(t)
	ctx := context.Background()

	w := New(failingResolver{Resolver: g.Store, bad: g.ID("B")}, Options{})
	require.NoError(t, w.Push(ctx, g.ID("C")))

	assert.False(t, w.Next(ctx))
	err := w.Err()
	require.Error(t, err)
	assert.True(t, dag.IsTraversalError(err))
	assert.True(t, dag.IsLookupError(err))

	assert.False(t, w.Next(ctx), "a failed walker does not resume")
}

func TestWalker_CollectSurfacesError(t *testing.T) {
	g := buildDiamond(t)
	ctx := context.Background()

	w := New(failingResolver{Resolver: g.Store, bad: g.ID("A")}, Options{})
	require.NoError(t, w.Push(ctx, g.ID("D")))

	ids, err := w.Collect(ctx)
	assert.Nil(t, ids)
	assert.True(t, dag.IsTraversalError(err))
}

func TestWalker_ContextCanceled(t *testing.T) {
	g := buildDiamond(t)
	ctx, cancel := context.WithCancel(context.Background())

	w := New(g.Store, Options{})
	require.NoError(t, w.Push(ctx, g.ID("M")))
	require.True(t, w.Next(ctx))

	cancel()
	assert.False(t, w.Next(ctx))
	assert.True(t, errors.Is(w.Err(), context.Canceled))
}

func TestWalker_Pending(t *testing.T) {
	g := buildDiamond(t)
	ctx := context.Background()

	w := New(g.Store, Options{})
	require.NoError(t, w.Push(ctx, g.ID("M")))
	assert.Equal(t, 1, w.Pending())

	require.True(t, w.Next(ctx))
	assert.Equal(t, 2, w.Pending(), "C and D are discovered when M is emitted")
}

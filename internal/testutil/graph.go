// Package testutil provides helpers for building message graphs in tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/refs"
	"github.com/roach88/ditgc/internal/store"
)

// Graph builds a message DAG in a fresh store using short labels.
//
// Labels are test-local names for nodes ("A", "B", ...). The message of each
// node is its label, so ids are stable across runs.
//
//	g := testutil.NewGraph(t)
//	g.Node("A")
//	g.Node("B", "A")
//	head := g.LocalHead("A", "B") // issue A, head at B
type Graph struct {
	t      testing.TB
	Store  *store.Store
	ids    map[string]dag.ID
	labels map[dag.ID]string
}

// NewGraph opens a store in a temp directory. The store is closed on cleanup.
func NewGraph(t testing.TB) *Graph {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "graph.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return &Graph{
		t:      t,
		Store:  st,
		ids:    make(map[string]dag.ID),
		labels: make(map[dag.ID]string),
	}
}

// Node writes a node labeled label with the labeled parents, in order.
func (g *Graph) Node(label string, parents ...string) dag.ID {
	g.t.Helper()
	if _, ok := g.ids[label]; ok {
		g.t.Fatalf("node %q defined twice", label)
	}

	parentIDs := make([]dag.ID, len(parents))
	for i, p := range parents {
		parentIDs[i] = g.ID(p)
	}

	node, err := g.Store.WriteNode(context.Background(), label, parentIDs)
	if err != nil {
		g.t.Fatalf("WriteNode(%q) failed: %v", label, err)
	}
	g.ids[label] = node.ID
	g.labels[node.ID] = label
	return node.ID
}

// ID returns the id of a labeled node.
func (g *Graph) ID(label string) dag.ID {
	g.t.Helper()
	id, ok := g.ids[label]
	if !ok {
		g.t.Fatalf("unknown node %q", label)
	}
	return id
}

// Label returns the label of id, or its short hex form for unknown ids.
func (g *Graph) Label(id dag.ID) string {
	if l, ok := g.labels[id]; ok {
		return l
	}
	return id.Short()
}

// Labels maps ids to labels.
func (g *Graph) Labels(ids []dag.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.Label(id)
	}
	return out
}

// LocalHead points issue's local head at target.
func (g *Graph) LocalHead(issue, target string) refs.Reference {
	g.t.Helper()
	return g.setRef(refs.LocalHeadName(g.ID(issue)), g.ID(target))
}

// LocalLeaf creates a local leaf of issue at target.
func (g *Graph) LocalLeaf(issue, target string) refs.Reference {
	g.t.Helper()
	return g.setRef(refs.LocalLeafName(g.ID(issue), g.ID(target)), g.ID(target))
}

// RemoteHead points remote's head of issue at target.
func (g *Graph) RemoteHead(remote, issue, target string) refs.Reference {
	g.t.Helper()
	return g.setRef(refs.RemoteHeadName(remote, g.ID(issue)), g.ID(target))
}

// RemoteLeaf creates a leaf of issue mirrored from remote at target.
func (g *Graph) RemoteLeaf(remote, issue, target string) refs.Reference {
	g.t.Helper()
	return g.setRef(refs.RemoteLeafName(remote, g.ID(issue), g.ID(target)), g.ID(target))
}

// Dangling creates a local leaf of issue pointing at an id that is not stored.
func (g *Graph) Dangling(issue, label string) refs.Reference {
	g.t.Helper()
	ghost := dag.MustMessageID(fmt.Sprintf("dangling:%s", label), nil)
	g.labels[ghost] = label
	return g.setRef(refs.LocalLeafName(g.ID(issue), ghost), ghost)
}

// RefNames lists the names of every stored reference with prefix.
func (g *Graph) RefNames(prefix string) []string {
	g.t.Helper()
	list, err := g.Store.ListRefs(context.Background(), prefix)
	if err != nil {
		g.t.Fatalf("ListRefs(%q) failed: %v", prefix, err)
	}
	return refs.Names(list)
}

func (g *Graph) setRef(name string, target dag.ID) refs.Reference {
	g.t.Helper()
	ctx := context.Background()
	if err := g.Store.SetRef(ctx, name, target); err != nil {
		g.t.Fatalf("SetRef(%q) failed: %v", name, err)
	}
	ref, err := g.Store.ReadRef(ctx, name)
	if err != nil {
		g.t.Fatalf("ReadRef(%q) failed: %v", name, err)
	}
	return ref
}

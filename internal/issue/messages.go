package issue

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/ditgc/internal/dag"
	"github.com/roach88/ditgc/internal/refs"
	"github.com/roach88/ditgc/internal/walk"
)

// ErrNoInitial means a first-parent chain ended without reaching a message
// that has a head reference.
var ErrNoInitial = errors.New("no initial message found")

// Store is what message lookups need: nodes and references.
type Store interface {
	walk.Resolver
	Directory
}

// Writer creates messages and the references that track them.
type Writer interface {
	WriteNode(ctx context.Context, message string, parents []dag.ID) (dag.Node, error)
	SetRef(ctx context.Context, name string, target dag.ID) error
}

// FindInitial follows first parents from `from` to the initial message of
// its thread: the first node for which a head reference exists.
func FindInitial(ctx context.Context, st Store, from dag.ID) (dag.Node, error) {
	w := walk.New(st, walk.Options{FirstParent: true})
	if err := w.Push(ctx, from); err != nil {
		return dag.Node{}, err
	}

	for w.Next(ctx) {
		node := w.Node()
		heads, err := New(node.ID).Heads(ctx, st)
		if err != nil {
			return dag.Node{}, err
		}
		if len(heads) > 0 {
			return node, nil
		}
	}
	if err := w.Err(); err != nil {
		return dag.Node{}, err
	}
	return dag.Node{}, dag.NewLookupError(from, ErrNoInitial)
}

// Messages lists the thread ending at `from`, newest first, by following
// first parents. The walk stops after the initial message of the thread, so
// messages of an issue this thread replied into are not included.
func Messages(ctx context.Context, st Store, from dag.ID) ([]dag.Node, error) {
	w := walk.New(st, walk.Options{FirstParent: true})
	if err := w.Push(ctx, from); err != nil {
		return nil, err
	}

	var out []dag.Node
	for w.Next(ctx) {
		node := w.Node()
		out = append(out, node)

		heads, err := New(node.ID).Heads(ctx, st)
		if err != nil {
			return nil, err
		}
		if len(heads) > 0 {
			return out, nil
		}
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMessage writes a message and a reference tracking it. Without an
// issue the message starts a new issue and gets a local head; otherwise it
// becomes a local leaf of iss.
func CreateMessage(ctx context.Context, w Writer, iss *Issue, message string, parents []dag.ID) (dag.Node, refs.Reference, error) {
	node, err := w.WriteNode(ctx, message, parents)
	if err != nil {
		return dag.Node{}, refs.Reference{}, fmt.Errorf("create message: %w", err)
	}

	var name string
	if iss == nil {
		name = refs.LocalHeadName(node.ID)
	} else {
		name = refs.LocalLeafName(iss.ID, node.ID)
	}
	if err := w.SetRef(ctx, name, node.ID); err != nil {
		return dag.Node{}, refs.Reference{}, fmt.Errorf("create message: %w", err)
	}
	return node, refs.MustParse(name, node.ID), nil
}

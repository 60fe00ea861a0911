// Package walk enumerates the ancestry of a set of seed nodes.
//
// A Walker is a lazy, finite, one-shot sequence in the style of sql.Rows:
//
//	w := walk.New(st, walk.Options{})
//	if err := w.Push(ctx, head); err != nil { ... }
//	for w.Next(ctx) {
//	    id := w.ID()
//	}
//	if err := w.Err(); err != nil { ... }
//
// Every node reachable from the seeds through parent links (seeds included)
// is emitted exactly once, in topological order: no node is emitted while a
// pending node that could reach it is still unprocessed.
package walk

import (
	"context"
	"errors"

	"github.com/roach88/ditgc/internal/dag"
)

// ErrStarted is returned by Push once consumption has begun.
var ErrStarted = errors.New("walk: cannot push seeds after iteration started")

// Resolver looks up nodes by id.
type Resolver interface {
	ResolveNode(ctx context.Context, id dag.ID) (dag.Node, error)
}

// Options configures a Walker.
type Options struct {
	// FirstParent follows only the first parent of every node.
	FirstParent bool
}

// Walker is a lazy ancestry traversal. It is not safe for concurrent use and
// cannot be restarted once drained.
type Walker struct {
	src  Resolver
	opts Options

	queue *nodeQueue
	seen  map[dag.ID]struct{} // queued or emitted

	started bool
	done    bool
	current dag.Node
	visited int
	err     error
}

// New creates a Walker with no seeds.
func New(src Resolver, opts Options) *Walker {
	return &Walker{
		src:   src,
		opts:  opts,
		queue: newNodeQueue(),
		seen:  make(map[dag.ID]struct{}),
	}
}

// Push adds seeds. Seeds are resolved immediately; an unresolvable seed
// returns a LOOKUP_FAILED dag.Error and leaves the walker usable.
// Pushing an id that is already pending is a no-op.
func (w *Walker) Push(ctx context.Context, ids ...dag.ID) error {
	if w.started {
		return ErrStarted
	}
	for _, id := range ids {
		if _, ok := w.seen[id]; ok {
			continue
		}
		node, err := w.src.ResolveNode(ctx, id)
		if err != nil {
			return err
		}
		w.seen[id] = struct{}{}
		w.queue.push(node)
	}
	return nil
}

// Next advances to the next node. It returns false when the ancestry is
// exhausted or an error occurred; check Err to tell them apart.
func (w *Walker) Next(ctx context.Context) bool {
	if w.done {
		return false
	}
	w.started = true

	if err := ctx.Err(); err != nil {
		return w.fail(err)
	}

	node, ok := w.queue.pop()
	if !ok {
		w.done = true
		w.current = dag.Node{}
		return false
	}

	parents := node.Parents
	if w.opts.FirstParent && len(parents) > 1 {
		parents = parents[:1]
	}
	for _, p := range parents {
		if _, ok := w.seen[p]; ok {
			continue
		}
		parent, err := w.src.ResolveNode(ctx, p)
		if err != nil {
			return w.fail(dag.NewTraversalError(err))
		}
		w.seen[p] = struct{}{}
		w.queue.push(parent)
	}

	w.current = node
	w.visited++
	return true
}

func (w *Walker) fail(err error) bool {
	w.err = err
	w.done = true
	w.current = dag.Node{}
	return false
}

// ID returns the id of the current node.
func (w *Walker) ID() dag.ID {
	return w.current.ID
}

// Node returns the current node.
func (w *Walker) Node() dag.Node {
	return w.current
}

// Err returns the error that stopped iteration, if any.
func (w *Walker) Err() error {
	return w.err
}

// Visited returns how many nodes have been emitted so far.
func (w *Walker) Visited() int {
	return w.visited
}

// Pending returns how many discovered nodes have not been emitted yet.
func (w *Walker) Pending() int {
	return w.queue.len()
}

// Collect drains the walker and returns the emitted ids in order.
func (w *Walker) Collect(ctx context.Context) ([]dag.ID, error) {
	var ids []dag.ID
	for w.Next(ctx) {
		ids = append(ids, w.ID())
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

package walk

import (
	"container/heap"

	"github.com/roach88/ditgc/internal/dag"
)

// nodeQueue is a max-heap of pending nodes ordered by Seq.
//
// Because a child's Seq always exceeds its parents', popping the highest Seq
// first never emits a node while a pending descendant could still reach it.
// Ties cannot occur: Seq is unique per store.
type nodeQueue struct {
	nodes []dag.Node
}

func newNodeQueue() *nodeQueue {
	return &nodeQueue{nodes: make([]dag.Node, 0, 16)}
}

// push adds a node to the queue.
func (q *nodeQueue) push(n dag.Node) {
	heap.Push((*nodeHeap)(q), n)
}

// pop removes and returns the node with the highest Seq.
// Returns (dag.Node{}, false) if the queue is empty.
func (q *nodeQueue) pop() (dag.Node, bool) {
	if len(q.nodes) == 0 {
		return dag.Node{}, false
	}
	return heap.Pop((*nodeHeap)(q)).(dag.Node), true
}

// len returns the number of pending nodes.
func (q *nodeQueue) len() int {
	return len(q.nodes)
}

// nodeHeap adapts nodeQueue to container/heap.
type nodeHeap nodeQueue

func (h *nodeHeap) Len() int           { return len(h.nodes) }
func (h *nodeHeap) Less(i, j int) bool { return h.nodes[i].Seq > h.nodes[j].Seq }
func (h *nodeHeap) Swap(i, j int)      { h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i] }

func (h *nodeHeap) Push(x any) {
	h.nodes = append(h.nodes, x.(dag.Node))
}

func (h *nodeHeap) Pop() any {
	old := h.nodes
	n := old[len(old)-1]
	old[len(old)-1] = dag.Node{}
	h.nodes = old[:len(old)-1]
	return n
}

// Package gc computes which issue references are redundant and deletes them.
//
// A local leaf is redundant when its target is an ancestor of another retained
// reference of the same issue: the local head, or the parents of another leaf.
// A local head is never redundant by default; with the BackedByRemoteHead
// policy it is redundant once some remote head of the issue contains it.
//
// The two questions are answered by independent traversals. Folding them
// into one would let a reply leaf make its own head look redundant.
//
//	c := gc.NewCollector(st, issues, gc.Config{CollectHeads: gc.BackedByRemoteHead})
//	removable, err := c.Collect(ctx)
//
// Collection only deletes references. Nodes are never removed.
package gc

// Package dag defines the immutable message graph that issue threads are
// stored in.
//
// A Node is identified by a content-derived ID: the SHA-256 of the canonical
// JSON encoding of its message and ordered parent ids, with domain separation.
// Nodes never change once written; only references (see package refs) move.
//
// This package imports nothing internal. Every other package builds on it.
//
// Key constraints:
//   - IDs are fixed width (32 bytes) and compare with ==
//   - Parent order is significant; Parents[0] is the first parent
//   - Seq is a store-assigned logical clock, never a wall-clock timestamp,
//     and a child's Seq is always greater than each of its parents'
package dag

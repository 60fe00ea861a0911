// Package store provides SQLite-backed storage for the message DAG and the
// reference directory.
//
// The store holds:
//   - Nodes: immutable, content-addressed messages (append-only)
//   - Node parents: ordered parent links, one row per (node, position)
//   - Refs: mutable names pointing at node ids
//
// # Critical Patterns
//
// Content Addressing
//   - Node ids are computed via dag.MessageID; writing an existing node is a no-op
//   - Parents must exist before a child is written (foreign keys), so every
//     node's seq is greater than its parents' seq
//
// Deterministic Query Results
//   - Reference listings use ORDER BY name COLLATE BINARY
//   - Parent lists use ORDER BY position
//
// Single Writer
//   - One connection; the reference namespace is assumed to be owned by
//     a single writer for the duration of a GC run
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

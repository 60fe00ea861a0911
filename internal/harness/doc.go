// Package harness runs garbage collection scenarios against a fresh store.
//
// A scenario describes a message graph by labels, the references pointing
// into it, the collection config, and what the run must produce. Each run
// uses its own in-memory database and a fixed run id, so the outcome can be
// compared against a golden file.
//
// # Scenario Format
//
//	name: leaf_subsumed_by_head
//	description: "A leaf at the head's target is redundant"
//	config:
//	  consider_remote_refs: false
//	  collect_heads: never
//	nodes:
//	  - label: A
//	  - label: B
//	    parents: [A]
//	refs:
//	  - kind: local-head
//	    issue: A
//	    target: B
//	  - kind: local-leaf
//	    issue: A
//	    target: A
//	delete: true
//	assertions:
//	  - type: removable
//	    refs: [A/leaves/A]
//	  - type: remaining
//	    refs: [A/head]
//
// Instead of config a scenario may carry an inline CUE policy under policy.
//
// References are written with labels in place of ids:
//
//	A/head              local head of issue A
//	A/leaves/B          local leaf of issue A at B
//	origin:A/head       head of issue A mirrored from origin
//	origin:A/leaves/B   leaf of issue A at B mirrored from origin
//
// # Assertion Types
//
//   - removable: the removable set, in order
//   - removable_contains: each listed reference is removable
//   - removable_count: the size of the removable set
//   - remaining: the references left in the directory, in any order
//   - error: collection failed with the dag error code in code
package harness

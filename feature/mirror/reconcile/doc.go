// Package reconcile merges fetched snapshots into the local mirror tree.
//
// A pass runs in two phases. Plan validates the snapshot and performs every
// transport operation it will need (lazy attachment fetches for new or
// tag-changed cards). Commit then mutates the tree with no error paths, so
// any failure leaves the previous tree fully intact.
//
// # Matching Rules
//
// Nodes are matched by id at every level. Three outcomes per match:
//   - tag unchanged: the node instance is kept untouched, children are
//     still re-walked because they can change independently
//   - tag changed: the node's own attributes are patched in place,
//     preserving the instance and its unchanged children
//   - absent from the snapshot, or deletion timestamp set: the node and
//     all its descendants are dropped
//
// Principals are interned into the tree's shared pool as a side effect;
// the pool is merged into, never replaced.
package reconcile

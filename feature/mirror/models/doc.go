// Package models defines the typed mirror of the remote board hierarchy.
//
// The tree has four levels: Tree → Board → Stack → Card, with Label,
// Attachment, and User hanging off the nodes. Every node carries a stable
// numeric id and an opaque change tag (the Deck ETag); tags are only ever
// compared for equality.
//
// Principals are interned: the Tree owns a UserPool and every reference to
// the same uid, whether from a member list, an ACL entry, an assignment, or
// an attachment owner, resolves to one shared *User instance.
//
// Nodes are mutated exclusively by feature/mirror/reconcile. All other
// packages must treat a *Tree and everything reachable from it as read-only.
package models

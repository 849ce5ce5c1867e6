// Package mirror wires the synchronization engine together: the poll loop
// that fetches snapshots on a cooldown, the reconciler that merges them
// into the local tree, and the scheduler that fires due-event callbacks.
//
// The concurrency model is two long-lived workers. The poll loop is the
// tree's only writer; the scheduler worker never touches the tree and is
// driven purely through the derived event projection. The two are
// synchronized through two independent signals: the refresh channel that
// shortens the cooldown wait, and the scheduler's wake channel that
// interrupts an armed wait when the target deadline may have moved.
//
// The HTTP surface exposes the tree, the armed deadline, health counters,
// and a refresh trigger under /mirror.
package mirror

// Package schedule implements the due-event scheduler.
//
// The scheduler owns the "next due card" value derived from the mirror
// tree. It moves through three states: idle when no card carries a future
// due date, armed while waiting out a specific deadline, and firing when
// the deadline is reached, after which it immediately re-evaluates to pick
// the next target.
//
// It never holds a reference to the tree. The poller hands it a flat
// []Event projection after every reconciliation pass that changed
// something; Update interrupts the running wait only when the computed
// target actually differs, so a re-confirmed unchanged deadline never
// causes a duplicate firing.
package schedule

// Package notify publishes fired due events to a Redis pub/sub channel.
//
// It is an optional outbound integration: when a Redis address is
// configured, every due-event firing is forwarded as a JSON payload so
// other processes (bots, dashboards) can react to deadlines without
// talking to this service directly. Publishing is fire-and-forget; Redis
// being down never affects the mirror or the scheduler.
package notify

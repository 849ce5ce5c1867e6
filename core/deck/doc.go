// Package deck implements the transport layer for the Nextcloud Deck REST API.
//
// It exposes a small Client interface with two operations: fetching a full
// Snapshot of the board hierarchy and fetching the attachment list of a
// single card. The wire DTOs in this package mirror the Deck API v1.0 JSON
// shapes; mapping onto the mirror's domain model happens in
// feature/mirror/reconcile.
//
// # Error Taxonomy
//
// Failed requests are reported as *RequestError with one of three reasons:
//   - ReasonTimeout: the request exceeded the configured timeout
//   - ReasonConnection: the server could not be reached
//   - ReasonResponse: non-2xx status, non-JSON body, or a decode failure
//
// ErrMalformedSnapshot is returned by Snapshot.Validate when a fetched
// snapshot is structurally incomplete.
//
// # Usage
//
//	client := deck.NewClient(cfg.Deck)
//	snap, err := client.Snapshot(ctx)
package deck

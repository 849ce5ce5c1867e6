package deck

import (
	"errors"
	"fmt"
)

// ErrMalformedSnapshot indicates a fetched snapshot is missing required
// structural fields and cannot be reconciled.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Reason classifies a failed API request.
type Reason int

const (
	// ReasonTimeout indicates the request exceeded the configured timeout.
	ReasonTimeout Reason = iota + 1
	// ReasonConnection indicates the server could not be reached.
	ReasonConnection
	// ReasonResponse indicates the server answered with a non-2xx status,
	// a non-JSON body, or a body that failed to decode.
	ReasonResponse
)

// String returns a human readable name for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonTimeout:
		return "timeout"
	case ReasonConnection:
		return "connection"
	case ReasonResponse:
		return "response"
	default:
		return "unknown"
	}
}

// RequestError describes a failed request against the Deck API.
type RequestError struct {
	// Reason is the failure class.
	Reason Reason
	// Status is the HTTP status code, 0 when no response was received.
	Status int
	// Body holds the response body or transport error text, truncated.
	Body string
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("deck api request failed (%s, status %d): %s", e.Reason, e.Status, e.Body)
	}
	return fmt.Sprintf("deck api request failed (%s): %s", e.Reason, e.Body)
}

package api

import (
	"errors"
	"fmt"
)

// ErrConnection marks failures to reach the runtime endpoint at all.
// Errors wrapping it are recoverable: the dashboard surfaces them as a
// status line and the operation may be retried.
var ErrConnection = errors.New("model runtime unreachable")

// APIError is a non-2xx response carrying the runtime's message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: %s (status %d)", e.Message, e.Status)
}

// StreamError is a malformed frame in a pull progress stream.
type StreamError struct {
	Line string
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("bad progress frame %q: %v", e.Line, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

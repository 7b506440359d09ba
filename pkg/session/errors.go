package session

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is reported when no authentication token is
// available. No request is made.
var ErrMissingCredential = errors.New("authentication required")

// StatusError is reported when the assistant answers with a non-2xx status.
// The response body is released unread.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("assistant returned status %d", e.Code)
	}
	return "assistant returned status " + e.Status
}

// StreamError is an error the assistant reported inside the stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return e.Message
}

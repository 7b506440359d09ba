// Package jobs talks to the assistant's long-running job endpoint: a job is
// submitted, polled until it reaches a terminal status, then its result is
// fetched.
package jobs

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle status of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the job can no longer change status.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Job is a long-running job as reported by the server.
type Job struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ErrJobCancelled is returned by Await when the job was cancelled
// server-side.
var ErrJobCancelled = errors.New("job cancelled")

// FailedError is returned by Await when the job failed.
type FailedError struct {
	ID      string
	Message string
}

func (e *FailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("job %s failed", e.ID)
	}
	return fmt.Sprintf("job %s failed: %s", e.ID, e.Message)
}

// StatusError is returned when the jobs endpoint answers with an
// unexpected HTTP status.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Body)
}

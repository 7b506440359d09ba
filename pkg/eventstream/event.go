package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeSessionFinished is emitted once a chat session reaches a
	// terminal state.
	EventTypeSessionFinished = "jobpilot.session.finished"
)

// SessionFinishedEvent is a transport-neutral event payload for a finished
// chat session.
type SessionFinishedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Session       SessionMeta `json:"session"`
}

// SessionMeta captures the lifecycle of one chat session.
type SessionMeta struct {
	Generation     uint64    `json:"generation"`
	RequestID      string    `json:"request_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	State          string    `json:"state"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	DurationMs     int64     `json:"duration_ms"`
	TextBytes      int       `json:"text_bytes"`
	ToolCalls      []string  `json:"tool_calls,omitempty"`
}

// NewSessionFinishedEvent wraps meta in a v1 envelope with a fresh event id.
func NewSessionFinishedEvent(meta SessionMeta) *SessionFinishedEvent {
	if meta.DurationMs == 0 && !meta.FinishedAt.IsZero() {
		meta.DurationMs = meta.FinishedAt.Sub(meta.StartedAt).Milliseconds()
	}

	return &SessionFinishedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeSessionFinished,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Session:       meta,
	}
}

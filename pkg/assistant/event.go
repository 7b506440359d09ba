// Package assistant interprets frames of the assistant stream. It resolves
// each frame's discriminant, decodes its JSON payload into an Event,
// normalizes tool results and forwards the outcome to a Handler.
package assistant

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/papercomputeco/jobpilot/pkg/sse"
)

// Kind is the resolved discriminant of a frame.
type Kind string

const (
	KindThinking       Kind = "thinking"
	KindText           Kind = "text"
	KindAction         Kind = "action"
	KindConversationID Kind = "conversationId"
	KindConnected      Kind = "connected"
	KindError          Kind = "error"
	KindDone           Kind = "done"
	KindHeartbeat      Kind = "heartbeat"

	// KindUnknown is any discriminant the client does not understand,
	// including a frame with no discriminant at all.
	KindUnknown Kind = ""
)

// knownKinds are the discriminants with a handler.
var knownKinds = map[Kind]struct{}{
	KindThinking:       {},
	KindText:           {},
	KindAction:         {},
	KindConversationID: {},
	KindConnected:      {},
	KindError:          {},
	KindDone:           {},
	KindHeartbeat:      {},
}

// ErrMalformedPayload is returned by Decode when a frame payload is not a
// JSON object.
var ErrMalformedPayload = errors.New("malformed frame payload")

// Event is the decoded form of a single frame. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind Kind

	// Discriminant is the raw value Kind was resolved from. It is kept for
	// logging unknown kinds.
	Discriminant string

	// Content is the text delta of a KindText event.
	Content string

	// ToolName and ToolPayload describe a KindAction event. ToolPayload is the
	// raw "payload" object of the frame, before normalization.
	ToolName    string
	ToolPayload map[string]any

	// ConversationID is set for KindConversationID and KindConnected.
	ConversationID string

	// Message is the error text of a KindError event.
	Message string
}

// ResolveKind applies the discriminant precedence rule. bodyType is the
// "type" field of the JSON payload and frameType the declared event type;
// an empty string means the source is absent.
//
// The heartbeat marker wins under either source. Otherwise the body type
// takes precedence over the frame type.
func ResolveKind(bodyType, frameType string) (Kind, string) {
	if bodyType == string(KindHeartbeat) || frameType == string(KindHeartbeat) {
		return KindHeartbeat, string(KindHeartbeat)
	}

	discriminant := frameType
	if bodyType != "" {
		discriminant = bodyType
	}

	if _, ok := knownKinds[Kind(discriminant)]; ok {
		return Kind(discriminant), discriminant
	}

	return KindUnknown, discriminant
}

// Decode parses a frame into an Event. An empty payload decodes as an empty
// object. A payload that is not a JSON object yields ErrMalformedPayload.
func Decode(frame sse.Frame) (Event, error) {
	body := map[string]any{}
	if frame.Payload != "" {
		if err := json.Unmarshal([]byte(frame.Payload), &body); err != nil {
			return Event{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
		if body == nil {
			return Event{}, fmt.Errorf("%w: null payload", ErrMalformedPayload)
		}
	}

	frameType := ""
	if frame.HasType {
		frameType = frame.Type
	}

	kind, discriminant := ResolveKind(stringField(body, "type"), frameType)
	ev := Event{
		Kind:         kind,
		Discriminant: discriminant,
	}

	switch kind {
	case KindText:
		ev.Content = stringField(body, "content")
	case KindAction:
		ev.ToolName = stringField(body, "name")
		ev.ToolPayload, _ = body["payload"].(map[string]any)
		if ev.ToolPayload == nil {
			ev.ToolPayload = map[string]any{}
		}
	case KindConversationID, KindConnected:
		ev.ConversationID = stringField(body, "conversationId")
	case KindError:
		ev.Message = stringField(body, "message")
		if ev.Message == "" {
			ev.Message = defaultErrorMessage
		}
	}

	return ev, nil
}

const defaultErrorMessage = "the assistant reported an error"

// stringField returns body[key] when it is a string and "" otherwise.
func stringField(body map[string]any, key string) string {
	s, _ := body[key].(string)
	return s
}

package assistant

import (
	"maps"

	"go.uber.org/zap"

	"github.com/papercomputeco/jobpilot/pkg/sse"
)

// Handler receives the caller-visible outcome of dispatched frames.
type Handler interface {
	// TextChunk receives a text delta. Content may be empty.
	TextChunk(content string)

	// ToolExecuted receives a normalized tool result.
	ToolExecuted(name string, result map[string]any)

	// ConversationStarted receives a conversation id announced by the
	// server. The handler decides whether to adopt it.
	ConversationStarted(id string)

	// Error receives an error reported in-band by the server.
	Error(message string)

	// Complete signals that the server finished its response.
	Complete()
}

// Dispatcher turns frames into Handler calls.
type Dispatcher struct {
	tools  *ToolRegistry
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher. A nil registry forwards every tool
// result unnormalized and a nil logger discards logs.
func NewDispatcher(tools *ToolRegistry, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		tools:  tools,
		logger: logger,
	}
}

// Dispatch decodes frame and invokes the matching Handler method. It does not
// return errors: a malformed payload is logged and the frame dropped, so one
// bad frame never ends a session.
func (d *Dispatcher) Dispatch(frame sse.Frame, h Handler) {
	ev, err := Decode(frame)
	if err != nil {
		d.logger.Warn("dropping malformed frame",
			zap.String("event_type", frame.Type),
			zap.String("payload", frame.Payload),
			zap.Error(err),
		)
		return
	}

	switch ev.Kind {
	case KindHeartbeat:
		return

	case KindThinking:
		d.logger.Debug("assistant is thinking")

	case KindText:
		h.TextChunk(ev.Content)

	case KindAction:
		d.dispatchAction(ev, h)

	case KindConversationID, KindConnected:
		if ev.ConversationID == "" {
			d.logger.Debug("conversation event without id", zap.String("kind", string(ev.Kind)))
			return
		}
		h.ConversationStarted(ev.ConversationID)

	case KindError:
		h.Error(ev.Message)

	case KindDone:
		h.Complete()

	default:
		d.logger.Debug("dropping unknown event",
			zap.String("discriminant", ev.Discriminant),
		)
	}
}

// dispatchAction normalizes a tool result and forwards it, followed by the
// tool's confirmation text when it declares one.
func (d *Dispatcher) dispatchAction(ev Event, h Handler) {
	result := maps.Clone(ev.ToolPayload)
	if result == nil {
		result = map[string]any{}
	}
	result[ToolNameField] = ev.ToolName

	spec, ok := d.tools.Lookup(ev.ToolName)
	if !ok {
		d.logger.Debug("forwarding unregistered tool result", zap.String("tool", ev.ToolName))
		h.ToolExecuted(ev.ToolName, result)
		return
	}

	if spec.Normalize != nil {
		result = spec.Normalize(result)
	}

	h.ToolExecuted(ev.ToolName, result)

	if spec.Confirm != nil {
		if text, ok := spec.Confirm(result); ok {
			h.TextChunk(text)
		}
	}
}

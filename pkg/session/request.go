package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// HeaderRequestID carries the per-session request id.
const HeaderRequestID = "X-Request-ID"

// chatRequest is the body of a chat request.
type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

func newChatRequest(ctx context.Context, endpoint, token, requestID, message, conversationID string) (*http.Request, error) {
	body, err := json.Marshal(chatRequest{
		Message:        message,
		ConversationID: conversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set(HeaderRequestID, requestID)

	return req, nil
}

// bodyReleaser closes a response body at most once. Close failures are
// logged and swallowed.
type bodyReleaser struct {
	io.ReadCloser
	once   sync.Once
	logger *zap.Logger
}

func newBodyReleaser(rc io.ReadCloser, logger *zap.Logger) *bodyReleaser {
	return &bodyReleaser{ReadCloser: rc, logger: logger}
}

func (b *bodyReleaser) release() {
	b.once.Do(func() {
		if err := b.ReadCloser.Close(); err != nil {
			b.logger.Warn("releasing response body", zap.Error(err))
		}
	})
}

package session_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/papercomputeco/jobpilot/pkg/eventstream"
	"github.com/papercomputeco/jobpilot/pkg/session"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

type failingToken struct{}

func (failingToken) Token(context.Context) (string, error) {
	return "", errors.New("keychain locked")
}

// sink records callbacks. It is safe for concurrent use.
type sink struct {
	mu        sync.Mutex
	texts     []string
	tools     []string
	results   []map[string]any
	errs      []error
	completes []string
	order     []string
}

func (s *sink) callbacks() session.Callbacks {
	return session.Callbacks{
		OnTextChunk: func(content string) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.texts = append(s.texts, content)
			s.order = append(s.order, "text")
		},
		OnToolExecuted: func(name string, result map[string]any) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.tools = append(s.tools, name)
			s.results = append(s.results, result)
			s.order = append(s.order, "tool")
		},
		OnError: func(err error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.errs = append(s.errs, err)
			s.order = append(s.order, "error")
		},
		OnComplete: func(text string) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.completes = append(s.completes, text)
			s.order = append(s.order, "complete")
		},
	}
}

func (s *sink) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func (s *sink) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// memoryStore is an in-memory ConversationStore.
type memoryStore struct {
	mu    sync.Mutex
	id    string
	saves []string
}

func (m *memoryStore) LoadConversationID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, nil
}

func (m *memoryStore) SaveConversationID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, id)
	if m.id == "" {
		m.id = id
	}
	return nil
}

func (m *memoryStore) ClearConversationID() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = ""
	return nil
}

// trackedBody counts Close calls.
type trackedBody struct {
	io.Reader
	closes  atomic.Int32
	onClose func()
}

func (b *trackedBody) Close() error {
	b.closes.Add(1)
	if b.onClose != nil {
		b.onClose()
	}
	return nil
}

// fakeDoer answers requests with bodies produced by respond.
type fakeDoer struct {
	mu       sync.Mutex
	requests []*http.Request
	respond  func(n int, req *http.Request) *http.Response
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	n := len(f.requests)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	return f.respond(n, req), nil
}

func (f *fakeDoer) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func okResponse(body io.ReadCloser) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:       body,
	}
}

func stringBody(s string) *trackedBody {
	return &trackedBody{Reader: strings.NewReader(s)}
}

// pipeBody returns a body that blocks until written to and fails with the
// request context's error once that context is cancelled.
func pipeBody(req *http.Request) (*trackedBody, *io.PipeWriter) {
	pr, pw := io.Pipe()
	go func() {
		<-req.Context().Done()
		_ = pr.CloseWithError(req.Context().Err())
	}()
	return &trackedBody{Reader: pr, onClose: func() { _ = pr.Close() }}, pw
}

// recordingPublisher records session events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.SessionFinishedEvent
}

func (r *recordingPublisher) PublishSession(_ context.Context, event *eventstream.SessionFinishedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) Events() []*eventstream.SessionFinishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.SessionFinishedEvent(nil), r.events...)
}

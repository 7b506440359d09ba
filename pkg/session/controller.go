// Package session drives streamed exchanges with the assistant.
//
// A Controller owns at most one in-flight request. Send supersedes any
// session still running and Cancel stops it; in both cases the superseded
// session is released silently and none of its pending output reaches the
// callbacks.
//
//	Idle ─▶ Sending ─▶ Reading ─┬─▶ Completed
//	                            ├─▶ Failed
//	                            └─▶ Cancelled
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/jobpilot/pkg/assistant"
	"github.com/papercomputeco/jobpilot/pkg/eventstream"
	"github.com/papercomputeco/jobpilot/pkg/sse"
)

const defaultRequestTimeout = 5 * time.Minute

// HTTPDoer sends HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields the bearer token for a request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ConversationStore persists the conversation id across processes.
type ConversationStore interface {
	LoadConversationID() (string, error)
	SaveConversationID(id string) error
	ClearConversationID() error
}

// Callbacks receive the caller-visible output of a session. Nil callbacks
// are skipped. At most one of OnComplete and OnError fires per session, and
// exactly one when it ends in StateCompleted or StateFailed. OnError fires
// when the first error frame arrives, while the stream is still being read.
type Callbacks struct {
	OnTextChunk    func(content string)
	OnToolExecuted func(name string, result map[string]any)
	OnError        func(err error)

	// OnComplete receives the text accumulated over the session.
	OnComplete func(text string)
}

// Config is the configuration for a Controller.
type Config struct {
	// Endpoint is the absolute URL of the streaming chat endpoint.
	Endpoint string

	// Client sends the request. Defaults to an *http.Client with a five
	// minute timeout.
	Client HTTPDoer

	// Tokens provides the bearer token. Required.
	Tokens TokenSource

	// Conversations persists the conversation id. Optional.
	Conversations ConversationStore

	// Dispatcher turns frames into callbacks. Defaults to a dispatcher over
	// assistant.DefaultToolRegistry.
	Dispatcher *assistant.Dispatcher

	Callbacks Callbacks

	// Publisher receives a SessionFinishedEvent for every finished session.
	// It is called on the session goroutine, so it should not block.
	Publisher eventstream.Publisher

	// Tee receives the raw response stream. Optional.
	Tee io.Writer

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Controller runs one streamed exchange at a time.
type Controller struct {
	config     *Config
	client     HTTPDoer
	dispatcher *assistant.Dispatcher
	logger     *zap.Logger

	mu sync.Mutex

	// generation is bumped by every Send and Cancel. A session whose
	// generation is no longer current must not fire callbacks.
	generation uint64

	// owner is the generation of the most recently started session, the
	// one whose lifecycle State reports.
	owner  uint64
	state  State
	cancel context.CancelFunc

	conversationID     string
	conversationLoaded bool

	wg sync.WaitGroup
}

// exchange is the bookkeeping of one session.
type exchange struct {
	gen            uint64
	requestID      string
	conversationID string
	startedAt      time.Time
	text           strings.Builder
	tools          []string

	// notified is set once OnComplete or OnError has fired.
	notified bool
}

// NewController creates a Controller.
func NewController(c *Config) (*Controller, error) {
	if c.Endpoint == "" {
		return nil, errors.New("session controller requires an endpoint")
	}
	if c.Tokens == nil {
		return nil, errors.New("session controller requires a token source")
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}

	dispatcher := c.Dispatcher
	if dispatcher == nil {
		dispatcher = assistant.NewDispatcher(assistant.DefaultToolRegistry(), logger)
	}

	return &Controller{
		config:     c,
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Send starts a session for message and returns immediately. Results arrive
// through the callbacks. A session still in flight is cancelled first.
func (c *Controller) Send(ctx context.Context, message string) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	sctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.owner = gen
	c.state = StateSending
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("session started", zap.Uint64("generation", gen))

	go c.run(sctx, cancel, gen, message)
}

// Cancel stops the session in flight, if any. Output it has not delivered
// yet is dropped and no terminal callback fires.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Wait blocks until every session goroutine has exited.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// State returns the state of the most recently started session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation returns the current generation.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// ConversationID returns the conversation id known to the controller, if
// any. It does not consult the store.
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// ResetConversation forgets the conversation id in memory and in the store,
// so the next session starts a new conversation.
func (c *Controller) ResetConversation() error {
	c.mu.Lock()
	c.conversationID = ""
	c.conversationLoaded = true
	c.mu.Unlock()

	if c.config.Conversations == nil {
		return nil
	}
	if err := c.config.Conversations.ClearConversationID(); err != nil {
		return fmt.Errorf("clearing conversation id: %w", err)
	}
	return nil
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, gen uint64, message string) {
	defer c.wg.Done()
	defer cancel()

	ex := &exchange{
		gen:       gen,
		requestID: uuid.NewString(),
		startedAt: time.Now(),
	}

	state, err := c.stream(ctx, ex, message)
	c.finish(ex, state, err)
}

// stream performs the request and reads the response until a terminal
// condition. The response body is released before it returns.
func (c *Controller) stream(ctx context.Context, ex *exchange, message string) (State, error) {
	token, err := c.config.Tokens.Token(ctx)
	if err != nil {
		return StateFailed, fmt.Errorf("%w: %w", ErrMissingCredential, err)
	}
	if token == "" {
		return StateFailed, ErrMissingCredential
	}

	ex.conversationID = c.loadConversationID()

	req, err := newChatRequest(ctx, c.config.Endpoint, token, ex.requestID, message, ex.conversationID)
	if err != nil {
		return StateFailed, err
	}

	c.logger.Debug("sending chat request",
		zap.String("endpoint", c.config.Endpoint),
		zap.String("request_id", ex.requestID),
		zap.Bool("has_conversation", ex.conversationID != ""),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return c.classify(ctx, ex.gen, fmt.Errorf("sending chat request: %w", err))
	}

	body := newBodyReleaser(resp.Body, c.logger)
	defer body.release()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return StateFailed, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	if !c.advance(ex.gen, StateReading) {
		return StateCancelled, nil
	}

	var opts []sse.ReaderOption
	if c.config.Tee != nil {
		opts = append(opts, sse.WithTee(c.config.Tee))
	}
	reader := sse.NewReader(body, opts...)
	h := &streamHandler{c: c, ex: ex}

	for {
		frame, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if n := reader.Buffered(); n > 0 {
					c.logger.Debug("dropping unterminated trailing line", zap.Int("bytes", n))
				}
				return h.outcome()
			}
			return c.classify(ctx, ex.gen, fmt.Errorf("reading stream: %w", err))
		}

		if !c.current(ex.gen) {
			return StateCancelled, nil
		}

		c.dispatcher.Dispatch(*frame, h)

		if h.done {
			return h.outcome()
		}
	}
}

// classify maps a transport error to Cancelled when it stems from
// cancellation and to Failed otherwise.
func (c *Controller) classify(ctx context.Context, gen uint64, err error) (State, error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || !c.current(gen) {
		return StateCancelled, nil
	}
	return StateFailed, err
}

// finish records the terminal state and fires the terminal callback. It
// runs once per session.
func (c *Controller) finish(ex *exchange, state State, err error) {
	c.mu.Lock()
	if ex.gen != c.generation {
		state, err = StateCancelled, nil
	}
	if c.owner == ex.gen {
		c.state = state
		c.cancel = nil
	}
	c.mu.Unlock()

	fields := []zap.Field{
		zap.Uint64("generation", ex.gen),
		zap.String("request_id", ex.requestID),
		zap.Stringer("state", state),
	}

	switch state {
	case StateCompleted:
		c.logger.Debug("session completed", fields...)
		if cb := c.config.Callbacks.OnComplete; cb != nil && !ex.notified {
			ex.notified = true
			cb(ex.text.String())
		}

	case StateFailed:
		c.logger.Debug("session failed", append(fields, zap.Error(err))...)
		if cb := c.config.Callbacks.OnError; cb != nil && !ex.notified {
			ex.notified = true
			cb(err)
		}

	default:
		c.logger.Debug("session cancelled", fields...)
	}

	c.publish(ex, state, err)
}

func (c *Controller) publish(ex *exchange, state State, err error) {
	if c.config.Publisher == nil {
		return
	}

	meta := eventstream.SessionMeta{
		Generation:     ex.gen,
		RequestID:      ex.requestID,
		ConversationID: ex.conversationID,
		State:          state.String(),
		StartedAt:      ex.startedAt.UTC(),
		FinishedAt:     time.Now().UTC(),
		TextBytes:      ex.text.Len(),
		ToolCalls:      ex.tools,
	}
	if err != nil {
		meta.Error = err.Error()
	}

	if perr := c.config.Publisher.PublishSession(context.Background(), eventstream.NewSessionFinishedEvent(meta)); perr != nil {
		c.logger.Warn("publishing session event", zap.Error(perr))
	}
}

// advance moves the session to state if gen is still current.
func (c *Controller) advance(gen uint64, state State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return false
	}
	c.state = state
	return true
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation
}

// loadConversationID returns the known conversation id, reading the store
// once per controller.
func (c *Controller) loadConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conversationLoaded || c.config.Conversations == nil {
		return c.conversationID
	}
	c.conversationLoaded = true

	id, err := c.config.Conversations.LoadConversationID()
	if err != nil {
		c.logger.Warn("loading conversation id", zap.Error(err))
		return c.conversationID
	}
	if c.conversationID == "" {
		c.conversationID = id
	}
	return c.conversationID
}

// adoptConversationID keeps the first conversation id learned and persists
// it. Later ids are ignored.
func (c *Controller) adoptConversationID(id string) string {
	c.mu.Lock()
	if c.conversationID != "" {
		known := c.conversationID
		c.mu.Unlock()
		if known != id {
			c.logger.Debug("ignoring conversation id", zap.String("known", known), zap.String("announced", id))
		}
		return known
	}
	c.conversationID = id
	c.conversationLoaded = true
	c.mu.Unlock()

	c.logger.Debug("conversation started", zap.String("conversation_id", id))

	if c.config.Conversations != nil {
		if err := c.config.Conversations.SaveConversationID(id); err != nil {
			c.logger.Warn("persisting conversation id", zap.Error(err))
		}
	}
	return id
}

// streamHandler adapts dispatcher output to the controller callbacks of one
// session.
type streamHandler struct {
	c  *Controller
	ex *exchange

	done bool
	err  error
}

func (h *streamHandler) TextChunk(content string) {
	if !h.c.current(h.ex.gen) {
		return
	}
	h.ex.text.WriteString(content)
	if cb := h.c.config.Callbacks.OnTextChunk; cb != nil {
		cb(content)
	}
}

func (h *streamHandler) ToolExecuted(name string, result map[string]any) {
	if !h.c.current(h.ex.gen) {
		return
	}
	h.ex.tools = append(h.ex.tools, name)
	if cb := h.c.config.Callbacks.OnToolExecuted; cb != nil {
		cb(name, result)
	}
}

func (h *streamHandler) ConversationStarted(id string) {
	if !h.c.current(h.ex.gen) {
		return
	}
	h.ex.conversationID = h.c.adoptConversationID(id)
}

// Error reports the first error frame as soon as it arrives. Reading goes
// on; the session still ends Failed.
func (h *streamHandler) Error(message string) {
	if !h.c.current(h.ex.gen) {
		return
	}
	if h.err != nil {
		h.c.logger.Debug("ignoring further error frame", zap.String("message", message))
		return
	}
	h.err = &StreamError{Message: message}
	h.ex.notified = true
	if cb := h.c.config.Callbacks.OnError; cb != nil {
		cb(h.err)
	}
}

func (h *streamHandler) Complete() {
	h.done = true
}

// outcome is the terminal state of a stream that ended normally.
func (h *streamHandler) outcome() (State, error) {
	if h.err != nil {
		return StateFailed, h.err
	}
	return StateCompleted, nil
}

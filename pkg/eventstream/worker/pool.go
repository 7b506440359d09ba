// Package worker provides an asynchronous worker pool that forwards session
// events to an eventstream.Publisher.
//
// The pool decouples event publishing from the chat read loop so that a slow
// or unreachable broker never delays the delivery of assistant output.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/jobpilot/pkg/eventstream"
)

var (
	defaultNumWorkers     uint = 2
	defaultJobQueueSize   uint = 64
	defaultPublishTimeout      = 10 * time.Second
)

// ErrQueueFull is returned by PublishSession when the event was dropped.
var ErrQueueFull = errors.New("event queue full")

// ErrClosed is returned by PublishSession after Close.
var ErrClosed = errors.New("worker pool closed")

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives every queued event.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered event channel (defaults to 64).
	QueueSize uint

	// PublishTimeout bounds each call to the wrapped publisher.
	PublishTimeout time.Duration

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool publishes session events asynchronously via a worker pool. It
// implements eventstream.Publisher.
type Pool struct {
	config *Config
	queue  chan *eventstream.SessionFinishedEvent
	wg     sync.WaitGroup
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, errors.New("worker pool requires a publisher")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PublishTimeout == 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan *eventstream.SessionFinishedEvent, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// PublishSession queues event for publishing and returns immediately.
// Returns ErrQueueFull if the queue is full, resulting in the event being dropped.
func (p *Pool) PublishSession(_ context.Context, event *eventstream.SessionFinishedEvent) error {
	if event == nil {
		return eventstream.ErrNilSessionEvent
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- event:
		p.logger.Debug("session event queued",
			zap.String("event_id", event.EventID),
			zap.Uint64("generation", event.Session.Generation),
		)
		return nil
	default:
		p.logger.Error("session event not queued, queue full, event dropped",
			zap.String("event_id", event.EventID),
			zap.Uint64("generation", event.Session.Generation),
		)
		return ErrQueueFull
	}
}

// Close stops accepting events, waits for queued events to drain and then
// closes the wrapped publisher.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.config.Publisher.Close()
}

// worker is the inner worker thread that continuously pulls events off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for event := range p.queue {
		p.publish(event)
	}

	p.logger.Debug("eventstream worker stopped", zap.Uint("worker_id", id))
}

func (p *Pool) publish(event *eventstream.SessionFinishedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	if err := p.config.Publisher.PublishSession(ctx, event); err != nil {
		p.logger.Warn("publishing session event failed",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("session event published",
		zap.String("event_id", event.EventID),
		zap.String("state", event.Session.State),
	)
}

// Package kafka publishes session events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/papercomputeco/jobpilot/pkg/eventstream"
)

const headerEventType = "event_type"

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config is the configuration for a Kafka publisher.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic receives every session event.
	Topic string

	// WriteTimeout bounds a single write (defaults to 10s).
	WriteTimeout time.Duration

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Publisher writes session events as JSON messages keyed by conversation id,
// so that the events of one conversation land on one partition.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewPublisher creates a Kafka publisher. No connection is made until the
// first event is published.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		WriteTimeout:           c.WriteTimeout,
		AllowAutoTopicCreation: true,
	}

	return newPublisher(w, c.Topic, c.Logger), nil
}

func newPublisher(w messageWriter, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Publisher{
		writer: w,
		topic:  topic,
		logger: logger,
	}
}

// PublishSession writes event to the configured topic.
func (p *Publisher) PublishSession(ctx context.Context, event *eventstream.SessionFinishedEvent) error {
	if event == nil {
		return eventstream.ErrNilSessionEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling session event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(messageKey(event)),
		Value: value,
		Headers: []kafkago.Header{
			{Key: headerEventType, Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing to topic %s: %w", p.topic, err)
	}

	p.logger.Debug("session event written",
		zap.String("topic", p.topic),
		zap.String("event_id", event.EventID),
	)
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// messageKey prefers the conversation id and falls back to the request id
// for sessions that never learned one.
func messageKey(event *eventstream.SessionFinishedEvent) string {
	if event.Session.ConversationID != "" {
		return event.Session.ConversationID
	}
	return event.Session.RequestID
}

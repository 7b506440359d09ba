package kafka

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter exposes messageWriter to the external test package.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewPublisherWithWriter builds a Publisher around a test writer.
func NewPublisherWithWriter(w MessageWriter, topic string) *Publisher {
	return newPublisher(w, topic, zap.NewNop())
}

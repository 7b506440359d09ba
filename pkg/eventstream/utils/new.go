// Package eventstreamutils builds the configured session event publisher.
package eventstreamutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/jobpilot/pkg/eventstream"
	"github.com/papercomputeco/jobpilot/pkg/eventstream/kafka"
	"github.com/papercomputeco/jobpilot/pkg/eventstream/nop"
	"github.com/papercomputeco/jobpilot/pkg/eventstream/worker"
)

const (
	ProviderNone  = "none"
	ProviderKafka = "kafka"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      []string
	Topic        string
	Logger       *zap.Logger
}

// NewPublisher returns the publisher for o.ProviderType. Broker-backed
// publishers are wrapped in a worker pool so publishing never blocks the
// caller.
func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", ProviderNone:
		return nop.NewPublisher(), nil
	case ProviderKafka:
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
			Logger:  o.Logger,
		})
		if err != nil {
			return nil, err
		}
		return worker.NewPool(&worker.Config{
			Publisher: pub,
			Logger:    o.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported eventstream provider: %s", o.ProviderType)
	}
}

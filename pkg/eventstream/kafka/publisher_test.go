package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/jobpilot/pkg/eventstream"
	"github.com/papercomputeco/jobpilot/pkg/eventstream/kafka"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		w   *fakeWriter
		pub *kafka.Publisher
		ctx context.Context
	)

	BeforeEach(func() {
		w = &fakeWriter{}
		pub = kafka.NewPublisherWithWriter(w, "jobpilot.sessions")
		ctx = context.Background()
	})

	It("validates its configuration", func() {
		_, err := kafka.NewPublisher(kafka.Config{Topic: "t"})
		Expect(err).To(HaveOccurred())

		_, err = kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
		Expect(err).To(HaveOccurred())

		p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "t"})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Close()).To(Succeed())
	})

	It("keys messages by conversation id", func() {
		event := eventstream.NewSessionFinishedEvent(eventstream.SessionMeta{
			RequestID:      "req-1",
			ConversationID: "conv-1",
			State:          "completed",
		})

		Expect(pub.PublishSession(ctx, event)).To(Succeed())
		Expect(w.messages).To(HaveLen(1))
		Expect(string(w.messages[0].Key)).To(Equal("conv-1"))
		Expect(w.messages[0].Headers).To(ContainElement(kafkago.Header{
			Key:   "event_type",
			Value: []byte(eventstream.EventTypeSessionFinished),
		}))

		var decoded eventstream.SessionFinishedEvent
		Expect(json.Unmarshal(w.messages[0].Value, &decoded)).To(Succeed())
		Expect(decoded.EventID).To(Equal(event.EventID))
	})

	It("falls back to the request id as key", func() {
		event := eventstream.NewSessionFinishedEvent(eventstream.SessionMeta{RequestID: "req-2"})
		Expect(pub.PublishSession(ctx, event)).To(Succeed())
		Expect(string(w.messages[0].Key)).To(Equal("req-2"))
	})

	It("wraps write failures", func() {
		w.err = errors.New("leader not available")
		err := pub.PublishSession(ctx, eventstream.NewSessionFinishedEvent(eventstream.SessionMeta{}))
		Expect(err).To(MatchError(ContainSubstring("jobpilot.sessions")))
		Expect(errors.Is(err, w.err)).To(BeTrue())
	})

	It("rejects nil events", func() {
		Expect(pub.PublishSession(ctx, nil)).To(MatchError(eventstream.ErrNilSessionEvent))
	})

	It("closes the writer", func() {
		Expect(pub.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})
})

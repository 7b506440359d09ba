package eventstreamutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/jobpilot/pkg/eventstream/nop"
	eventstreamutils "github.com/papercomputeco/jobpilot/pkg/eventstream/utils"
	"github.com/papercomputeco/jobpilot/pkg/eventstream/worker"
)

var _ = Describe("NewPublisher", func() {
	It("returns a no-op publisher when disabled", func() {
		for _, provider := range []string{"", eventstreamutils.ProviderNone} {
			pub, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{ProviderType: provider})
			Expect(err).NotTo(HaveOccurred())
			Expect(pub).To(BeAssignableToTypeOf(&nop.Publisher{}))
		}
	})

	It("wraps kafka in a worker pool", func() {
		pub, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
			ProviderType: eventstreamutils.ProviderKafka,
			Brokers:      []string{"127.0.0.1:9092"},
			Topic:        "jobpilot.sessions",
			Logger:       zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(pub).To(BeAssignableToTypeOf(&worker.Pool{}))
		Expect(pub.Close()).To(Succeed())
	})

	It("rejects kafka without brokers", func() {
		_, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
			ProviderType: eventstreamutils.ProviderKafka,
			Topic:        "t",
		})
		Expect(err).To(HaveOccurred())
	})

	It("rejects unknown providers", func() {
		_, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{ProviderType: "nats"})
		Expect(err).To(MatchError(ContainSubstring("unsupported eventstream provider")))
	})
})

package assistant_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/jobpilot/pkg/assistant"
	"github.com/papercomputeco/jobpilot/pkg/sse"
)

var _ = Describe("ResolveKind", func() {
	DescribeTable("precedence",
		func(bodyType, frameType string, want assistant.Kind) {
			kind, _ := assistant.ResolveKind(bodyType, frameType)
			Expect(kind).To(Equal(want))
		},
		Entry("body type only", "text", "", assistant.KindText),
		Entry("frame type only", "", "done", assistant.KindDone),
		Entry("body type wins over frame type", "action", "text", assistant.KindAction),
		Entry("heartbeat in body", "heartbeat", "text", assistant.KindHeartbeat),
		Entry("heartbeat in frame", "text", "heartbeat", assistant.KindHeartbeat),
		Entry("connected", "connected", "", assistant.KindConnected),
		Entry("conversation id", "", "conversationId", assistant.KindConversationID),
		Entry("no discriminant", "", "", assistant.KindUnknown),
		Entry("unrecognized discriminant", "progress", "", assistant.KindUnknown),
	)

	It("returns the raw discriminant for unknown kinds", func() {
		kind, raw := assistant.ResolveKind("", "usage_report")
		Expect(kind).To(Equal(assistant.KindUnknown))
		Expect(raw).To(Equal("usage_report"))
	})
})

var _ = Describe("Decode", func() {
	It("decodes a text delta", func() {
		ev, err := assistant.Decode(sse.Frame{Payload: `{"type":"text","content":"Hello"}`})
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Kind).To(Equal(assistant.KindText))
		Expect(ev.Content).To(Equal("Hello"))
	})

	It("falls back to the frame type when the body has none", func() {
		ev, err := assistant.Decode(sse.Frame{Type: "text", HasType: true, Payload: `{"content":"Hi"}`})
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Kind).To(Equal(assistant.KindText))
		Expect(ev.Content).To(Equal("Hi"))
	})

	It("ignores the frame type when HasType is false", func() {
		ev, err := assistant.Decode(sse.Frame{Type: "text", Payload: `{"content":"Hi"}`})
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Kind).To(Equal(assistant.KindUnknown))
	})

	It("decodes an empty payload as an empty object", func() {
		ev, err := assistant.Decode(sse.Frame{Type: "done", HasType: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Kind).To(Equal(assistant.KindDone))
	})

	It("decodes an action", func() {
		ev, err := assistant.Decode(sse.Frame{
			Payload: `{"type":"action","name":"save_job","payload":{"title":"SRE"}}`,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Kind).To(Equal(assistant.KindAction))
		Expect(ev.ToolName).To(Equal("save_job"))
		Expect(ev.ToolPayload).To(HaveKeyWithValue("title", "SRE"))
	})

	It("gives an action without payload an empty result", func() {
		ev, err := assistant.Decode(sse.Frame{Payload: `{"type":"action","name":"noop"}`})
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.ToolPayload).NotTo(BeNil())
		Expect(ev.ToolPayload).To(BeEmpty())
	})

	It("decodes a conversation id", func() {
		ev, err := assistant.Decode(sse.Frame{Type: "connected", HasType: true, Payload: `{"conversationId":"conv-1"}`})
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Kind).To(Equal(assistant.KindConnected))
		Expect(ev.ConversationID).To(Equal("conv-1"))
	})

	It("decodes an error message", func() {
		ev, err := assistant.Decode(sse.Frame{Payload: `{"type":"error","message":"rate limited"}`})
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Kind).To(Equal(assistant.KindError))
		Expect(ev.Message).To(Equal("rate limited"))
	})

	It("uses a default message for an error without one", func() {
		ev, err := assistant.Decode(sse.Frame{Payload: `{"type":"error"}`})
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Message).NotTo(BeEmpty())
	})

	It("treats a non-string type as absent", func() {
		ev, err := assistant.Decode(sse.Frame{Type: "text", HasType: true, Payload: `{"type":7,"content":"x"}`})
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Kind).To(Equal(assistant.KindText))
	})

	DescribeTable("rejects payloads that are not JSON objects",
		func(payload string) {
			_, err := assistant.Decode(sse.Frame{Payload: payload})
			Expect(err).To(MatchError(assistant.ErrMalformedPayload))
		},
		Entry("truncated object", `{"type":"text"`),
		Entry("plain text", `hello`),
		Entry("array", `[1,2,3]`),
		Entry("null", `null`),
	)
})

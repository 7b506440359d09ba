// Package sse provides the line-level decoding of the assistant's server-sent
// event stream: a LineBuffer that reassembles newline-terminated lines from
// arbitrarily split network chunks, and a Parser that pairs "event:" and
// "data:" lines into frames.
//
// The parser is deliberately narrower than the full SSE specification. An
// event type applies to exactly one following data line, multi-line data is
// not joined, and "id:"/"retry:" fields are ignored. The assistant backend
// emits one JSON object per data line, so this is all it needs.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

const (
	// PrefixEvent starts a line that declares the type of the next data line.
	PrefixEvent = "event:"

	// PrefixData starts a line that carries a frame payload.
	PrefixData = "data:"

	// SentinelDone is the literal end-of-payload marker. It is treated the
	// same as an empty payload and never produces a frame.
	SentinelDone = "[DONE]"
)

// Frame is one (event type, payload) pair extracted from the stream.
type Frame struct {
	// Type is the event type declared by the "event:" line immediately
	// preceding the data line. Only meaningful when HasType is true.
	Type string

	// HasType reports whether an event type was declared for this frame.
	// A frame without a declared type must resolve its kind from its payload.
	HasType bool

	// Payload is the trimmed text after the "data:" prefix.
	Payload string
}

package sse

import "strings"

// Parser groups lines into frames. It holds at most one pending event type,
// which is consumed by the next data line whether or not that line produces a
// frame.
type Parser struct {
	pendingType string
	hasPending  bool
}

// NewParser returns a Parser with no pending event type.
func NewParser() *Parser {
	return &Parser{}
}

// Consume processes a single line. It returns a frame and true when the line
// is a data line with a usable payload.
//
// Rules, in order:
//  1. "event:" lines set the pending type and produce nothing.
//  2. "data:" lines take the trimmed payload and the pending type; the
//     pending type is cleared in every case.
//  3. Empty and "[DONE]" payloads produce nothing.
//  4. Every other line (blank lines, comments, unknown fields) is ignored.
func (p *Parser) Consume(line string) (*Frame, bool) {
	if after, ok := strings.CutPrefix(line, PrefixEvent); ok {
		p.pendingType = strings.TrimSpace(after)
		p.hasPending = true
		return nil, false
	}

	after, ok := strings.CutPrefix(line, PrefixData)
	if !ok {
		return nil, false
	}

	frame := &Frame{
		Type:    p.pendingType,
		HasType: p.hasPending,
		Payload: strings.TrimSpace(after),
	}
	p.pendingType = ""
	p.hasPending = false

	if frame.Payload == "" || frame.Payload == SentinelDone {
		return nil, false
	}

	return frame, true
}

// Reset drops any pending event type.
func (p *Parser) Reset() {
	p.pendingType = ""
	p.hasPending = false
}

package sse

import (
	"bytes"
	"strings"
)

// LineBuffer accumulates raw chunks and yields complete newline-terminated
// lines. The suffix after the last terminator is retained until a later chunk
// completes it.
type LineBuffer struct {
	residual []byte
}

// NewLineBuffer returns an empty LineBuffer.
func NewLineBuffer() *LineBuffer {
	return &LineBuffer{}
}

// Feed appends chunk to the residual and returns every line completed by it,
// in order. Line terminators are not included and a trailing "\r" is removed.
// Feed returns nil when the chunk does not complete any line.
func (b *LineBuffer) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}

	b.residual = append(b.residual, chunk...)

	last := bytes.LastIndexByte(b.residual, '\n')
	if last < 0 {
		return nil
	}

	complete := string(b.residual[:last])
	rest := b.residual[last+1:]

	// Copy the tail into a fresh slice so the backing array of a large
	// burst is not pinned for the lifetime of the stream.
	b.residual = append([]byte(nil), rest...)

	lines := strings.Split(complete, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}

// Flush returns the content that never received a terminator and resets the
// buffer. ok is false when nothing is buffered.
//
// The session read loop never calls Flush: an unterminated final line is
// dropped at stream end.
func (b *LineBuffer) Flush() (line string, ok bool) {
	if len(b.residual) == 0 {
		return "", false
	}

	line = strings.TrimSuffix(string(b.residual), "\r")
	b.residual = nil

	return line, true
}

// Buffered returns the number of bytes held back waiting for a terminator.
func (b *LineBuffer) Buffered() int {
	return len(b.residual)
}

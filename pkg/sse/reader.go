package sse

import (
	"fmt"
	"io"
)

const defaultChunkSize = 4096

// Reader pulls raw chunks from a source io.Reader, optionally tees them
// verbatim to a destination io.Writer, and yields parsed frames.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌───────────────────────┐
// │   LineBuffer     │◀──│  tee io.Writer (opt)  │
// └──────────────────┘   └───────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Parser      │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │  Reader.Next()   │
// └──────────────────┘
//
// A tee destination receives the exact bytes of the stream, which is what
// "jobpilot chat --record" stores as a replayable transcript.
type Reader struct {
	src    io.Reader
	tee    io.Writer
	buf    *LineBuffer
	parser *Parser
	chunk  []byte

	// pending holds frames completed by the last chunk but not yet returned.
	pending []*Frame

	// err is the terminal error of the source, returned once pending drains.
	err error
}

// ReaderOption configures a Reader created with NewReader.
type ReaderOption func(*Reader)

// WithTee writes every raw chunk to w before it is parsed.
func WithTee(w io.Writer) ReaderOption {
	return func(r *Reader) {
		r.tee = w
	}
}

// WithChunkSize overrides the size of each read from the source.
func WithChunkSize(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.chunk = make([]byte, n)
		}
	}
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{
		src:    src,
		buf:    NewLineBuffer(),
		parser: NewParser(),
		chunk:  make([]byte, defaultChunkSize),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Next returns the next frame. It blocks on the source until a chunk
// completes at least one frame. At the end of the source Next returns
// nil, io.EOF; any other source error is returned as is after the frames
// already decoded have been handed out.
//
// Bytes left without a terminating newline when the source ends are dropped.
func (r *Reader) Next() (*Frame, error) {
	for {
		if len(r.pending) > 0 {
			frame := r.pending[0]
			r.pending[0] = nil
			r.pending = r.pending[1:]
			return frame, nil
		}

		if r.err != nil {
			return nil, r.err
		}

		n, err := r.src.Read(r.chunk)
		if n > 0 {
			data := r.chunk[:n]

			if r.tee != nil {
				if _, werr := r.tee.Write(data); werr != nil {
					r.err = fmt.Errorf("writing stream tee: %w", werr)
					continue
				}
			}

			for _, line := range r.buf.Feed(data) {
				if frame, ok := r.parser.Consume(line); ok {
					r.pending = append(r.pending, frame)
				}
			}
		}

		if err != nil {
			r.err = err
		}
	}
}

// Buffered returns the number of bytes held without a terminating newline.
func (r *Reader) Buffered() int {
	return r.buf.Buffered()
}

package replay

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// Transcript is a raw recorded response stream, as written by
// "jobpilot chat --record".
type Transcript []byte

// LoadTranscript reads a transcript from path.
func LoadTranscript(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("transcript is empty")
	}
	return Transcript(data), nil
}

// Chunks splits the transcript after every blank line so each chunk holds
// whole frames. Trailing bytes without a blank line form the last chunk.
func (t Transcript) Chunks() [][]byte {
	var chunks [][]byte
	rest := []byte(t)
	for len(rest) > 0 {
		i := bytes.Index(rest, []byte("\n\n"))
		if i < 0 {
			chunks = append(chunks, rest)
			break
		}
		chunks = append(chunks, rest[:i+2])
		rest = rest[i+2:]
	}
	return chunks
}

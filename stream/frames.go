// Package stream implements the streaming conversation engine: it consumes
// the backend's newline-delimited event stream for a single exchange,
// maintains the authoritative in-memory state for that exchange, and derives
// a chronologically ordered view of the assistant's reply as it unfolds.
//
// The package is organized around one exchange at a time:
//
//   - FrameReader splits the raw response body into wire frames (frames.go)
//   - DecodeFrame turns one frame into a typed Event (events.go)
//   - Store accumulates text and the tool-call ledger (store.go)
//   - Compose derives renderable segments from the store (compose.go)
//   - Exchange drives the read loop and owns cancellation (exchange.go)
//
// All state mutation happens synchronously inside the exchange's frame loop,
// so the store needs no locking. Cancel is the only operation that may be
// called from another goroutine; it is a flag plus a transport close.
package stream

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// FrameReader reads newline-delimited frames from a response stream.
// A frame is only emitted once a full line has been observed; partial
// trailing data at EOF is discarded, never delivered as a frame.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps an open response stream.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// Next returns the next non-empty frame, with the trailing line ending
// stripped. It returns io.EOF when the stream ends cleanly. A frame that is
// not valid UTF-8 fails the whole read: the stream is byte-garbled at the
// transport level, not merely carrying one bad record.
func (f *FrameReader) Next() (string, error) {
	for {
		line, err := f.r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Partial trailing data without a newline is an incomplete
				// frame; drop it and report end of stream.
				return "", io.EOF
			}
			return "", fmt.Errorf("stream read failed: %w", err)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		if !utf8.ValidString(line) {
			return "", fmt.Errorf("stream frame is not valid UTF-8")
		}

		return line, nil
	}
}

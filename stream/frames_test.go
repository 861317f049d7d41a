package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkedReader delivers its input in fixed-size pieces to exercise frame
// reassembly across read boundaries.
type chunkedReader struct {
	data []byte
	size int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.size
	if n > len(c.data) {
		n = len(c.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func readAllFrames(t *testing.T, r *FrameReader) []string {
	t.Helper()
	var frames []string
	for {
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		frames = append(frames, frame)
	}
}

func TestFrameReaderSplitsLines(t *testing.T) {
	input := "data: {\"type\":\"token\"}\n: keep-alive\n\ndata: {\"type\":\"end\"}\n"
	r := NewFrameReader(strings.NewReader(input))

	frames := readAllFrames(t, r)
	want := []string{`data: {"type":"token"}`, ": keep-alive", `data: {"type":"end"}`}
	if len(frames) != len(want) {
		t.Fatalf("got %d frames, want %d: %v", len(frames), len(want), frames)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("frame %d = %q, want %q", i, frames[i], want[i])
		}
	}
}

func TestFrameReaderReassemblesPartialLines(t *testing.T) {
	// One-byte reads force every frame to span many Read calls.
	input := "data: {\"type\":\"token\",\"content\":\"hello\"}\ndata: {\"type\":\"end\"}\n"
	r := NewFrameReader(&chunkedReader{data: []byte(input), size: 1})

	frames := readAllFrames(t, r)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0] != `data: {"type":"token","content":"hello"}` {
		t.Errorf("frame 0 = %q", frames[0])
	}
}

func TestFrameReaderStripsCRLF(t *testing.T) {
	r := NewFrameReader(strings.NewReader("data: {\"type\":\"end\"}\r\n"))
	frame, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if frame != `data: {"type":"end"}` {
		t.Errorf("frame = %q, want CR stripped", frame)
	}
}

func TestFrameReaderDropsPartialTrailingData(t *testing.T) {
	// No newline after the second record: it was never a complete frame.
	r := NewFrameReader(strings.NewReader("data: {\"type\":\"token\"}\ndata: {\"ty"))
	frames := readAllFrames(t, r)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1 (partial line dropped): %v", len(frames), frames)
	}
}

func TestFrameReaderRejectsInvalidUTF8(t *testing.T) {
	r := NewFrameReader(strings.NewReader("data: ok\xff\xfe\n"))
	_, err := r.Next()
	if err == nil {
		t.Fatal("Next() = nil error, want transport error for invalid UTF-8")
	}
}

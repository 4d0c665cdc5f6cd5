// Package server frames a byte stream into newline-terminated protocol lines.
package server

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// DefaultMaxLineBytes is the per-line byte cap, terminator excluded.
const DefaultMaxLineBytes = 1024

// LineReader reads newline-terminated lines from r. Partial lines stay
// buffered between calls, so a slow peer can deliver one line in pieces.
type LineReader struct {
	r   *bufio.Reader
	max int
}

// NewLineReader wraps r. A line longer than max bytes fails with
// ErrLineTooLong as soon as max+1 bytes without a terminator are buffered.
func NewLineReader(r io.Reader, max int) *LineReader {
	if max <= 0 {
		max = DefaultMaxLineBytes
	}
	return &LineReader{r: bufio.NewReaderSize(r, max+1), max: max}
}

// ReadLine returns the next line with its "\n" (and an optional preceding
// "\r") removed. The returned slice is owned by the caller.
//
// io.EOF means the peer closed cleanly between lines; io.ErrUnexpectedEOF
// means it closed mid-line.
func (lr *LineReader) ReadLine() ([]byte, error) {
	for {
		// bufio never buffers fewer than 16 bytes, so the cap is checked
		// against what is buffered rather than the buffer size.
		buf, _ := lr.r.Peek(lr.r.Buffered())
		window := buf[:min(len(buf), lr.max+1)]

		if i := bytes.IndexByte(window, '\n'); i >= 0 {
			line := bytes.TrimSuffix(window[:i], []byte{'\r'})
			out := make([]byte, len(line))
			copy(out, line)
			_, _ = lr.r.Discard(i + 1)
			return out, nil
		}
		if len(buf) > lr.max {
			return nil, ErrLineTooLong
		}

		// Block until at least one more byte arrives.
		if _, err := lr.r.Peek(len(buf) + 1); err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}

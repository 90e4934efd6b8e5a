package monitor

import (
	"bytes"
	"strings"
	"time"
)

// LineBuffer splits a byte stream into lines. Serial reads are not line aligned, so
// bytes after the last newline are held until the rest of the line arrives or the
// buffer is flushed.
type LineBuffer struct {
	partial []byte
	max     int
	since   time.Time
	now     func() time.Time
}

// NewLineBuffer returns a buffer that emits a line once it reaches max bytes even
// without a terminator. max <= 0 means no limit.
func NewLineBuffer(max int) *LineBuffer {
	return &LineBuffer{max: max, now: time.Now}
}

// Feed appends chunk and returns the lines it completes, without terminators. A
// trailing carriage return is dropped and invalid UTF-8 is replaced.
func (b *LineBuffer) Feed(chunk []byte) []string {
	var lines []string
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			b.since = b.now()
			b.partial = append(b.partial, chunk...)
			if b.max > 0 && len(b.partial) >= b.max {
				lines = append(lines, decode(b.take()))
			}
			return lines
		}
		b.partial = append(b.partial, chunk[:i]...)
		lines = append(lines, decode(b.take()))
		chunk = chunk[i+1:]
	}
	return lines
}

// Flush returns the partial line and clears the buffer. ok is false when nothing was
// buffered.
func (b *LineBuffer) Flush() (line string, ok bool) {
	if len(b.partial) == 0 {
		return "", false
	}
	return decode(b.take()), true
}

// Pending returns the number of buffered bytes.
func (b *LineBuffer) Pending() int {
	return len(b.partial)
}

// Age returns how long ago the last fragment of the partial line arrived, zero when
// nothing is buffered.
func (b *LineBuffer) Age() time.Duration {
	if len(b.partial) == 0 {
		return 0
	}
	return b.now().Sub(b.since)
}

func (b *LineBuffer) take() []byte {
	line := b.partial
	b.partial = nil
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}

func decode(p []byte) string {
	return strings.ToValidUTF8(string(p), "\uFFFD")
}

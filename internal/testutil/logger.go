package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// NewTestLogger creates a test logger that discards output.
func NewTestLogger(t testing.TB) zerolog.Logger {
	t.Helper()
	return zerolog.New(io.Discard).With().Timestamp().Logger()
}

// NewTestLoggerWithOutput creates a test logger that logs to t.Log().
func NewTestLoggerWithOutput(t testing.TB) zerolog.Logger {
	t.Helper()
	return zerolog.New(&testLogWriter{t: t}).With().Timestamp().Logger()
}

type testLogWriter struct {
	t testing.TB
}

func (w *testLogWriter) Write(p []byte) (n int, err error) {
	w.t.Log(string(p))
	return len(p), nil
}

// LogEntry is one decoded record captured by a LogRecorder.
type LogEntry struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Component string `json:"component"`
	Error     string `json:"error"`
}

// LogRecorder captures JSON log records so tests can assert on warnings the
// session emits. It is safe for use from the loop's goroutines.
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLogRecorder returns a recorder and a Debug-level logger writing into it.
func NewLogRecorder(t testing.TB) (*LogRecorder, zerolog.Logger) {
	t.Helper()
	r := &LogRecorder{}
	return r, zerolog.New(r).Level(zerolog.DebugLevel)
}

func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// Entries decodes every record written so far. Lines that are not JSON are skipped.
func (r *LogRecorder) Entries() []LogEntry {
	r.mu.Lock()
	data := append([]byte(nil), r.buf.Bytes()...)
	r.mu.Unlock()

	var entries []LogEntry
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal(line, &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

// Has reports whether a record with the given level and message was written.
func (r *LogRecorder) Has(level zerolog.Level, message string) bool {
	for _, e := range r.Entries() {
		if e.Level == level.String() && e.Message == message {
			return true
		}
	}
	return false
}

package serial

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"
)

var errMockClosed = errors.New("mock port closed")

// mockRead is one scripted Read result.
type mockRead struct {
	data []byte
	err  error
}

// mockPort implements Port with scripted reads and recorded control-line changes.
type mockPort struct {
	mu      sync.Mutex
	reads   []mockRead
	written bytes.Buffer
	ops     []string
	closed  bool
	timeout time.Duration
	lineErr error
}

func newMockPort(reads ...mockRead) *mockPort {
	return &mockPort{reads: reads}
}

func (m *mockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, errMockClosed
	}
	if len(m.reads) == 0 {
		timeout := min(m.timeout, time.Millisecond)
		m.mu.Unlock()
		time.Sleep(timeout)
		return 0, nil
	}
	r := m.reads[0]
	n := copy(p, r.data)
	if n < len(r.data) {
		m.reads[0].data = r.data[n:]
		m.mu.Unlock()
		return n, nil
	}
	m.reads = m.reads[1:]
	m.mu.Unlock()
	return n, r.err
}

func (m *mockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, errMockClosed
	}
	return m.written.Write(p)
}

func (m *mockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockPort) SetDTR(level bool) error {
	return m.record("DTR", level)
}

func (m *mockPort) SetRTS(level bool) error {
	return m.record("RTS", level)
}

func (m *mockPort) record(line string, level bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lineErr != nil {
		return m.lineErr
	}
	m.ops = append(m.ops, fmt.Sprintf("%s=%t", line, level))
	return nil
}

func (m *mockPort) SetReadTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

func (m *mockPort) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

func (m *mockPort) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// mockOpener hands out scripted open results in order and fails with ErrPortNotFound
// once they run out.
type mockOpener struct {
	mu      sync.Mutex
	results []openResult
	calls   int
}

type openResult struct {
	port *mockPort
	err  error
}

func (o *mockOpener) open(name string, baud int) (Port, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if len(o.results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPortNotFound, name)
	}
	r := o.results[0]
	o.results = o.results[1:]
	if r.err != nil {
		return nil, r.err
	}
	return r.port, nil
}

func (o *mockOpener) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

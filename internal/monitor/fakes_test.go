package monitor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/coral-mesh/mcumon/internal/serial"
)

type chunk struct {
	data string
	err  error
}

// fakeConn implements Conn with scripted chunks. Chunks queued by afterReset and
// afterReconnect become readable only once that event has happened.
type fakeConn struct {
	mu             sync.Mutex
	chunks         []chunk
	connected      bool
	closed         bool
	resets         int
	written        []byte
	reconnectErrs  []error
	reconnects     int
	afterReset     []chunk
	afterReconnect []chunk
}

func newFakeConn(chunks ...chunk) *fakeConn {
	return &fakeConn{chunks: chunks, connected: true}
}

func (c *fakeConn) ReadChunk(buf []byte) (int, error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return 0, serial.ErrDisconnected
	}
	if len(c.chunks) == 0 {
		c.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	next := c.chunks[0]
	c.chunks = c.chunks[1:]
	n := copy(buf, next.data)
	if next.err != nil {
		c.connected = false
		c.mu.Unlock()
		return n, fmt.Errorf("%w: %w", serial.ErrDisconnected, next.err)
	}
	c.mu.Unlock()
	return n, nil
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, p...)
	return len(p), nil
}

func (c *fakeConn) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
	c.chunks = append(c.chunks, c.afterReset...)
	c.afterReset = nil
	return nil
}

func (c *fakeConn) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnects++
	if len(c.reconnectErrs) > 0 {
		err := c.reconnectErrs[0]
		c.reconnectErrs = c.reconnectErrs[1:]
		return err
	}
	c.connected = true
	c.chunks = append(c.chunks, c.afterReconnect...)
	c.afterReconnect = nil
	return nil
}

func (c *fakeConn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.connected = false
	return nil
}

func (c *fakeConn) snapshot() (resets int, written string, closed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resets, string(c.written), c.closed
}

// recordingDisplay keeps every write as "line:<text>" or "status:<text>".
type recordingDisplay struct {
	mu     sync.Mutex
	events []string
}

func (d *recordingDisplay) WriteLine(line string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, "line:"+line)
	return nil
}

func (d *recordingDisplay) Status(msg string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, "status:"+msg)
	return nil
}

func (d *recordingDisplay) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

func (d *recordingDisplay) has(event string) bool {
	for _, e := range d.Events() {
		if e == event {
			return true
		}
	}
	return false
}

// chanKeys delivers bytes pushed by the test. Closing the channel ends the input.
type chanKeys struct {
	ch chan byte
}

func newChanKeys() *chanKeys {
	return &chanKeys{ch: make(chan byte, 16)}
}

func (k *chanKeys) ReadKey(timeout time.Duration) (byte, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case b, ok := <-k.ch:
		if !ok {
			return 0, false, io.EOF
		}
		return b, true, nil
	case <-timer.C:
		return 0, false, nil
	}
}

const (
	keyReset = 0x12
	keyQuit  = 0x03
)

type testDecoder struct{}

func (testDecoder) Decode(b byte) Command {
	switch b {
	case keyReset:
		return Reset()
	case keyQuit:
		return Quit()
	default:
		return Passthrough(b)
	}
}

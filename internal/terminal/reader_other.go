//go:build !unix

package terminal

import (
	"os"
	"time"
)

type keyResult struct {
	b   byte
	err error
}

// chanSource reads stdin from a background goroutine. Console handles cannot be
// polled, so the goroutine may stay blocked in Read until the process exits.
type chanSource struct {
	ch   chan keyResult
	done chan struct{}
}

func newByteSource(f *os.File) byteSource {
	s := &chanSource{ch: make(chan keyResult), done: make(chan struct{})}
	go func() {
		for {
			b, err := readOne(f)
			select {
			case s.ch <- keyResult{b: b, err: err}:
			case <-s.done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return s
}

func (s *chanSource) readByte(timeout time.Duration) (byte, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-s.ch:
		if r.err != nil {
			return 0, false, r.err
		}
		return r.b, true, nil
	case <-timer.C:
		return 0, false, nil
	}
}

func (s *chanSource) close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

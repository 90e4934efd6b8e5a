//go:build unix

package terminal

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// pollSource waits for input with poll(2) and reads only when a byte is ready, so
// nothing is left blocked on stdin when the session ends.
type pollSource struct {
	f  *os.File
	fd int32
}

func newByteSource(f *os.File) byteSource {
	return &pollSource{f: f, fd: int32(f.Fd())} // #nosec G115: file descriptors fit in int32
}

func (p *pollSource) readByte(timeout time.Duration) (byte, bool, error) {
	fds := []unix.PollFd{{Fd: p.fd, Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, int(timeout.Milliseconds()))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, false, err
		}
		if n == 0 {
			return 0, false, nil
		}
		// POLLHUP without data reads as end of input.
		b, err := readOne(p.f)
		if err != nil {
			return 0, false, err
		}
		return b, true, nil
	}
}

func (p *pollSource) close() {}

package terminal

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// Keyboard reads key presses from stdin. When stdin is a terminal it is switched to raw
// mode so control keys arrive as bytes instead of signals; Close restores it.
type Keyboard struct {
	in    *os.File
	fd    int
	state *term.State
	src   byteSource
}

// byteSource reads one byte, waiting at most timeout.
type byteSource interface {
	readByte(timeout time.Duration) (byte, bool, error)
	close()
}

// OpenKeyboard prepares in for key reads. Raw mode is only entered when in is a
// terminal; otherwise bytes are read as they come and end of input ends the session.
func OpenKeyboard(in *os.File) (*Keyboard, error) {
	fd := int(in.Fd()) // #nosec G115: file descriptors fit in int
	k := &Keyboard{in: in, fd: fd}

	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("failed to set terminal to raw mode: %w", err)
		}
		k.state = state
	}
	k.src = newByteSource(in)
	return k, nil
}

// Raw reports whether the terminal is in raw mode.
func (k *Keyboard) Raw() bool {
	return k.state != nil
}

// ReadKey waits up to timeout for a key. It returns io.EOF once stdin is closed.
func (k *Keyboard) ReadKey(timeout time.Duration) (byte, bool, error) {
	return k.src.readByte(timeout)
}

// Close restores the terminal state. It is safe to call more than once.
func (k *Keyboard) Close() error {
	k.src.close()
	if k.state == nil {
		return nil
	}
	state := k.state
	k.state = nil
	return term.Restore(k.fd, state)
}

func readOne(r io.Reader) (byte, error) {
	var b [1]byte
	n, err := r.Read(b[:])
	if n == 1 {
		return b[0], nil
	}
	if err == nil {
		err = io.EOF
	}
	return 0, err
}

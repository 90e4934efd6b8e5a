package serial

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"syscall"
	"time"

	bugst "go.bug.st/serial"
)

// Port is an open serial device.
type Port interface {
	io.ReadWriteCloser
	SetDTR(level bool) error
	SetRTS(level bool) error
	// SetReadTimeout bounds Read; a read that times out returns (0, nil).
	SetReadTimeout(timeout time.Duration) error
}

// Opener opens a port at the given baud rate.
type Opener func(name string, baud int) (Port, error)

// OpenPort opens a real serial device as 8N1 with both control lines released, so
// opening the port does not by itself reset the device.
func OpenPort(name string, baud int) (Port, error) {
	p, err := bugst.Open(name, &bugst.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
		InitialStatusBits: &bugst.ModemOutputBits{
			DTR: false,
			RTS: false,
		},
	})
	if err != nil {
		return nil, classifyOpenError(name, err)
	}
	return p, nil
}

func classifyOpenError(name string, err error) error {
	var portErr *bugst.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case bugst.PortNotFound, bugst.InvalidSerialPort:
			return fmt.Errorf("%w: %s: %w", ErrPortNotFound, name, err)
		case bugst.InvalidSpeed:
			return fmt.Errorf("%w: %w", ErrInvalidBaud, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrPortUnavailable, name, err)
	}

	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return fmt.Errorf("%w: %s: %w", ErrPortNotFound, name, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrPortUnavailable, name, err)
	}
}

// permissionDenied reports whether an open failed because the user may not access
// the device.
func permissionDenied(err error) bool {
	var portErr *bugst.PortError
	if errors.As(err, &portErr) && portErr.Code() == bugst.PermissionDenied {
		return true
	}
	return errors.Is(err, fs.ErrPermission)
}

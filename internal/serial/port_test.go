package serial

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	bugst "go.bug.st/serial"
)

func TestOpenPort_Missing(t *testing.T) {
	_, err := OpenPort(filepath.Join(t.TempDir(), "ttyUSB9"), 115200)

	assert.ErrorIs(t, err, ErrPortNotFound)
}

func TestClassifyOpenError(t *testing.T) {
	assert.ErrorIs(t, classifyOpenError("/dev/x", fmt.Errorf("open: %w", fs.ErrNotExist)), ErrPortNotFound)
	assert.ErrorIs(t, classifyOpenError("/dev/x", fs.ErrPermission), ErrPortUnavailable)
	assert.ErrorIs(t, classifyOpenError("/dev/x", errors.New("device busy")), ErrPortUnavailable)
}

func TestPermissionDenied(t *testing.T) {
	assert.True(t, permissionDenied(classifyOpenError("/dev/x", fs.ErrPermission)))
	assert.False(t, permissionDenied(&bugst.PortError{}))
	assert.False(t, permissionDenied(classifyOpenError("/dev/x", errors.New("device busy"))))
}

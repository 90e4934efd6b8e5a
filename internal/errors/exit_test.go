package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	base := errors.New("port /dev/ttyUSB9 not found")

	tests := []struct {
		name string
		err  error
		want ExitCode
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "uncategorized", err: base, want: ExitFailure},
		{name: "categorized", err: WithExitCode(ExitPortNotFound, base), want: ExitPortNotFound},
		{
			name: "wrapped categorized",
			err:  fmt.Errorf("monitor: %w", WithExitCode(ExitImageUnreadable, base)),
			want: ExitImageUnreadable,
		},
		{name: "canceled", err: fmt.Errorf("loop: %w", context.Canceled), want: ExitInterrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestWithExitCode(t *testing.T) {
	assert.NoError(t, WithExitCode(ExitHookFailed, nil))

	base := errors.New("build failed")
	err := WithExitCode(ExitHookFailed, base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "build failed", err.Error())
}

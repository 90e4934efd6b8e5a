// Package hook runs the optional build or flash command that must succeed before the
// serial port is opened.
package hook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrHookFailed is returned when the command exits unsuccessfully or cannot start.
var ErrHookFailed = errors.New("pre-session hook failed")

// shell returns the interpreter used for command.
func shell(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "sh", []string{"-c", command}
}

// Run executes command through the system shell with its output attached to stdout
// and stderr. An empty command does nothing.
func Run(ctx context.Context, command string, stdout, stderr io.Writer, logger zerolog.Logger) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}
	logger = logger.With().Str("component", "hook").Logger()

	name, args := shell(command)
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204: the command is user configuration.
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Info().Str("command", command).Msg("Running pre-session hook")
	start := time.Now()

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %q exited with status %d", ErrHookFailed, command, exitErr.ExitCode())
		}
		return fmt.Errorf("%w: %q: %w", ErrHookFailed, command, err)
	}

	logger.Debug().Dur("duration", time.Since(start)).Msg("Pre-session hook finished")
	return nil
}

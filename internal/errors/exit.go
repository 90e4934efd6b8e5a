package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// ExitCode is the process exit status for a category of fatal condition.
type ExitCode int

const (
	ExitOK ExitCode = 0
	// ExitFailure covers fatal conditions without a more specific category.
	ExitFailure ExitCode = 1
	// ExitInvalidArgument covers bad flags, bad configuration and invalid baud rates.
	ExitInvalidArgument ExitCode = 2
	// ExitPortNotFound is returned when the named serial port does not exist.
	ExitPortNotFound ExitCode = 3
	// ExitImageUnreadable is returned when a firmware image path was given but cannot be opened.
	ExitImageUnreadable ExitCode = 4
	// ExitHookFailed is returned when the pre-session hook reports failure.
	ExitHookFailed ExitCode = 5
	// ExitInterrupted follows the shell convention of 128 + SIGINT.
	ExitInterrupted ExitCode = 130
)

// ExitError attaches an exit category to a fatal error.
type ExitError struct {
	Code ExitCode
	Err  error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// WithExitCode wraps err so that the process exits with code. A nil err stays nil.
func WithExitCode(code ExitCode, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// CodeOf returns the exit code carried by err. Errors without a category map to
// ExitFailure, context cancellation maps to ExitInterrupted.
func CodeOf(err error) ExitCode {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.Code
	}
	if stderrors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	return ExitFailure
}

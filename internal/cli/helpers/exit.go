package helpers

import (
	"errors"

	mcuerrors "github.com/coral-mesh/mcumon/internal/errors"
	"github.com/coral-mesh/mcumon/internal/hook"
	"github.com/coral-mesh/mcumon/internal/serial"
	"github.com/coral-mesh/mcumon/internal/symbols"
)

// Classify attaches the exit category of a fatal error. Errors that already carry one
// are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *mcuerrors.ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	switch {
	case errors.Is(err, serial.ErrPortNotFound):
		return mcuerrors.WithExitCode(mcuerrors.ExitPortNotFound, err)
	case errors.Is(err, serial.ErrInvalidBaud),
		errors.Is(err, serial.ErrUnknownChip),
		errors.Is(err, serial.ErrAmbiguousPort):
		return mcuerrors.WithExitCode(mcuerrors.ExitInvalidArgument, err)
	case errors.Is(err, symbols.ErrImageUnreadable):
		return mcuerrors.WithExitCode(mcuerrors.ExitImageUnreadable, err)
	case errors.Is(err, hook.ErrHookFailed):
		return mcuerrors.WithExitCode(mcuerrors.ExitHookFailed, err)
	}
	return err
}

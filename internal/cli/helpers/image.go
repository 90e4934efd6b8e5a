package helpers

import (
	"github.com/rs/zerolog"

	"github.com/coral-mesh/mcumon/internal/cargo"
	"github.com/coral-mesh/mcumon/internal/config"
	mcuerrors "github.com/coral-mesh/mcumon/internal/errors"
)

// ResolveImage fills cfg.Symbols.ELF from the cargo project when cargo.enabled is set
// and no image was given. A project that cannot be resolved is an invalid argument.
func ResolveImage(cfg *config.MonitorConfig, logger zerolog.Logger) error {
	if !cfg.Cargo.Enabled || cfg.Symbols.ELF != "" {
		return nil
	}

	img, err := cargo.Resolve(cargo.Options{
		Dir:       cfg.Cargo.Dir,
		Chip:      cfg.Serial.Chip,
		Framework: cfg.Cargo.Framework,
		Target:    cfg.Cargo.Target,
		Release:   cfg.Cargo.Release,
		Example:   cfg.Cargo.Example,
	})
	if err != nil {
		return mcuerrors.WithExitCode(mcuerrors.ExitInvalidArgument, err)
	}

	logger.Info().
		Str("image", img.Path).
		Str("package", img.Package).
		Str("target", img.Target).
		Str("framework", string(img.Framework)).
		Str("profile", img.Profile).
		Msg("Resolved firmware image from cargo project")

	cfg.Symbols.ELF = img.Path
	return nil
}

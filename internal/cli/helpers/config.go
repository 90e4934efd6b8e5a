package helpers

import (
	"github.com/spf13/cobra"

	"github.com/coral-mesh/mcumon/internal/config"
	mcuerrors "github.com/coral-mesh/mcumon/internal/errors"
)

// ConfigPath returns the config file for cmd and whether it must exist. A path given
// with --config must exist; the default location is optional.
func ConfigPath(cmd *cobra.Command) (string, bool) {
	if f := cmd.Flags().Lookup(FlagConfig); f != nil && f.Value.String() != "" {
		return f.Value.String(), true
	}
	return config.NewLoader().ConfigPath(), false
}

// LoadConfig resolves the effective configuration for cmd from defaults, the config
// file, MCUMON_* variables and the flags set on the command line, then validates it.
// Failures carry ExitInvalidArgument.
func LoadConfig(cmd *cobra.Command) (*config.MonitorConfig, error) {
	path, required := ConfigPath(cmd)

	cfg, err := config.NewLayeredLoader().Load(path, required, cmd.Flags())
	if err != nil {
		return nil, mcuerrors.WithExitCode(mcuerrors.ExitInvalidArgument, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, mcuerrors.WithExitCode(mcuerrors.ExitInvalidArgument, err)
	}
	return cfg, nil
}

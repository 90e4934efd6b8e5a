// Package config implements the 'mcumon config' command family.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/mcumon/internal/cli/helpers"
	"github.com/coral-mesh/mcumon/internal/config"
	mcuerrors "github.com/coral-mesh/mcumon/internal/errors"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mcumon configuration",
		Long: `Manage mcumon configuration.

Configuration Priority (later wins):
  1. Built-in defaults
  2. Config file (~/.mcumon/config.yaml, or --config PATH)
  3. MCUMON_* environment variables
  4. Command-line flags

Environment Variables:
  MCUMON_CONFIG   Override the directory holding .mcumon/config.yaml (default: home)`,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newViewCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newPathCmd())

	return cmd
}

// newInitCmd creates the 'config init' command.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), config.NewLoader(), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func runInit(out io.Writer, loader *config.Loader, force bool) error {
	path := loader.ConfigPath()
	if loader.Exists() && !force {
		return mcuerrors.WithExitCode(mcuerrors.ExitInvalidArgument,
			fmt.Errorf("%s already exists, use --force to overwrite it", path))
	}

	if err := loader.Save(config.DefaultMonitorConfig()); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "Wrote %s\n", path)
	return err
}

// newViewCmd creates the 'config view' command.
func newViewCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show the effective configuration",
		Long: `Display the configuration after defaults, the config file and MCUMON_*
environment variables are merged. The result is not validated; use 'config validate'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, viewFormats); err != nil {
				return err
			}
			path, required := helpers.ConfigPath(cmd)
			cfg, err := config.NewLayeredLoader().Load(path, required, nil)
			if err != nil {
				return mcuerrors.WithExitCode(mcuerrors.ExitInvalidArgument, err)
			}

			formatter, err := helpers.NewFormatter(helpers.OutputFormat(format))
			if err != nil {
				return err
			}
			return formatter.Format(cfg, cmd.OutOrStdout())
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatYAML, viewFormats)

	return cmd
}

var viewFormats = []helpers.OutputFormat{helpers.FormatYAML, helpers.FormatJSON}

// validationRow is one reported problem.
type validationRow struct {
	Field   string `header:"FIELD" json:"field"`
	Message string `header:"PROBLEM" json:"message"`
}

// newValidateCmd creates the 'config validate' command.
func newValidateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Long: `Validate the merged configuration and report every problem found.

Checks:
- baud is a standard rate
- chip names a known reset sequence
- key bindings parse and differ
- timeouts are positive
- demangle style and log level are known`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, validateFormats); err != nil {
				return err
			}
			path, required := helpers.ConfigPath(cmd)
			return runValidate(cmd.OutOrStdout(), path, required, helpers.OutputFormat(format))
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, validateFormats)

	return cmd
}

var validateFormats = []helpers.OutputFormat{helpers.FormatTable, helpers.FormatJSON}

func runValidate(out io.Writer, path string, required bool, format helpers.OutputFormat) error {
	cfg, err := config.NewLayeredLoader().Load(path, required, nil)
	if err != nil {
		return mcuerrors.WithExitCode(mcuerrors.ExitInvalidArgument, err)
	}

	rows := []validationRow{}
	verr := cfg.Validate()
	var multi *config.MultiValidationError
	if errors.As(verr, &multi) {
		for _, e := range multi.Errors {
			rows = append(rows, validationRow{Field: e.Field, Message: e.Message})
		}
	}

	if format == helpers.FormatTable && len(rows) == 0 {
		if _, err := os.Stat(path); err != nil {
			_, err = fmt.Fprintln(out, "✓ Defaults are valid (no config file)")
			return err
		}
		_, err := fmt.Fprintf(out, "✓ %s is valid\n", path)
		return err
	}

	formatter, err := helpers.NewFormatter(format)
	if err != nil {
		return err
	}
	if err := formatter.Format(rows, out); err != nil {
		return err
	}
	if len(rows) > 0 {
		return mcuerrors.WithExitCode(mcuerrors.ExitInvalidArgument,
			fmt.Errorf("configuration has %d problem(s)", len(rows)))
	}
	return nil
}

// newPathCmd creates the 'config path' command.
func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := helpers.ConfigPath(cmd)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}

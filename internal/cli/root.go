package cli

import (
	"github.com/spf13/cobra"

	configcmd "github.com/coral-mesh/mcumon/internal/cli/config"
	"github.com/coral-mesh/mcumon/internal/cli/helpers"
	"github.com/coral-mesh/mcumon/internal/cli/monitor"
	"github.com/coral-mesh/mcumon/internal/cli/ports"
	"github.com/coral-mesh/mcumon/internal/cli/symbolize"
	"github.com/coral-mesh/mcumon/internal/config"
	"github.com/coral-mesh/mcumon/pkg/version"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mcumon",
		Short: "mcumon - serial monitor that symbolizes firmware crash dumps",
		Long: `Watch a microcontroller's serial console with every code address annotated.

Addresses printed by the firmware (panic registers, backtraces, stack dumps) are
resolved against the debug information of the firmware image and shown with the
function and source line they belong to:

  Backtrace: 0x400d1c2a <app_main at main/app.c:42>:0x3ffb5f10

Key capabilities:
- Device reset from the keyboard (ESP32 auto-reset, DTR pulse)
- Survives the device disappearing and coming back (USB re-enumeration)
- Optional build/flash hook before the session starts
- Offline annotation of saved logs`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(helpers.FlagConfig, "", "Config file (default ~/.mcumon/config.yaml)")
	rootCmd.PersistentFlags().String(config.FlagLogLevel, "", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(monitor.NewMonitorCmd())
	rootCmd.AddCommand(symbolize.NewSymbolizeCmd())
	rootCmd.AddCommand(ports.NewPortsCmd())
	rootCmd.AddCommand(configcmd.NewConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("mcumon version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

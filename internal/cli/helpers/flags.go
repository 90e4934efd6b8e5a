package helpers

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/mcumon/internal/cargo"
	"github.com/coral-mesh/mcumon/internal/config"
	"github.com/coral-mesh/mcumon/internal/serial"
	"github.com/coral-mesh/mcumon/internal/symbols"
)

// FlagConfig names the persistent --config flag.
const FlagConfig = "config"

// AddFormatFlag adds a standard --format/-o flag to a command.
// Validates that the format is in the supportedFormats list.
func AddFormatFlag(cmd *cobra.Command, formatVar *string, defaultFormat OutputFormat, supportedFormats []OutputFormat) {
	formatNames := make([]string, len(supportedFormats))
	for i, f := range supportedFormats {
		formatNames[i] = string(f)
	}

	description := fmt.Sprintf("Output format (%s)", strings.Join(formatNames, ", "))
	cmd.Flags().StringVarP(formatVar, "format", "o", string(defaultFormat), description)

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return formatNames, cobra.ShellCompDirectiveNoFileComp
	})
}

// AddSymbolFlags adds the flags that control annotation: --elf, --demangle,
// --mark-unresolved and --short-paths. Their values are read back through the
// configuration layers, so the defaults shown here are only documentation.
func AddSymbolFlags(cmd *cobra.Command) {
	defaults := config.DefaultMonitorConfig().Symbols

	styles := make([]string, len(symbols.DemangleStyles))
	for i, s := range symbols.DemangleStyles {
		styles[i] = string(s)
	}

	cmd.Flags().StringP(config.FlagELF, "e", "", "Firmware image with debug information (ELF)")
	cmd.Flags().String(config.FlagDemangle, defaults.Demangle,
		fmt.Sprintf("Symbol name rendering (%s)", strings.Join(styles, ", ")))
	cmd.Flags().Bool(config.FlagMarkUnresolved, defaults.MarkUnresolved, "Mark addresses outside every function with <??>")
	cmd.Flags().Bool(config.FlagShortPaths, defaults.ShortPaths, "Show source file base names only")

	_ = cmd.MarkFlagFilename(config.FlagELF, "elf", "out", "axf")
	_ = cmd.RegisterFlagCompletionFunc(config.FlagDemangle, func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return styles, cobra.ShellCompDirectiveNoFileComp
	})
}

// AddSerialFlags adds --port, --baud, --chip and --no-reset.
func AddSerialFlags(cmd *cobra.Command) {
	defaults := config.DefaultMonitorConfig().Serial

	cmd.Flags().StringP(config.FlagPort, "p", "", "Serial port (auto-detected when a single USB serial port is present)")
	cmd.Flags().IntP(config.FlagBaud, "b", defaults.Baud, "Baud rate")
	cmd.Flags().String(config.FlagChip, defaults.Chip,
		fmt.Sprintf("Reset sequence (%s)", strings.Join(serial.FamilyNames(), ", ")))
	cmd.Flags().Bool(config.FlagNoReset, false, "Do not reset the device when the session starts")

	_ = cmd.RegisterFlagCompletionFunc(config.FlagPort, func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		ports, err := serial.ListPorts()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		names := make([]string, len(ports))
		for i, p := range ports {
			names[i] = p.Name
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc(config.FlagChip, func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return serial.FamilyNames(), cobra.ShellCompDirectiveNoFileComp
	})
}

// ValidateFormat checks if the format is in the supported list.
func ValidateFormat(format string, supported []OutputFormat) error {
	for _, s := range supported {
		if format == string(s) {
			return nil
		}
	}

	supportedNames := make([]string, len(supported))
	for i, s := range supported {
		supportedNames[i] = string(s)
	}

	return fmt.Errorf("unsupported format %q, must be one of: %s",
		format, strings.Join(supportedNames, ", "))
}

// AddCargoFlags adds --cargo and the flags that pick the artifact of a Rust project:
// --release, --example, --framework and --target.
func AddCargoFlags(cmd *cobra.Command) {
	cmd.Flags().Bool(config.FlagCargo, false, "Annotate with the image cargo builds for this project (when --elf is not given)")
	cmd.Flags().Bool(config.FlagRelease, false, "With --cargo, use the release profile")
	cmd.Flags().String(config.FlagExample, "", "With --cargo, use the named example")
	cmd.Flags().String(config.FlagFramework, "", "With --cargo, baremetal or esp-idf (default: from the target)")
	cmd.Flags().String(config.FlagTarget, "", "With --cargo, the Rust target triple (default: .cargo/config.toml, then --chip)")

	_ = cmd.RegisterFlagCompletionFunc(config.FlagFramework, func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(cargo.Baremetal), string(cargo.ESPIDF)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc(config.FlagTarget, func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var triples []string
		for _, chip := range cargo.Chips() {
			for _, fw := range []cargo.Framework{cargo.Baremetal, cargo.ESPIDF} {
				if t, err := cargo.Target(chip, fw); err == nil {
					triples = append(triples, t)
				}
			}
		}
		return triples, cobra.ShellCompDirectiveNoFileComp
	})
}

// Package monitor implements the 'mcumon monitor' command: it resolves the
// configuration, runs the pre-session hook, loads the firmware symbols and drives an
// interactive session against the device.
package monitor

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/coral-mesh/mcumon/internal/annotate"
	"github.com/coral-mesh/mcumon/internal/cli/helpers"
	"github.com/coral-mesh/mcumon/internal/config"
	"github.com/coral-mesh/mcumon/internal/constants"
	mcuerrors "github.com/coral-mesh/mcumon/internal/errors"
	"github.com/coral-mesh/mcumon/internal/hook"
	"github.com/coral-mesh/mcumon/internal/logging"
	session "github.com/coral-mesh/mcumon/internal/monitor"
	"github.com/coral-mesh/mcumon/internal/serial"
	"github.com/coral-mesh/mcumon/internal/symbols"
	"github.com/coral-mesh/mcumon/internal/terminal"
)

// NewMonitorCmd creates the monitor command.
func NewMonitorCmd() *cobra.Command {
	var nonInteractive bool

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Open an annotated serial console to the device",
		Long: `Open a serial console to a microcontroller.

Every hexadecimal address printed by the firmware is annotated with the function and
source line it belongs to, using the debug information of the firmware image:

  Guru Meditation Error: Core 0 panic'ed (LoadProhibited)
  PC      : 0x400d1c2a <app_main at main/app.c:42>

Default keys (see keys.reset and keys.quit in the config file):
  Ctrl+R  reset the device
  Ctrl+C  quit

Other keys are sent to the device with --forward-input (keys.forward_input).
Without --port the only USB serial port present is used.

With --cargo and no --elf, the image is the one cargo builds for the project in the
working directory: target/<triple>/<debug|release>/[examples/]<name>. The triple comes
from --target, then build.target in .cargo/config.toml, then --chip and --framework.`,
		Example: `  mcumon monitor --elf build/app.elf
  mcumon monitor -p /dev/ttyUSB0 -b 921600 --chip esp32-usb-jtag --elf build/app.elf
  mcumon monitor --before "idf.py flash" --elf build/app.elf
  mcumon monitor --before "cargo espflash flash --release" --cargo --release --chip esp32c3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := &runner{
				cfg:            cfg,
				nonInteractive: nonInteractive,
				stdin:          os.Stdin,
				stdout:         os.Stdout,
				stderr:         os.Stderr,
			}
			return helpers.Classify(r.run(ctx))
		},
	}

	helpers.AddSerialFlags(cmd)
	helpers.AddSymbolFlags(cmd)
	helpers.AddCargoFlags(cmd)
	cmd.Flags().Bool(config.FlagForwardInput, false, "Send keys other than the bindings to the device")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Do not read the keyboard; run until interrupted")
	cmd.Flags().String(config.FlagBefore, "", "Shell command to run before the port is opened (build, flash)")

	return cmd
}

// runner holds one monitor invocation.
type runner struct {
	cfg            *config.MonitorConfig
	nonInteractive bool

	stdin  *os.File
	stdout io.Writer
	stderr io.Writer

	// opener replaces the serial backend in tests.
	opener serial.Opener
}

func (r *runner) logger(out io.Writer) zerolog.Logger {
	return logging.New(logging.Config{
		Level:   r.cfg.Logging.Level,
		Pretty:  r.cfg.Logging.Pretty,
		NoColor: !isTerminal(r.stderr),
		Output:  out,
	})
}

func (r *runner) run(ctx context.Context) error {
	cfg := r.cfg
	sessionID := uuid.NewString()
	logger := r.logger(r.stderr).With().Str("session_id", sessionID).Logger()

	// Hook output goes to stderr so that stdout only carries device output.
	if err := hook.Run(ctx, cfg.Hook.Before, r.stderr, r.stderr, logger); err != nil {
		return err
	}
	if err := helpers.ResolveImage(cfg, logger); err != nil {
		return err
	}

	portName := cfg.Serial.Port
	if portName == "" {
		name, err := serial.Discover()
		if err != nil {
			return err
		}
		logger.Info().Str("port", name).Msg("Using discovered serial port")
		portName = name
	}

	table, err := loadSymbols(cfg.Symbols, logger)
	if err != nil {
		return err
	}

	family, err := serial.ParseFamily(cfg.Serial.Chip)
	if err != nil {
		return err
	}
	bindings, err := terminal.NewBindings(cfg.Keys.Reset, cfg.Keys.Quit)
	if err != nil {
		return mcuerrors.WithExitCode(mcuerrors.ExitInvalidArgument, err)
	}

	var keys session.KeySource
	raw := false
	if !r.nonInteractive && r.stdin != nil && term.IsTerminal(int(r.stdin.Fd())) { // #nosec G115
		kb, err := terminal.OpenKeyboard(r.stdin)
		if err != nil {
			return err
		}
		defer mcuerrors.DeferClose(logger, kb, "failed to restore terminal")
		keys = kb
		raw = kb.Raw()
	}

	if raw {
		logger = r.logger(terminal.NewCRLFWriter(r.stderr)).With().Str("session_id", sessionID).Logger()
	}

	display := terminal.NewDisplay(r.stdout, terminal.DisplayOptions{
		CRLF:  raw,
		Color: isTerminal(r.stdout),
	})
	annotator := annotate.New(table, annotate.Options{
		MarkUnresolved: cfg.Symbols.MarkUnresolved,
		ShortPaths:     cfg.Symbols.ShortPaths,
		CacheSize:      cfg.Symbols.CacheSize,
		Style:          display.AnnotationStyle(),
	})

	if err := display.Banner(portName, cfg.Serial.Baud, bindings, table.Path()); err != nil {
		return err
	}

	serialCfg := serial.Config{
		Port:        portName,
		Baud:        cfg.Serial.Baud,
		Family:      family,
		ReadTimeout: cfg.Serial.ReadTimeout,
		OpenRetries: cfg.Serial.OpenRetries,
		OpenBackoff: constants.DefaultOpenBackoff,
		Opener:      r.opener,
	}

	loop := session.New(session.Options{
		Connect: func(ctx context.Context) (session.Conn, error) {
			s, err := serial.Open(ctx, serialCfg, logger)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		Annotator:          annotator,
		Display:            display,
		Keys:               keys,
		Decoder:            bindings,
		ForwardInput:       cfg.Keys.ForwardInput,
		ResetOnConnect:     cfg.Serial.ResetOnConnect && len(family.Steps) > 0,
		ReconnectInterval:  cfg.Serial.ReconnectInterval,
		PartialLineTimeout: cfg.Serial.PartialLineTimeout,
	}, logger)

	logger.Info().
		Str("port", portName).
		Int("baud", cfg.Serial.Baud).
		Str("chip", family.Name).
		Bool("interactive", keys != nil).
		Msg("Starting monitor session")

	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info().Msg("Monitor session interrupted")
		return mcuerrors.WithExitCode(mcuerrors.ExitInterrupted, err)
	}
	if err != nil {
		return err
	}
	logger.Info().Msg("Monitor session closed")
	return nil
}

// loadSymbols loads the configured image. An image that cannot be opened is fatal; an
// image without usable debug information is reported once and the session continues
// without annotations.
func loadSymbols(cfg config.SymbolsConfig, logger zerolog.Logger) (*symbols.Table, error) {
	if cfg.ELF == "" {
		return symbols.Empty(), nil
	}

	style, err := symbols.ParseDemangleStyle(cfg.Demangle)
	if err != nil {
		return nil, mcuerrors.WithExitCode(mcuerrors.ExitInvalidArgument, err)
	}

	table, err := symbols.Load(cfg.ELF, symbols.LoadOptions{Demangle: style}, logger)
	switch {
	case err == nil:
		return table, nil
	case errors.Is(err, symbols.ErrImageUnreadable):
		return nil, err
	default:
		logger.Warn().Err(err).Str("image", cfg.ELF).Msg("Firmware symbols unavailable, addresses will not be annotated")
		return symbols.Empty(), nil
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && terminal.ColorEnabled(f)
}

// Package symbolize implements 'mcumon symbolize', which annotates a saved device log
// offline.
package symbolize

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coral-mesh/mcumon/internal/annotate"
	"github.com/coral-mesh/mcumon/internal/cli/helpers"
	"github.com/coral-mesh/mcumon/internal/config"
	"github.com/coral-mesh/mcumon/internal/constants"
	mcuerrors "github.com/coral-mesh/mcumon/internal/errors"
	"github.com/coral-mesh/mcumon/internal/logging"
	session "github.com/coral-mesh/mcumon/internal/monitor"
	"github.com/coral-mesh/mcumon/internal/symbols"
)

// NewSymbolizeCmd creates the symbolize command.
func NewSymbolizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbolize [FILE]",
		Short: "Annotate addresses in a saved log",
		Long: `Read a device log from FILE, or stdin when FILE is omitted or "-", and print it
with every address annotated from the firmware image, exactly as the monitor would.

Lines that were already annotated are left unchanged.`,
		Example: `  mcumon symbolize --elf build/app.elf crash.log
  pbpaste | mcumon symbolize --elf build/app.elf --short-paths
  mcumon symbolize --cargo --release --chip esp32c3 crash.log`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}
			logger := logging.NewWithComponent(logging.Config{
				Level:  cfg.Logging.Level,
				Pretty: cfg.Logging.Pretty,
				Output: cmd.ErrOrStderr(),
			}, "symbolize")

			if err := helpers.ResolveImage(cfg, logger); err != nil {
				return err
			}
			if cfg.Symbols.ELF == "" {
				return mcuerrors.WithExitCode(mcuerrors.ExitInvalidArgument,
					errors.New("a firmware image is required (--elf, --cargo or symbols.elf)"))
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0]) // #nosec G304: the log path is user input on purpose.
				if err != nil {
					return fmt.Errorf("failed to open log: %w", err)
				}
				defer mcuerrors.DeferClose(logger, f, "failed to close log")
				in = f
			}

			return helpers.Classify(Run(in, cmd.OutOrStdout(), cfg.Symbols, logger))
		},
	}

	helpers.AddSymbolFlags(cmd)
	helpers.AddCargoFlags(cmd)
	cmd.Flags().String(config.FlagChip, config.DefaultMonitorConfig().Serial.Chip, "With --cargo, the chip whose target triple to use")
	return cmd
}

// Run annotates every line read from in and writes it to out. The image must load: an
// offline run without symbols has nothing to add.
func Run(in io.Reader, out io.Writer, cfg config.SymbolsConfig, logger zerolog.Logger) error {
	style, err := symbols.ParseDemangleStyle(cfg.Demangle)
	if err != nil {
		return mcuerrors.WithExitCode(mcuerrors.ExitInvalidArgument, err)
	}
	table, err := symbols.Load(cfg.ELF, symbols.LoadOptions{Demangle: style}, logger)
	if err != nil {
		return err
	}

	annotator := annotate.New(table, annotate.Options{
		MarkUnresolved: cfg.MarkUnresolved,
		ShortPaths:     cfg.ShortPaths,
		CacheSize:      cfg.CacheSize,
	})
	return annotateStream(in, out, annotator)
}

func annotateStream(in io.Reader, out io.Writer, a session.Annotator) error {
	w := bufio.NewWriter(out)
	lines := session.NewLineBuffer(constants.MaxLineLength)
	buf := make([]byte, constants.DefaultReadChunkSize)

	write := func(line string) error {
		_, err := w.WriteString(a.Line(line) + "\n")
		return err
	}

	for {
		n, err := in.Read(buf)
		for _, line := range lines.Feed(buf[:n]) {
			if werr := write(line); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read log: %w", err)
		}
	}
	if line, ok := lines.Flush(); ok {
		if err := write(line); err != nil {
			return err
		}
	}
	return w.Flush()
}

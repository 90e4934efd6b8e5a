// Package ports implements 'mcumon ports', which lists the serial ports of the system.
package ports

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/mcumon/internal/cli/helpers"
	"github.com/coral-mesh/mcumon/internal/serial"
)

var supportedFormats = []helpers.OutputFormat{
	helpers.FormatTable,
	helpers.FormatJSON,
	helpers.FormatCSV,
	helpers.FormatYAML,
}

// listPorts is replaced in tests.
var listPorts = serial.ListPorts

// portRow is one line of output.
type portRow struct {
	Port   string `header:"PORT" json:"port" yaml:"port"`
	USBID  string `header:"USB ID" json:"usb_id,omitempty" yaml:"usb_id,omitempty"`
	Board  string `header:"BOARD" json:"board,omitempty" yaml:"board,omitempty"`
	Serial string `header:"SERIAL" json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
}

// NewPortsCmd creates the ports command.
func NewPortsCmd() *cobra.Command {
	var (
		format  string
		usbOnly bool
	)

	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Long: `List the serial ports of the system with the USB bridge behind each one.

'mcumon monitor' picks the port automatically when exactly one USB serial port is
listed here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, supportedFormats); err != nil {
				return err
			}
			ports, err := listPorts()
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), helpers.OutputFormat(format), rows(ports, usbOnly))
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, supportedFormats)
	cmd.Flags().BoolVar(&usbOnly, "usb", false, "Only list USB serial ports")

	return cmd
}

func rows(ports []serial.PortInfo, usbOnly bool) []portRow {
	out := make([]portRow, 0, len(ports))
	for _, p := range ports {
		if usbOnly && !p.USB {
			continue
		}
		row := portRow{
			Port:   p.Name,
			Board:  p.Board(),
			Serial: p.SerialNumber,
		}
		if p.USB && p.VID != "" {
			row.USBID = strings.ToLower(p.VID + ":" + p.PID)
		}
		out = append(out, row)
	}
	return out
}

func render(w io.Writer, format helpers.OutputFormat, rows []portRow) error {
	if format == helpers.FormatTable && len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No serial ports found.")
		return err
	}

	formatter, err := helpers.NewFormatter(format)
	if err != nil {
		return err
	}
	return formatter.Format(rows, w)
}

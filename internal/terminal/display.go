package terminal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/coral-mesh/mcumon/pkg/version"
)

// DisplayOptions controls how output is written.
type DisplayOptions struct {
	// CRLF ends lines with \r\n, needed while the terminal is in raw mode.
	CRLF bool
	// Color styles annotations and notices.
	Color bool
}

// Display is the only writer of device output. It implements monitor.Display.
type Display struct {
	out  io.Writer
	eol  string
	opts DisplayOptions

	annotation lipgloss.Style
	status     lipgloss.Style
}

// NewDisplay writes to out.
func NewDisplay(out io.Writer, opts DisplayOptions) *Display {
	r := lipgloss.NewRenderer(out)
	d := &Display{
		out:  out,
		eol:  "\n",
		opts: opts,
		annotation: r.NewStyle().
			Foreground(lipgloss.Color("11")),
		status: r.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
	if opts.CRLF {
		d.eol = "\r\n"
	}
	return d
}

// ColorEnabled reports whether f is a terminal that should receive colored output.
// NO_COLOR disables color regardless of the terminal.
func ColorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// AnnotationStyle returns the function applied to annotation insertions, nil when
// color is off.
func (d *Display) AnnotationStyle() func(string) string {
	if !d.opts.Color {
		return nil
	}
	return func(s string) string {
		return d.annotation.Render(s)
	}
}

// WriteLine writes one line of device output followed by a line terminator.
func (d *Display) WriteLine(line string) error {
	_, err := io.WriteString(d.out, line+d.eol)
	return err
}

// Status writes a session notice such as a reset or a disconnect.
func (d *Display) Status(msg string) error {
	text := "--- " + msg + " ---"
	if d.opts.Color {
		text = d.status.Render(text)
	}
	return d.WriteLine(text)
}

// Banner announces the session and its key bindings.
func (d *Display) Banner(port string, baud int, b Bindings, image string) error {
	parts := []string{fmt.Sprintf("mcumon %s on %s @ %d", version.Short(), port, baud)}
	if image != "" {
		parts = append(parts, "symbols from "+image)
	}
	parts = append(parts,
		KeyName(b.Reset)+" reset",
		KeyName(b.Quit)+" quit",
	)
	return d.Status(strings.Join(parts, " | "))
}

// CRLFWriter converts bare \n to \r\n. Logs written while the terminal is in raw mode
// go through it so they do not staircase.
type CRLFWriter struct {
	w      io.Writer
	lastCR bool
}

// NewCRLFWriter wraps w.
func NewCRLFWriter(w io.Writer) *CRLFWriter {
	return &CRLFWriter{w: w}
}

// Write implements io.Writer. It reports len(p) on success.
func (c *CRLFWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	out := make([]byte, 0, len(p)+bytes.Count(p, []byte{'\n'}))
	prevCR := c.lastCR
	for _, b := range p {
		if b == '\n' && !prevCR {
			out = append(out, '\r')
		}
		out = append(out, b)
		prevCR = b == '\r'
	}
	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	c.lastCR = prevCR
	return len(p), nil
}

// Package terminal is the interactive side of a session: raw-mode keyboard input, key
// bindings and the display sink for device output.
package terminal

import (
	"fmt"
	"strings"

	"github.com/coral-mesh/mcumon/internal/monitor"
)

// ParseKey converts a binding name to the byte the terminal sends for it. Accepted
// names are ctrl-a through ctrl-z, ctrl-] and ctrl-\, case-insensitive, also written
// as ^R.
func ParseKey(name string) (byte, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasPrefix(key, "ctrl-"):
		key = strings.TrimPrefix(key, "ctrl-")
	case strings.HasPrefix(key, "ctrl+"):
		key = strings.TrimPrefix(key, "ctrl+")
	case strings.HasPrefix(key, "^"):
		key = strings.TrimPrefix(key, "^")
	default:
		return 0, fmt.Errorf("invalid key %q: expected ctrl-<letter>", name)
	}

	if len(key) != 1 {
		return 0, fmt.Errorf("invalid key %q: expected ctrl-<letter>", name)
	}
	switch c := key[0]; {
	case c >= 'a' && c <= 'z':
		return c - 'a' + 1, nil
	case c == '\\':
		return 0x1c, nil
	case c == ']':
		return 0x1d, nil
	default:
		return 0, fmt.Errorf("invalid key %q: expected ctrl-<letter>", name)
	}
}

// KeyName renders a control byte for display, for example Ctrl+R.
func KeyName(b byte) string {
	switch {
	case b >= 1 && b <= 26:
		return "Ctrl+" + string(rune('A'+b-1))
	case b == 0x1c:
		return `Ctrl+\`
	case b == 0x1d:
		return "Ctrl+]"
	default:
		return fmt.Sprintf("%#02x", b)
	}
}

// Bindings maps the reset and quit keys to commands. It implements monitor.Decoder.
type Bindings struct {
	Reset byte
	Quit  byte
}

// NewBindings parses the reset and quit key names.
func NewBindings(reset, quit string) (Bindings, error) {
	r, err := ParseKey(reset)
	if err != nil {
		return Bindings{}, fmt.Errorf("reset key: %w", err)
	}
	q, err := ParseKey(quit)
	if err != nil {
		return Bindings{}, fmt.Errorf("quit key: %w", err)
	}
	if r == q {
		return Bindings{}, fmt.Errorf("reset and quit keys are both %s", KeyName(r))
	}
	return Bindings{Reset: r, Quit: q}, nil
}

// Decode maps a typed byte to a command.
func (b Bindings) Decode(c byte) monitor.Command {
	switch c {
	case b.Reset:
		return monitor.Reset()
	case b.Quit:
		return monitor.Quit()
	default:
		return monitor.Passthrough(c)
	}
}

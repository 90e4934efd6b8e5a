package serial

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Line is a modem control line.
type Line int

const (
	DTR Line = iota
	RTS
)

func (l Line) String() string {
	switch l {
	case DTR:
		return "DTR"
	case RTS:
		return "RTS"
	default:
		return fmt.Sprintf("Line(%d)", int(l))
	}
}

// Step drives one control line and then waits Hold before the next step. Level true
// asserts the line.
type Step struct {
	Line  Line
	Level bool
	Hold  time.Duration
}

// Family is a chip family's reset sequence.
type Family struct {
	Name        string
	Description string
	Steps       []Step
}

// On the common ESP auto-reset circuit DTR drives IO0 and RTS drives EN, both inverted.
var families = []Family{
	{
		Name:        "esp32",
		Description: "ESP32 family behind a USB-UART bridge: pulse EN with IO0 released",
		Steps: []Step{
			{Line: DTR, Level: false},
			{Line: RTS, Level: true, Hold: 100 * time.Millisecond},
			{Line: RTS, Level: false, Hold: 50 * time.Millisecond},
		},
	},
	{
		Name:        "esp32-usb-jtag",
		Description: "ESP32 USB-Serial-JTAG peripheral: release both lines, then pulse RTS",
		Steps: []Step{
			{Line: RTS, Level: false},
			{Line: DTR, Level: false, Hold: 10 * time.Millisecond},
			{Line: RTS, Level: true, Hold: 100 * time.Millisecond},
			{Line: RTS, Level: false, Hold: 50 * time.Millisecond},
		},
	},
	{
		Name:        "dtr-pulse",
		Description: "Arduino-style auto-reset on a DTR pulse",
		Steps: []Step{
			{Line: DTR, Level: false, Hold: 50 * time.Millisecond},
			{Line: DTR, Level: true, Hold: 50 * time.Millisecond},
			{Line: DTR, Level: false},
		},
	},
	{
		Name:        "none",
		Description: "no control lines wired; reset is a no-op",
	},
}

// Boards that share the classic auto-reset circuit.
var familyAliases = map[string]string{
	"esp8266": "esp32",
	"esp32s2": "esp32",
	"esp32s3": "esp32",
	"esp32c3": "esp32",
}

// ParseFamily returns the reset sequence for a chip or family name.
func ParseFamily(name string) (Family, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := familyAliases[key]; ok {
		key = alias
	}
	for _, f := range families {
		if f.Name == key {
			return f, nil
		}
	}
	return Family{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownChip, name, strings.Join(FamilyNames(), ", "))
}

// Families returns every known family.
func Families() []Family {
	return slices.Clone(families)
}

// FamilyNames returns the accepted chip names, families first and then aliases.
func FamilyNames() []string {
	names := make([]string, 0, len(families)+len(familyAliases))
	for _, f := range families {
		names = append(names, f.Name)
	}
	aliases := make([]string, 0, len(familyAliases))
	for a := range familyAliases {
		aliases = append(aliases, a)
	}
	slices.Sort(aliases)
	return append(names, aliases...)
}

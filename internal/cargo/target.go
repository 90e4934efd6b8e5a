package cargo

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrUnknownFramework is returned for a framework name other than baremetal or esp-idf.
	ErrUnknownFramework = errors.New("unknown framework")

	// ErrUnknownTarget is returned when no target triple can be derived.
	ErrUnknownTarget = errors.New("unknown target")
)

// Framework is the runtime a Rust firmware project is built against.
type Framework string

const (
	// Baremetal is a no_std build (esp-hal), target triples ending in -none-elf.
	Baremetal Framework = "baremetal"
	// ESPIDF is a std build on top of ESP-IDF, target triples ending in -espidf.
	ESPIDF Framework = "esp-idf"
)

// ParseFramework validates a framework name. An empty name selects Baremetal.
func ParseFramework(name string) (Framework, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "baremetal":
		return Baremetal, nil
	case "esp-idf", "espidf":
		return ESPIDF, nil
	default:
		return "", fmt.Errorf("%w %q (expected baremetal or esp-idf)", ErrUnknownFramework, name)
	}
}

// FrameworkFromTarget derives the framework from a target triple's suffix.
func FrameworkFromTarget(triple string) (Framework, error) {
	switch {
	case strings.HasSuffix(triple, "-espidf"):
		return ESPIDF, nil
	case strings.HasSuffix(triple, "-none-elf"):
		return Baremetal, nil
	default:
		return "", fmt.Errorf("%w: cannot tell the framework of target %q", ErrUnknownTarget, triple)
	}
}

type triples struct {
	baremetal string
	espidf    string
}

// Chip names match the reset families and aliases accepted by --chip.
var chipTargets = map[string]triples{
	"esp32":   {baremetal: "xtensa-esp32-none-elf", espidf: "xtensa-esp32-espidf"},
	"esp32s2": {baremetal: "xtensa-esp32s2-none-elf", espidf: "xtensa-esp32s2-espidf"},
	"esp32s3": {baremetal: "xtensa-esp32s3-none-elf", espidf: "xtensa-esp32s3-espidf"},
	"esp8266": {baremetal: "xtensa-esp8266-none-elf", espidf: "xtensa-esp8266-espidf"},
	"esp32c3": {baremetal: "riscv32imc-unknown-none-elf", espidf: "riscv32imc-esp-espidf"},
}

// Target returns the Rust target triple for chip and framework.
func Target(chip string, fw Framework) (string, error) {
	t, ok := chipTargets[strings.ToLower(strings.TrimSpace(chip))]
	if !ok {
		return "", fmt.Errorf("%w: no Rust target known for chip %q (known: %s); pass --target",
			ErrUnknownTarget, chip, strings.Join(Chips(), ", "))
	}
	switch fw {
	case Baremetal:
		return t.baremetal, nil
	case ESPIDF:
		return t.espidf, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFramework, fw)
	}
}

// Chips returns the chip names with a known target triple, sorted.
func Chips() []string {
	names := make([]string, 0, len(chipTargets))
	for name := range chipTargets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

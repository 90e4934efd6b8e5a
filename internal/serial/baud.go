package serial

import (
	"fmt"
	"slices"
)

// StandardBaudRates are the rates accepted by Open, including the ESP ROM's 74880.
var StandardBaudRates = []int{
	300, 600, 1200, 2400, 4800, 9600, 14400, 19200, 28800, 38400, 57600,
	74880, 115200, 230400, 250000, 460800, 500000, 576000, 921600,
	1000000, 1152000, 1500000, 2000000, 3000000,
}

// ValidateBaud returns ErrInvalidBaud unless baud is a standard rate.
func ValidateBaud(baud int) error {
	if !slices.Contains(StandardBaudRates, baud) {
		return fmt.Errorf("%w: %d", ErrInvalidBaud, baud)
	}
	return nil
}

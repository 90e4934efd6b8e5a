// Package safe provides clamping numeric conversions for values read from untrusted
// binary formats.
package safe

import (
	"math"
)

// IntToUint32 converts an int to uint32, clamping negatives to 0 and large values to
// math.MaxUint32.
// Returns the converted value and a boolean indicating whether clamping occurred.
func IntToUint32(val int) (uint32, bool) {
	if val < 0 {
		return 0, true
	}
	if uint64(val) > math.MaxUint32 {
		return math.MaxUint32, true
	}
	return uint32(val), false
}

// Int64ToUint32 converts an int64 to uint32 with the same clamping as IntToUint32.
func Int64ToUint32(val int64) (uint32, bool) {
	if val < 0 {
		return 0, true
	}
	if val > math.MaxUint32 {
		return math.MaxUint32, true
	}
	return uint32(val), false
}

// AddUint64 returns a+b, saturating at math.MaxUint64 instead of wrapping.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return math.MaxUint64, true
	}
	return sum, false
}

// Package scanner finds hexadecimal address tokens in lines of device output.
//
// The scanner is purely syntactic: a token is "0x" followed by 1 to 16 hex digits with no
// word character on either side. Whether the value is a plausible code address is left
// to the symbol lookup.
package scanner

import (
	"iter"
	"strconv"
)

// MaxDigits is the longest digit run accepted after the "0x" prefix.
const MaxDigits = 16

// Match is one address token within a line. Start and End are byte offsets into the
// scanned line, End exclusive.
type Match struct {
	Raw   string
	Value uint64
	Start int
	End   int
}

// Scan returns the address tokens of line from left to right. The sequence holds no
// state between calls and can be ranged over any number of times.
func Scan(line string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		i := 0
		for i+2 < len(line) {
			if line[i] != '0' || (line[i+1] != 'x' && line[i+1] != 'X') {
				i++
				continue
			}
			if i > 0 && isWord(line[i-1]) {
				i++
				continue
			}

			j := i + 2
			for j < len(line) && isHex(line[j]) {
				j++
			}
			digits := j - (i + 2)
			if digits == 0 || digits > MaxDigits || (j < len(line) && isWord(line[j])) {
				// Skip the whole run so its tail is not matched on its own.
				i = j
				continue
			}

			value, err := strconv.ParseUint(line[i+2:j], 16, 64)
			if err == nil {
				if !yield(Match{Raw: line[i:j], Value: value, Start: i, End: j}) {
					return
				}
			}
			i = j
		}
	}
}

// All collects Scan(line) into a slice.
func All(line string) []Match {
	var matches []Match
	for m := range Scan(line) {
		matches = append(matches, m)
	}
	return matches
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isWord(c byte) bool {
	return isHex(c) || ('g' <= c && c <= 'z') || ('G' <= c && c <= 'Z') || c == '_'
}

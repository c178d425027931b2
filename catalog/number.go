package catalog

import (
	"strconv"
	"strings"
)

// ParseNumber converts a numeric literal whose separators may be either
// decimal points or thousands separators.
//
// One separator: decimal when the integer part has a leading zero followed by
// more digits ("09,10"), thousands when exactly three digits follow it
// ("9,100"), decimal otherwise. Several separators: all but the last are
// thousands separators and the last follows the same rule as a single one.
// "010,000" therefore reads as 10.0; that is intended.
func ParseNumber(token string) (float64, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}
	groups := strings.FieldsFunc(token, isSeparator)
	if len(groups) == 0 || countSeparators(token) != len(groups)-1 {
		return 0, false
	}
	for _, g := range groups {
		if !isDigits(g) {
			return 0, false
		}
	}
	if len(groups) == 1 {
		return parseFloat(groups[0])
	}
	head := groups[0]
	last := groups[len(groups)-1]
	integer := strings.Join(groups[:len(groups)-1], "")
	leadingZero := len(head) > 1 && head[0] == '0'
	if leadingZero || len(last) != 3 {
		return parseFloat(integer + "." + last)
	}
	return parseFloat(integer + last)
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isSeparator(r rune) bool {
	return r == '.' || r == ','
}

func countSeparators(s string) int {
	n := 0
	for _, r := range s {
		if isSeparator(r) {
			n++
		}
	}
	return n
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

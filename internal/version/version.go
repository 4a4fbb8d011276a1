// Package version turns the free-form version strings reported by package
// managers into comparable numbers.
//
// The conversion is intentionally lossy: only digits and the first dot are
// kept, so "1.2.3beta4" becomes "1.234" and parses to 1.234. Two versions
// compare by that single number.
package version

import (
	"strconv"
	"strings"
)

// Extract keeps the digits of raw in order plus the first '.' it meets.
// Every other rune, including later dots, is dropped without resetting the scan.
func Extract(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	dotAdded := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !dotAdded:
			b.WriteRune(r)
			dotAdded = true
		}
	}
	return b.String()
}

// Parse returns the numeric value of raw. Empty, dot-only, or otherwise
// unparseable input (including values that overflow a float64) yields 0.
func Parse(raw string) float64 {
	extracted := Extract(raw)
	if extracted == "" || extracted == "." {
		return 0
	}
	v, err := strconv.ParseFloat(extracted, 64)
	if err != nil {
		return 0
	}
	return v
}

// Format renders v without an exponent so that Parse(Format(v)) == v.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Compare orders a and b by their parsed values: -1, 0 or +1.
func Compare(a, b string) int {
	va, vb := Parse(a), Parse(b)
	switch {
	case va < vb:
		return -1
	case va > vb:
		return 1
	default:
		return 0
	}
}

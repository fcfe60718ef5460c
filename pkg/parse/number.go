package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberRun = regexp.MustCompile(`-?\d[\d.,]*`)

// Number extracts the first numeral from rendered text.
// The rightmost '.' or ',' in the run is taken as the decimal point and every other separator
// is dropped as a thousands separator, so "1.234,56" and "1,234.56" both yield 1234.56.
// Returns nil when no digits are found or the value is not finite.
func Number(text string) *float64 {
	if text == "" {
		return nil
	}
	match := numberRun.FindString(text)
	if match == "" {
		return nil
	}

	numStr := match
	sep := strings.LastIndexAny(match, ".,")
	if sep >= 0 {
		intPart := keepDigits(match[:sep], true)
		fracPart := keepDigits(match[sep+1:], false)
		numStr = intPart + "." + fracPart
	} else {
		numStr = keepDigits(match, true)
	}

	// A trailing separator ("12.") leaves an empty fraction, which ParseFloat accepts
	v, err := strconv.ParseFloat(numStr, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// keepDigits drops everything but digits (and '-' when allowSign is set)
func keepDigits(s string, allowSign bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || (allowSign && r == '-') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

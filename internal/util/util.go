// Package util holds small helpers for decoding host-supplied arguments.
package util

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArg undoes the host's string quoting: outer quotes are stripped and
// doubled inner quotes collapsed.
func CleanArg(s string) string {
	return FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s)))
}

// ParseIntArg parses a host number. The host sends whole plot coordinates
// as floats ("12" or "12.0"), so a zero fractional part is accepted.
func ParseIntArg(s string) (int, error) {
	s = CleanArg(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return int(f), nil
}

// ParseBoolArg parses a host boolean. The host writes "true"/"false";
// "1"/"0" are accepted too.
func ParseBoolArg(s string) (bool, error) {
	b, err := strconv.ParseBool(strings.ToLower(CleanArg(s)))
	if err != nil {
		return false, fmt.Errorf("not a boolean: %q", s)
	}
	return b, nil
}

// Contains reports whether str is in slice.
func Contains(slice []string, str string) bool {
	return slices.Contains(slice, str)
}

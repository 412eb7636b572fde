package core

import "strings"

// truthyValues are the accepted spellings of "true" in spreadsheet cells.
var truthyValues = map[string]bool{
	"true": true,
	"1":    true,
	"yes":  true,
	"y":    true,
	"да":   true,
}

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ParseBool reports whether `s` is one of the tolerated truthy tokens.
// Anything else, including the empty string, is false.
func ParseBool(s string) bool {
	return truthyValues[CleanString(s, true /* lower */)]
}

// FormatBool is the canonical cell value written for `b`.
func FormatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

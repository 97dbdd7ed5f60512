package extractor

import "strings"

// Normalize collapses every run of whitespace (including the newlines
// left by multi-page concatenation) into a single space and trims the
// ends. All downstream matching operates on this form, so patterns can
// assume exactly one space between tokens.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

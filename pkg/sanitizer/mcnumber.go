package sanitizer

import (
	"strings"
	"unicode"
)

// NormalizeMCNumber reduces an MC number to its canonical form: the digits of
// the operating authority prefixed with "MC". Punctuation, whitespace and a
// leading MC marker in any casing are stripped. Returns "" when the input
// does not contain a plausible authority number.
func NormalizeMCNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}

	s := strings.TrimPrefix(b.String(), "MC")
	if s == "" {
		return ""
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return ""
		}
	}

	return "MC" + s
}

// NormalizePlace prepares origin/destination terms for case-insensitive
// substring matching.
func NormalizePlace(s string) string {
	return strings.ToLower(TrimAndCollapse(s))
}

// TrimAndCollapse trims the string and collapses internal whitespace runs to
// a single space.
func TrimAndCollapse(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			b.WriteRune(r)
			lastWasSpace = false
		}
	}

	return b.String()
}

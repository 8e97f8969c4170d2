// Package normalize provides utilities for normalizing and sanitizing data.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// cases.Caser carries internal state and is not safe for concurrent use,
// so each call constructs its own.
func titleCaser() cases.Caser {
	return cases.Title(language.English)
}

// Name canonicalizes a user-supplied label such as a tag or ingredient name.
// It drops null bytes, collapses internal whitespace runs to single spaces,
// trims the ends, and title-cases the result:
//
//	"  thai   curry " -> "Thai Curry"
//	"VEGAN"           -> "Vegan"
//
// Returns empty string when nothing printable remains.
func Name(raw string) string {
	fields := strings.Fields(sanitizeString(raw))
	if len(fields) == 0 {
		return ""
	}
	return titleCaser().String(strings.Join(fields, " "))
}

// Text cleans free-form text fields (titles, descriptions) without changing
// case: null bytes dropped, leading and trailing whitespace trimmed.
func Text(raw string) string {
	return strings.TrimSpace(sanitizeString(raw))
}

// sanitizeString removes null bytes from strings, which can cause
// issues in databases and JSON parsing.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 { // null byte
			return -1 // drop it
		}
		return r
	}, s)
}

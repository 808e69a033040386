// src/security/validation/sanitizers.go
package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Definition of strict sanitization policy
	strictHTMLPolicy *bluemonday.Policy
)

func init() {
	// Initialize strict policy once at startup
	strictHTMLPolicy = bluemonday.StrictPolicy() // Removes all HTML tags
}

// SanitizeText removes all HTML tags and attributes from an input string
// before it is saved to the database.
func SanitizeText(s string) string {
	// bluemonday escapes what it keeps; templates and JSON escape on output, so undo it here.
	return html.UnescapeString(strictHTMLPolicy.Sanitize(s))
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1 // Drop the rune
	}, s)
}

// CleanText strips markup and control characters and trims surrounding whitespace.
func CleanText(s string) string {
	return strings.TrimSpace(SanitizeText(StripUnprintable(s)))
}

// CleanOptionalText cleans s and maps blank results to nil.
func CleanOptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := CleanText(*s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

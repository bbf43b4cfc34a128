package matcher

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize strips combining marks after compatibility decomposition so that
// "Dollár" and "Dollar" compare equal.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// Chains keep internal buffers, so each call builds its own.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text, strips diacritics, replaces every character
// outside [a-z0-9] with a space, collapses whitespace, and trims the result.
// Empty input yields an empty string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded := stripDiacritics(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// stripDiacritics decomposes text and drops combining marks. Transformer
// chains carry state, so a fresh chain is built per call.
func stripDiacritics(text string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(chain, text)
	if err != nil {
		return text
	}
	return out
}

// NormalizeChapter strips leading zeros so "010" and "10" compare equal.
func NormalizeChapter(chapter string) string {
	chapter = strings.TrimSpace(chapter)
	if chapter == "" {
		return ""
	}
	trimmed := strings.TrimLeft(chapter, "0")
	if trimmed == "" || trimmed[0] == '.' {
		return "0" + trimmed
	}
	return trimmed
}

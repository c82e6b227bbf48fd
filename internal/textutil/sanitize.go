package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName makes an uploaded file name safe to store in the library.
// Path separators and colons become dashes, shell glob and quoting characters
// are dropped and accents are kept so titles stay readable.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			b.WriteByte('-')
		case strings.ContainsRune(`?"<>|`, r), unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// SanitizeToken turns a provider or channel label into a directory name:
// lowercase ASCII, accents folded, runs of other characters collapsed to a
// single underscore. Empty results become "unknown".
func SanitizeToken(value string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(stripDiacritics(value)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	if out := strings.Trim(b.String(), "_-"); out != "" {
		return out
	}
	return "unknown"
}

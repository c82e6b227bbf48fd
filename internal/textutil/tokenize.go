package textutil

import "strings"

const (
	// MaxTokens caps the number of tokens Tokenize returns.
	MaxTokens = 24
	// MinTokenLength is the shortest token Tokenize keeps.
	MinTokenLength = 3
)

// Tokenize normalizes text and splits it into tokens, dropping short tokens
// and stopwords. At most MaxTokens tokens are returned, in source order.
// Repeated tokens are preserved; use TokenSet for set semantics.
func Tokenize(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	raw := strings.Fields(normalized)
	tokens := make([]string, 0, min(len(raw), MaxTokens))
	for _, token := range raw {
		if len(token) < MinTokenLength {
			continue
		}
		if IsStopword(token) {
			continue
		}
		tokens = append(tokens, token)
		if len(tokens) == MaxTokens {
			break
		}
	}
	return tokens
}

// TokenSet returns the distinct tokens of text.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

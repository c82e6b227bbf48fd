// Package textutil provides the text primitives used for request matching and
// filename handling.
//
// The primary use cases are:
//   - Normalizing free text (case, diacritics, punctuation) into a canonical form
//   - Tokenizing normalized text into bounded, stopword-free token sequences
//   - Sanitizing filenames and path segments for safe filesystem use
//
// Every function is pure and safe for concurrent use. Normalization folds
// accents through Unicode decomposition so "Levéling" and "LEVELING" compare
// equal; tokenization drops tokens shorter than 3 characters and caps the
// output at MaxTokens in source order.
package textutil

// Package classify turns filenames and chat captions into structured guesses
// (title, chapter, category, tags) used to build library queries.
//
// Heuristic is local and deterministic. LLM delegates to the OpenRouter
// client in internal/services/llm. Chain tries classifiers in order and
// returns the first success, so the LLM can be preferred with the heuristic
// as fallback.
package classify

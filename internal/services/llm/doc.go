// Package llm provides an OpenRouter chat client used to classify content
// requests and library uploads.
//
// Client.CompleteJSON sends a system and user prompt and returns the model's
// JSON payload. Client.ClassifyContent wraps it with the content prompt and
// decodes a ContentGuess (title, chapter, category, tags). HealthCheck issues
// a tiny request for the doctor command.
//
// Requests go through resty with retries on HTTP 408, 429, 5xx, and empty
// completions, using exponential backoff. Context cancellation aborts retries.
// When the LLM is unavailable callers fall back to local heuristics.
package llm

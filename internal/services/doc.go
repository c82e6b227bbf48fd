// Package services defines shared utilities consumed by command handlers and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, command names, chat channels,
//     and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so every failure can be
//     classified (validation, not found, authorization, io, path security)
//     and turned into a user-facing reply at the command boundary.
//
// The services/llm subpackage hosts the OpenRouter client used by the LLM
// content classifier.
package services

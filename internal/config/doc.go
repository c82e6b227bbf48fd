// Package config loads, normalizes, and validates pedidobot configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PEDIDOBOT_GATEWAY_TOKEN and OPENROUTER_API_KEY. The Config type centralizes
// every knob the server and CLI need so the library root, matching thresholds,
// duplicate-guard limits, and bridge credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, clamped limits, and clear validation errors.
package config

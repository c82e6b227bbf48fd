// Package logging assembles structured slog loggers and formatting helpers used
// across pedidobot.
//
// It owns the console and JSON handlers, fans records out to the terminal and
// the log file, and exposes context-aware helpers so command handlers and the
// processing pipeline automatically tag log lines with pedido IDs, channel IDs,
// command names, and correlation IDs. A no-op logger is provided for tests and
// wiring code that cannot fail.
package logging

// Package daemon coordinates the long-running pedidobot process.
//
// It wires configuration, the SQLite store, the duplicate guard, the
// processing orchestrator, the command dispatcher, the outbound bridge, and
// the webhook gateway into a single lifecycle with flock-based locking to
// prevent multiple instances against the same data directory.
//
// Keep orchestration logic here: command semantics live in commands and
// processing while the daemon focuses on startup, shutdown, and periodic
// housekeeping.
package daemon

// Package preflight provides readiness checks for the filesystem paths and
// external services pedidobot depends on.
//
// The CLI "pedidobot doctor" command runs RunAll and renders the results, and
// "pedidobot serve" runs the same checks once at startup so misconfiguration
// is logged before the gateway accepts traffic.
//
// Each external check is gated by its config value; unset services are skipped.
package preflight

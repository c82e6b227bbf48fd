// Package notifications publishes request lifecycle events to pluggable
// emitters.
//
// Two events exist today: pedido.created and pedido.updated. The ntfy
// emitter posts a short human-readable line to the configured topic and the
// Redis emitter publishes a JSON envelope for the dashboard. Fanout combines
// them and Noop stands in when nothing is configured.
//
// Callers on the request path wrap the emitter with BestEffort so a broken
// notification backend can never fail a chat command.
package notifications

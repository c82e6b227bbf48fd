// Package gateway exposes the inbound HTTP surface.
//
// The WhatsApp bridge posts every chat message to POST /webhook/messages and
// the gateway hands it to the command dispatcher synchronously. A read-only
// JSON API (/api/pedidos, /api/pedidos/:id) serves the dashboard and
// /healthz reports store health. Every request gets a correlation id from
// gin-contrib/requestid that flows into the context and the logs. When a
// token is configured, everything except /healthz requires
// "Authorization: Bearer <token>".
package gateway

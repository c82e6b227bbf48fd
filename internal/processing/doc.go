// Package processing matches a request against a provider's library.
//
// Processor.Process classifies the request text under a bounded wait, merges
// the guess with the raw request fields into a library.Query, ranks the
// provider's items and records the outcome on the request through
// pedidos.Repository.Update. A pedido.updated event is emitted afterwards on
// a best-effort basis. The automatic path that runs right after creation and
// the manual command path share the same Process call, so identical inputs
// always give identical outcomes.
package processing

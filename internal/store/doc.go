// Package store persists pedidos, library items, and provider channel settings
// in SQLite.
//
// Store implements pedidos.Repository, library.Catalog, and
// library.ProviderDirectory. Writes are synchronous and retried with backoff
// when SQLite reports the database as busy; a write that still fails is
// returned to the caller. Request mutations go through Update, which holds a
// per-id lock and runs the read-modify-write in one transaction.
package store

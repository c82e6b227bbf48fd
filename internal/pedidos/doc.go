// Package pedidos defines content requests and their lifecycle.
//
// A Request starts pendiente and moves through en_proceso, completado, and
// cancelado only via the transition methods in this package. Each transition
// stamps UpdatedAt. Persistence is behind the Repository interface;
// internal/store provides the SQLite implementation, and its Update method is
// the only place a stored request is mutated.
package pedidos

// Package library models a provider's content library and ranks its items
// against a derived request query.
//
// Score combines token overlap with title, chapter, and category bonuses; Rank
// applies the selection policy (stable order, minimum score, result cap). Both
// are pure and safe for concurrent use. Persistence lives in internal/store
// behind the Catalog interface.
package library

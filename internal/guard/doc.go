// Package guard suppresses replayed inbound commands.
//
// TTLCache is a bounded, mutex-protected map of key to last-seen time with a
// sliding suppression window and a two-step eviction policy: once the map
// grows past SweepAbove entries, entries older than MaxAge are dropped; if it
// is still larger than HardLimit, entries are removed in map iteration order
// until TrimTo remain. Eviction happens before a new key is inserted.
//
// Guard keys the cache by command, channel, sender, and message id. Calls
// without a message id are never suppressed.
package guard

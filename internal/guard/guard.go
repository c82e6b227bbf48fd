package guard

import (
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"pedidobot/internal/logging"
)

// Key identifies one logical command invocation.
type Key struct {
	Command   string
	ChannelID string
	SenderID  string
	MessageID string
}

// String encodes the key fields as length-prefixed segments joined with "|",
// so ids that themselves contain "|" cannot collide.
func (k Key) String() string {
	var b strings.Builder
	for i, field := range []string{k.Command, k.ChannelID, k.SenderID, k.MessageID} {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.Itoa(len(field)))
		b.WriteByte(':')
		b.WriteString(field)
	}
	return b.String()
}

// Stats reports guard activity.
type Stats struct {
	Size       int
	Checked    int64
	Suppressed int64
	Unkeyed    int64
}

// Guard decides whether an inbound command is a replay.
type Guard struct {
	cache      *TTLCache
	logger     *slog.Logger
	checked    atomic.Int64
	suppressed atomic.Int64
	unkeyed    atomic.Int64
}

// New builds a guard over a fresh TTLCache.
func New(limits Limits, logger *slog.Logger) *Guard {
	g := &Guard{
		cache:  NewTTLCache(limits),
		logger: logging.NewComponentLogger(logger, "guard"),
	}
	g.cache.OnEvict(func(stats EvictionStats) {
		g.logger.Info("duplicate guard evicted entries",
			logging.Event("guard_eviction"),
			logging.Int("expired", stats.Expired),
			logging.Int("trimmed", stats.Trimmed),
			logging.Int("remaining", g.cache.Len()),
		)
	})
	return g
}

// Cache exposes the underlying cache.
func (g *Guard) Cache() *TTLCache {
	return g.cache
}

// ShouldSkip reports whether key was already seen within the window. Keys
// without a message id are never suppressed and are not recorded.
func (g *Guard) ShouldSkip(key Key) bool {
	if strings.TrimSpace(key.MessageID) == "" {
		g.unkeyed.Add(1)
		return false
	}
	g.checked.Add(1)
	if g.cache.CheckAndTouch(key.String()) {
		g.suppressed.Add(1)
		g.logger.Debug("duplicate command suppressed",
			logging.String(logging.FieldCommand, key.Command),
			logging.Channel(key.ChannelID),
			logging.String("message_id", key.MessageID),
		)
		return true
	}
	return false
}

// Stats returns a snapshot of guard counters.
func (g *Guard) Stats() Stats {
	return Stats{
		Size:       g.cache.Len(),
		Checked:    g.checked.Load(),
		Suppressed: g.suppressed.Load(),
		Unkeyed:    g.unkeyed.Load(),
	}
}

package guard

import (
	"sync"
	"time"
)

// Limits configures a TTLCache. Zero fields use DefaultLimits.
type Limits struct {
	Window     time.Duration
	MaxAge     time.Duration
	SweepAbove int
	HardLimit  int
	TrimTo     int
}

// DefaultLimits returns the stock window and eviction bounds.
func DefaultLimits() Limits {
	return Limits{
		Window:     2 * time.Minute,
		MaxAge:     6 * time.Hour,
		SweepAbove: 2000,
		HardLimit:  3000,
		TrimTo:     1500,
	}
}

func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.Window <= 0 {
		l.Window = d.Window
	}
	if l.MaxAge <= 0 {
		l.MaxAge = d.MaxAge
	}
	if l.SweepAbove <= 0 {
		l.SweepAbove = d.SweepAbove
	}
	if l.HardLimit <= 0 {
		l.HardLimit = d.HardLimit
	}
	if l.TrimTo <= 0 || l.TrimTo > l.HardLimit {
		l.TrimTo = d.TrimTo
		if l.TrimTo > l.HardLimit {
			l.TrimTo = l.HardLimit
		}
	}
	return l
}

// EvictionStats summarizes one eviction pass.
type EvictionStats struct {
	Expired int
	Trimmed int
}

// TTLCache records when keys were last admitted.
type TTLCache struct {
	mu      sync.Mutex
	limits  Limits
	entries map[string]time.Time
	now     func() time.Time
	onEvict func(EvictionStats)
}

// NewTTLCache builds an empty cache.
func NewTTLCache(limits Limits) *TTLCache {
	return &TTLCache{
		limits:  limits.normalized(),
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *TTLCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	c.now = now
}

// OnEvict registers a callback invoked, under no lock, after an eviction pass
// that removed entries.
func (c *TTLCache) OnEvict(fn func(EvictionStats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Limits returns the effective limits.
func (c *TTLCache) Limits() Limits {
	return c.limits
}

// CheckAndTouch reports whether key was admitted within the window. When it
// was, the stored time is left as is and true is returned. Otherwise the key
// is recorded with the current time and false is returned.
func (c *TTLCache) CheckAndTouch(key string) bool {
	c.mu.Lock()
	now := c.now()
	if seen, ok := c.entries[key]; ok && now.Sub(seen) < c.limits.Window {
		c.mu.Unlock()
		return true
	}
	var stats EvictionStats
	if len(c.entries) > c.limits.SweepAbove {
		stats = c.evictLocked(now)
	}
	c.entries[key] = now
	onEvict := c.onEvict
	c.mu.Unlock()

	if onEvict != nil && (stats.Expired > 0 || stats.Trimmed > 0) {
		onEvict(stats)
	}
	return false
}

// Put records key with the given time without any window check. Used to
// restore or seed entries.
func (c *TTLCache) Put(key string, seen time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = seen
}

// Sweep runs the eviction policy unconditionally.
func (c *TTLCache) Sweep() EvictionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictLocked(c.now())
}

// MaybeSweep runs the eviction policy only when the cache holds more than
// SweepAbove entries, the same condition CheckAndTouch uses before an insert.
func (c *TTLCache) MaybeSweep() EvictionStats {
	c.mu.Lock()
	var stats EvictionStats
	if len(c.entries) > c.limits.SweepAbove {
		stats = c.evictLocked(c.now())
	}
	onEvict := c.onEvict
	c.mu.Unlock()

	if onEvict != nil && (stats.Expired > 0 || stats.Trimmed > 0) {
		onEvict(stats)
	}
	return stats
}

// Len returns the number of tracked keys.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTLCache) evictLocked(now time.Time) EvictionStats {
	var stats EvictionStats
	for key, seen := range c.entries {
		if now.Sub(seen) > c.limits.MaxAge {
			delete(c.entries, key)
			stats.Expired++
		}
	}
	if len(c.entries) > c.limits.HardLimit {
		for key := range c.entries {
			if len(c.entries) <= c.limits.TrimTo {
				break
			}
			delete(c.entries, key)
			stats.Trimmed++
		}
	}
	return stats
}

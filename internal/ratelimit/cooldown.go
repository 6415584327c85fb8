package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Cooldown enforces a minimum interval between accepted queries per session.
// It keeps an in-memory map of last-accepted times and additionally honors
// the timestamp persisted in the session record, so restarts do not reset a
// running cooldown.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func New(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Acquire accepts or rejects a query for the given session. persistedLast is
// the session's stored last-query time (zero when unknown). On rejection the
// rounded remaining wait in seconds is returned and no state changes. On
// acceptance the last-accepted time moves to now immediately, before any slow
// downstream call, so overlapping messages throttle against the start of
// processing.
func (c *Cooldown) Acquire(id string, persistedLast time.Time) (accepted bool, remaining int, at time.Time) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	last := c.last[id]
	if persistedLast.After(last) {
		last = persistedLast
	}
	if !last.IsZero() {
		elapsed := now.Sub(last)
		if elapsed < c.window {
			rem := int(math.Round((c.window - elapsed).Seconds()))
			if rem < 1 {
				rem = 1
			}
			return false, rem, last
		}
	}
	c.last[id] = now
	return true, 0, now
}

// Sweep drops entries whose cooldown has long expired and reports how many
// were removed.
func (c *Cooldown) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, last := range c.last {
		if now.Sub(last) >= c.window {
			delete(c.last, id)
			removed++
		}
	}
	return removed
}

func (c *Cooldown) Window() time.Duration {
	return c.window
}

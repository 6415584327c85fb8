package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCooldownEnforcement(t *testing.T) {
	base := time.Unix(1000, 0)
	current := base
	c := New(15 * time.Second)
	c.now = func() time.Time { return current }

	accepted, _, at := c.Acquire("u1", time.Time{})
	require.True(t, accepted)
	require.Equal(t, base, at)

	current = base.Add(10 * time.Second)
	accepted, remaining, _ := c.Acquire("u1", time.Time{})
	require.False(t, accepted)
	require.Equal(t, 5, remaining)

	current = base.Add(16 * time.Second)
	accepted, _, _ = c.Acquire("u1", time.Time{})
	require.True(t, accepted)
}

func TestRejectionDoesNotTouchLastQueryTime(t *testing.T) {
	base := time.Unix(1000, 0)
	current := base
	c := New(15 * time.Second)
	c.now = func() time.Time { return current }

	c.Acquire("u1", time.Time{})
	current = base.Add(5 * time.Second)
	accepted, remaining, _ := c.Acquire("u1", time.Time{})
	require.False(t, accepted)
	require.Equal(t, 10, remaining)

	// Another rejected attempt later still counts from the original accept.
	current = base.Add(14 * time.Second)
	accepted, remaining, _ = c.Acquire("u1", time.Time{})
	require.False(t, accepted)
	require.Equal(t, 1, remaining)
}

func TestPersistedLastHonoredAfterRestart(t *testing.T) {
	base := time.Unix(2000, 0)
	c := New(15 * time.Second)
	c.now = func() time.Time { return base }

	// Fresh map, but the session carries a recent accept from before restart.
	accepted, remaining, _ := c.Acquire("u1", base.Add(-5*time.Second))
	require.False(t, accepted)
	require.Equal(t, 10, remaining)
}

func TestSweepRemovesExpiredOnly(t *testing.T) {
	base := time.Unix(3000, 0)
	current := base
	c := New(15 * time.Second)
	c.now = func() time.Time { return current }

	c.Acquire("old", time.Time{})
	current = base.Add(14 * time.Second)
	c.Acquire("fresh", time.Time{})

	current = base.Add(20 * time.Second)
	removed := c.Sweep()
	require.Equal(t, 1, removed)

	_, exists := c.last["old"]
	require.False(t, exists)
	_, exists = c.last["fresh"]
	require.True(t, exists)
}

func TestSessionsAreIndependent(t *testing.T) {
	base := time.Unix(4000, 0)
	c := New(15 * time.Second)
	c.now = func() time.Time { return base }

	accepted, _, _ := c.Acquire("u1", time.Time{})
	require.True(t, accepted)
	accepted, _, _ = c.Acquire("u2", time.Time{})
	require.True(t, accepted)
}

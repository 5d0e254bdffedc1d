package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewGuard(t *testing.T) {
	g := NewGuard(time.Minute)
	assert.Equal(t, time.Minute, g.timeout, "expected configured timeout")

	g = NewGuard(0)
	assert.Equal(t, DefaultTimeout, g.timeout, "expected default timeout for non-positive value")
}

func TestGuard_CheckActivity(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	g := NewGuard(15 * time.Minute)
	g.now = func() time.Time { return now }

	t.Run("unknown session is fresh", func(t *testing.T) {
		assert.True(t, g.CheckActivity("alice"), "expected never-seen session to be valid")
		assert.Contains(t, g.last, "alice", "expected session to be stamped")
	})

	t.Run("recent activity stays valid", func(t *testing.T) {
		g.Touch("alice")
		now = now.Add(14 * time.Minute)
		assert.True(t, g.CheckActivity("alice"), "expected session within timeout to be valid")
	})

	t.Run("idle session expires", func(t *testing.T) {
		g.Touch("alice")
		now = now.Add(15*time.Minute + time.Second)
		assert.False(t, g.CheckActivity("alice"), "expected idle session to expire")
		assert.NotContains(t, g.last, "alice", "expected expired session to be evicted")
	})

	t.Run("expired session is fresh again after re-check", func(t *testing.T) {
		// the eviction above means the next check treats it as never seen
		assert.True(t, g.CheckActivity("alice"), "expected evicted session to be re-stamped")
	})
}

func TestGuard_Touch(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	g := NewGuard(15 * time.Minute)
	g.now = func() time.Time { return now }

	g.Touch("bob")
	now = now.Add(14 * time.Minute)
	g.Touch("bob")
	now = now.Add(14 * time.Minute)

	assert.True(t, g.CheckActivity("bob"), "expected touch to reset the idle clock")
}

func TestGuard_Invalidate(t *testing.T) {
	g := NewGuard(15 * time.Minute)

	g.Touch("carol")
	g.Invalidate("carol")
	assert.NotContains(t, g.last, "carol", "expected invalidated session to be dropped")
}

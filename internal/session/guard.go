package session

import (
	"sync"
	"time"
)

const DefaultTimeout = 15 * time.Minute

// Guard expires idle sessions. Expiry is checked lazily on each incoming
// request or event rather than by a background timer, so there is no
// timer-cancellation bookkeeping; an idle session is evicted on its next
// activity.
type Guard struct {
	timeout time.Duration
	mu      sync.Mutex
	last    map[string]time.Time
	now     func() time.Time
}

func NewGuard(timeout time.Duration) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Guard{
		timeout: timeout,
		last:    make(map[string]time.Time),
		now:     time.Now,
	}
}

// Touch stamps the session's last-activity time.
func (g *Guard) Touch(session string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[session] = g.now()
}

// CheckActivity reports whether the session is still valid. An expired
// session is invalidated on the spot and the caller must re-authenticate.
// Sessions the guard has never seen are considered fresh and stamped now.
func (g *Guard) CheckActivity(session string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.last[session]
	if !ok {
		g.last[session] = g.now()
		return true
	}

	if g.now().Sub(last) > g.timeout {
		delete(g.last, session)
		return false
	}

	return true
}

// Invalidate drops the session, forcing re-authentication.
func (g *Guard) Invalidate(session string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.last, session)
}

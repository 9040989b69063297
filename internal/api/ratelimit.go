package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// createLimiter caps how many games one player identity may open per window.
// Keyed by the resolved player ID rather than the peer address, so a player
// reconnecting from a new address or behind a proxy still counts as one
// caller.
type createLimiter struct {
	mu      sync.Mutex
	windows map[uuid.UUID]*createWindow
	limit   int
	period  time.Duration
}

type createWindow struct {
	used    int
	started time.Time
}

func newCreateLimiter(limit int, period time.Duration) *createLimiter {
	return &createLimiter{
		windows: make(map[uuid.UUID]*createWindow),
		limit:   limit,
		period:  period,
	}
}

// Allow consumes one creation slot for the player. When the limit is hit it
// reports how long until the player's window resets.
func (l *createLimiter) Allow(playerID uuid.UUID) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[playerID]
	if !ok || now.Sub(w.started) >= l.period {
		l.sweep(now)
		l.windows[playerID] = &createWindow{used: 1, started: now}
		return true, 0
	}

	if w.used < l.limit {
		w.used++
		return true, 0
	}
	return false, l.period - now.Sub(w.started)
}

// sweep drops expired windows. Called under the lock whenever a fresh window
// opens, which bounds the map without a background goroutine.
func (l *createLimiter) sweep(now time.Time) {
	for id, w := range l.windows {
		if now.Sub(w.started) >= l.period {
			delete(l.windows, id)
		}
	}
}

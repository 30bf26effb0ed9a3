package ws

import (
	"context"
	"sync"
	"time"
)

// Throttle rate-limits inbound websocket events per connection and event
// type with a sliding window. State lives in this process only; a connection
// is served by exactly one instance, so no shared counter is needed.
type Throttle struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	windows map[throttleKey][]time.Time
}

type throttleKey struct {
	connID    string
	eventType string
}

// NewThrottle creates a limiter allowing limit events per window.
func NewThrottle(limit int, window time.Duration) *Throttle {
	return &Throttle{
		limit:   limit,
		window:  window,
		windows: make(map[throttleKey][]time.Time),
	}
}

// Allow records one event and reports whether it fits the window.
func (t *Throttle) Allow(connID, eventType string) bool {
	now := time.Now()
	cutoff := now.Add(-t.window)
	key := throttleKey{connID: connID, eventType: eventType}

	t.mu.Lock()
	defer t.mu.Unlock()

	times := t.windows[key]
	kept := times[:0]
	for _, ts := range times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= t.limit {
		t.windows[key] = kept
		return false
	}
	t.windows[key] = append(kept, now)
	return true
}

// Forget drops all state for a closed connection.
func (t *Throttle) Forget(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.windows {
		if key.connID == connID {
			delete(t.windows, key)
		}
	}
}

// Run evicts idle windows until ctx is cancelled, so connections that
// disconnect without a clean Forget do not leak entries.
func (t *Throttle) Run(ctx context.Context) {
	ticker := time.NewTicker(10 * t.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-t.window)
			t.mu.Lock()
			for key, times := range t.windows {
				if len(times) == 0 || !times[len(times)-1].After(cutoff) {
					delete(t.windows, key)
				}
			}
			t.mu.Unlock()
		}
	}
}

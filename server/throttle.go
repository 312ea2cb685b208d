package main

import (
	"sync"
	"time"
)

// Throttle caps how many new subjects one client may register within a
// rolling window. State is process-scoped; a restart resets the counters,
// which is an accepted degradation.
type Throttle struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string][]time.Time
}

func NewThrottle(limit int, window time.Duration) *Throttle {
	return &Throttle{
		limit:   limit,
		window:  window,
		entries: make(map[string][]time.Time),
	}
}

// TryRegister returns true if the client may register another new subject
// and records the registration. Check-and-append is one critical section,
// and stale timestamps are pruned lazily on every call.
func (t *Throttle) TryRegister(token string, now time.Time) bool {
	if t.limit <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.entries[token][:0]
	for _, ts := range t.entries[token] {
		if now.Sub(ts) < t.window {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= t.limit {
		t.entries[token] = kept
		return false
	}
	t.entries[token] = append(kept, now)
	return true
}

// Prune drops all expired timestamps and empty entries. Called from the
// retention sweeper so clients that never return do not pin memory.
func (t *Throttle) Prune(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for token, stamps := range t.entries {
		kept := stamps[:0]
		for _, ts := range stamps {
			if now.Sub(ts) < t.window {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(t.entries, token)
			continue
		}
		t.entries[token] = kept
	}
}

type ThrottleStats struct {
	Keys int `json:"keys"`
}

func (t *Throttle) Stats() ThrottleStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ThrottleStats{Keys: len(t.entries)}
}

package channels

import (
	"sync"
	"time"
)

const (
	// maxTrackedSenders caps the number of tracked senders to prevent memory
	// exhaustion from rotating sender ids.
	maxTrackedSenders = 4096

	// senderRateWindow is the sliding window duration for rate counting.
	senderRateWindow = 60 * time.Second

	// senderRateMaxHits is the max inbound messages per sender within a window.
	senderRateMaxHits = 30
)

type rateLimitEntry struct {
	windowStart time.Time
	count       int
}

// SenderRateLimiter bounds inbound message volume per sender so one abusive
// customer cannot flood the answer pipeline. Safe for concurrent use.
type SenderRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
}

// NewSenderRateLimiter creates a bounded per-sender rate limiter.
func NewSenderRateLimiter() *SenderRateLimiter {
	return &SenderRateLimiter{entries: make(map[string]*rateLimitEntry)}
}

// Allow returns true if the sender is within rate limits.
// Automatically prunes stale entries and enforces a hard cap on tracked keys.
func (r *SenderRateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	if len(r.entries) >= maxTrackedSenders {
		for k, e := range r.entries {
			if now.Sub(e.windowStart) >= senderRateWindow {
				delete(r.entries, k)
			}
		}
		for len(r.entries) >= maxTrackedSenders {
			for k := range r.entries {
				delete(r.entries, k)
				break
			}
		}
	}

	e, ok := r.entries[key]
	if !ok || now.Sub(e.windowStart) >= senderRateWindow {
		r.entries[key] = &rateLimitEntry{windowStart: now, count: 1}
		return true
	}

	e.count++
	return e.count <= senderRateMaxHits
}

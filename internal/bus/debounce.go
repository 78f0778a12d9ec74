package bus

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// FlushFunc receives the coalesced text for one conversation once its quiet
// period elapses.
type FlushFunc func(key, merged string)

type pendingBurst struct {
	fragments []string
	timer     *time.Timer
}

// InboundDebouncer merges rapid bursts of messages from the same conversation
// into one logical request. Each Observe call restarts the quiet-period timer
// for that conversation; only the last burst within the window is flushed.
//
// Invariant: at most one live timer per key. Arming a new timer cancels and
// replaces the previous one, and the take-and-clear on flush is performed
// under the same mutex as Observe, so a concurrent append can never cause
// fragments to be delivered twice.
type InboundDebouncer struct {
	mu      sync.Mutex
	pending map[string]*pendingBurst
	quiet   time.Duration
	flush   FlushFunc
	stopped bool
}

// NewInboundDebouncer creates a debouncer that calls flush after quiet time
// passes with no new fragments for a conversation.
func NewInboundDebouncer(quiet time.Duration, flush FlushFunc) *InboundDebouncer {
	return &InboundDebouncer{
		pending: make(map[string]*pendingBurst),
		quiet:   quiet,
		flush:   flush,
	}
}

// Observe buffers a fragment for the conversation and (re)arms its timer.
func (d *InboundDebouncer) Observe(key, fragment string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	burst, ok := d.pending[key]
	if ok {
		// Cancel the scheduled dispatch; this burst supersedes it.
		burst.timer.Stop()
	} else {
		burst = &pendingBurst{}
		d.pending[key] = burst
	}

	burst.fragments = append(burst.fragments, fragment)
	burst.timer = time.AfterFunc(d.quiet, func() { d.fire(key) })

	slog.Debug("debounce: fragment buffered",
		"key", key, "buffered", len(burst.fragments))
}

// fire runs when a conversation's quiet period elapses without cancellation.
// The buffer is taken and cleared atomically; the flush callback runs outside
// the lock so a new burst can start accumulating while it executes.
func (d *InboundDebouncer) fire(key string) {
	d.mu.Lock()
	burst, ok := d.pending[key]
	if !ok || len(burst.fragments) == 0 {
		// Already flushed or superseded — a stale timer lost the race.
		delete(d.pending, key)
		d.mu.Unlock()
		return
	}
	fragments := burst.fragments
	delete(d.pending, key)
	d.mu.Unlock()

	merged := strings.Join(fragments, " ")
	slog.Debug("debounce: flushing burst", "key", key, "fragments", len(fragments))
	d.flush(key, merged)
}

// Pending reports whether a conversation currently has a buffered burst.
func (d *InboundDebouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Stop cancels all pending timers. Buffered fragments are discarded.
func (d *InboundDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, burst := range d.pending {
		burst.timer.Stop()
		delete(d.pending, key)
	}
}

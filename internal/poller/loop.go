// Package poller runs the marketplace background loops: the unanswered-item
// sweep and the chat-event cursor walk. Both share one loop skeleton —
// fetch, act, sleep — where a failed cycle is logged and the next interval
// tries again.
package poller

import (
	"context"
	"log/slog"
	"time"
)

// Cycler is one poll cycle. Returning an error marks the cycle failed; the
// loop logs it and keeps going.
type Cycler interface {
	Cycle(ctx context.Context) error
}

// Run executes cycles at a fixed interval until ctx is cancelled. The first
// cycle runs immediately. Never returns a non-nil error other than ctx.Err().
func Run(ctx context.Context, name string, interval time.Duration, c Cycler) error {
	slog.Info("poller started", "poller", name, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := c.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("poll cycle failed", "poller", name, "error", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("poller stopped", "poller", name)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

package poller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nextlevelbuilder/sellerclaw/internal/bus"
	"github.com/nextlevelbuilder/sellerclaw/internal/marketplace"
	"github.com/nextlevelbuilder/sellerclaw/internal/sessions"
)

// ItemAPI is the marketplace surface the sweeper needs.
type ItemAPI interface {
	ListUnanswered(ctx context.Context, since time.Time) ([]marketplace.PendingItem, error)
	PostAnswer(ctx context.Context, id, text string) error
}

// Answerer generates a reply for a customer question. Implementations return
// safe-to-send fallback text alongside a non-nil error.
type Answerer interface {
	Answer(ctx context.Context, sessionKey, question string) (string, error)
}

// ItemSweeper answers unanswered feedbacks and questions, one item per cycle.
// Answering one item at a time bounds generation cost and keeps the seller's
// reply cadence human-plausible.
type ItemSweeper struct {
	api        ItemAPI
	answerer   Answerer
	answered   *bus.DedupeCache
	since      time.Time // window start, fixed at construction
	rejectText string    // replies equal to this are never posted publicly
}

// NewItemSweeper creates a sweeper. The window start is fixed at construction
// to now-lookback, so a zero lookback answers only items arriving after
// startup and never replays historical backlog. rejectText is the guard
// fallback: posting it on a public review page is worse than staying silent,
// so such replies are skipped without caching.
func NewItemSweeper(api ItemAPI, answerer Answerer, answered *bus.DedupeCache, lookback time.Duration, rejectText string) *ItemSweeper {
	return &ItemSweeper{
		api:        api,
		answerer:   answerer,
		answered:   answered,
		since:      time.Now().Add(-lookback),
		rejectText: rejectText,
	}
}

// Cycle runs one sweep: fetch unanswered items, drop the recently answered,
// reply to the single oldest remaining one. The item id enters the answered
// cache only after the marketplace confirms the post, so a failed attempt is
// retried next cycle.
func (s *ItemSweeper) Cycle(ctx context.Context) error {
	items, err := s.api.ListUnanswered(ctx, s.since)
	if err != nil {
		return fmt.Errorf("list unanswered: %w", err)
	}
	if len(items) == 0 {
		slog.Debug("no unanswered items")
		return nil
	}

	var target *marketplace.PendingItem
	for i := range items {
		if !s.answered.Contains(items[i].ID) {
			target = &items[i]
			break
		}
	}
	if target == nil {
		slog.Debug("all unanswered items already handled", "count", len(items))
		return nil
	}

	slog.Info("answering item", "item_id", target.ID, "kind", target.Kind)

	question := target.Text
	if target.ProductName != "" {
		question = fmt.Sprintf("Question about %q: %s", target.ProductName, target.Text)
	}

	key := sessions.BuildSessionKey("marketplace", target.ID)
	reply, err := s.answerer.Answer(ctx, key, question)
	if err != nil {
		return fmt.Errorf("generate answer for %s: %w", target.ID, err)
	}
	if strings.TrimSpace(reply) == "" || reply == s.rejectText {
		slog.Warn("low-confidence answer, skipping item", "item_id", target.ID)
		return nil
	}

	if err := s.api.PostAnswer(ctx, target.ID, reply); err != nil {
		return fmt.Errorf("post answer for %s: %w", target.ID, err)
	}

	s.answered.Record(target.ID)
	return nil
}

package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nextlevelbuilder/sellerclaw/internal/bus"
	"github.com/nextlevelbuilder/sellerclaw/internal/marketplace"
)

const fallbackText = "Sorry, try again later."

type fakeItemAPI struct {
	items   []marketplace.PendingItem
	listErr error
	postErr error
	posted  []string
}

func (f *fakeItemAPI) ListUnanswered(context.Context, time.Time) ([]marketplace.PendingItem, error) {
	return f.items, f.listErr
}

func (f *fakeItemAPI) PostAnswer(_ context.Context, id, _ string) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, id)
	return nil
}

type fakeAnswerer struct {
	reply     string
	err       error
	questions []string
}

func (f *fakeAnswerer) Answer(_ context.Context, _, question string) (string, error) {
	f.questions = append(f.questions, question)
	return f.reply, f.err
}

func newSweeper(api *fakeItemAPI, ans *fakeAnswerer, cache *bus.DedupeCache) *ItemSweeper {
	return NewItemSweeper(api, ans, cache, 0, fallbackText)
}

// TestSweeper_SkipsCachedPicksOldest verifies the dedupe filter and the
// one-item-per-cycle rule.
func TestSweeper_SkipsCachedPicksOldest(t *testing.T) {
	api := &fakeItemAPI{items: []marketplace.PendingItem{
		{ID: "Q1", Kind: marketplace.KindQuestion, Text: "first"},
		{ID: "Q2", Kind: marketplace.KindQuestion, Text: "second"},
		{ID: "Q3", Kind: marketplace.KindQuestion, Text: "third"},
	}}
	ans := &fakeAnswerer{reply: "An answer."}
	cache := bus.NewDedupeCache(10)
	cache.Record("Q1")

	s := newSweeper(api, ans, cache)
	if err := s.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}

	if len(api.posted) != 1 || api.posted[0] != "Q2" {
		t.Errorf("posted = %v, want [Q2]", api.posted)
	}
	if !cache.Contains("Q2") {
		t.Error("Q2 should be cached after confirmed post")
	}
	if cache.Contains("Q3") {
		t.Error("Q3 was not processed this cycle, must not be cached")
	}
}

// TestSweeper_PostFailureLeavesUncached verifies a failed post is retried
// next cycle instead of being swallowed by the cache.
func TestSweeper_PostFailureLeavesUncached(t *testing.T) {
	api := &fakeItemAPI{
		items:   []marketplace.PendingItem{{ID: "F1", Text: "review"}},
		postErr: errors.New("503"),
	}
	cache := bus.NewDedupeCache(10)

	s := newSweeper(api, &fakeAnswerer{reply: "Thanks!"}, cache)
	if err := s.Cycle(context.Background()); err == nil {
		t.Fatal("expected cycle error")
	}
	if cache.Contains("F1") {
		t.Error("failed post must not cache the item id")
	}

	// Next cycle succeeds and caches.
	api.postErr = nil
	if err := s.Cycle(context.Background()); err != nil {
		t.Fatalf("retry cycle: %v", err)
	}
	if !cache.Contains("F1") {
		t.Error("successful retry should cache the item id")
	}
}

// TestSweeper_RejectsFallbackWithoutCaching verifies low-confidence output is
// never posted publicly and the item stays eligible.
func TestSweeper_RejectsFallbackWithoutCaching(t *testing.T) {
	api := &fakeItemAPI{items: []marketplace.PendingItem{{ID: "F1", Text: "review"}}}
	cache := bus.NewDedupeCache(10)

	s := newSweeper(api, &fakeAnswerer{reply: fallbackText}, cache)
	if err := s.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if len(api.posted) != 0 {
		t.Errorf("posted = %v, want none", api.posted)
	}
	if cache.Contains("F1") {
		t.Error("skipped item must not be cached")
	}
}

// TestSweeper_ProductContext verifies the product name reaches the question.
func TestSweeper_ProductContext(t *testing.T) {
	api := &fakeItemAPI{items: []marketplace.PendingItem{
		{ID: "Q1", Text: "Does it fit?", ProductName: "Blue Case"},
	}}
	ans := &fakeAnswerer{reply: "Yes."}

	s := newSweeper(api, ans, bus.NewDedupeCache(10))
	if err := s.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if len(ans.questions) != 1 || ans.questions[0] != `Question about "Blue Case": Does it fit?` {
		t.Errorf("question = %v", ans.questions)
	}
}

// TestSweeper_EmptyList verifies a quiet cycle does nothing.
func TestSweeper_EmptyList(t *testing.T) {
	api := &fakeItemAPI{}
	ans := &fakeAnswerer{reply: "x"}
	s := newSweeper(api, ans, bus.NewDedupeCache(10))
	if err := s.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if len(ans.questions) != 0 {
		t.Errorf("answerer called on empty list")
	}
}

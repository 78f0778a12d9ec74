package poller

import (
	"context"
	"errors"
	"testing"

	"github.com/nextlevelbuilder/sellerclaw/internal/marketplace"
)

type sentMessage struct {
	chatID, text, sign string
}

type fakeEventAPI struct {
	batches []*marketplace.EventsBatch
	pollErr error
	sent    []sentMessage
	cursors []marketplace.Cursor
}

func (f *fakeEventAPI) PollEvents(_ context.Context, cursor marketplace.Cursor, _ int) (*marketplace.EventsBatch, error) {
	f.cursors = append(f.cursors, cursor)
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	if len(f.batches) == 0 {
		return &marketplace.EventsBatch{}, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeEventAPI) PostChatMessage(_ context.Context, chatID, text, sign string) error {
	f.sent = append(f.sent, sentMessage{chatID, text, sign})
	return nil
}

func intPtr(v int64) *int64 { return &v }

// TestResponder_FailClosedWithoutSign verifies that an event with text and
// chat id but no resolvable reply sign generates no send, while the cursor
// still advances.
func TestResponder_FailClosedWithoutSign(t *testing.T) {
	api := &fakeEventAPI{batches: []*marketplace.EventsBatch{{
		Next: intPtr(42),
		Events: []marketplace.ChatEvent{
			{ID: 1, Type: "message", ChatID: "C1", Text: "hi", Sender: "client"},
		},
	}}}
	r := NewChatResponder(api, &fakeAnswerer{reply: "hello"}, 100, false)

	if err := r.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if len(api.sent) != 0 {
		t.Errorf("sent = %v, want none (no reply sign)", api.sent)
	}
	cur := r.Cursor()
	if cur.Next == nil || *cur.Next != 42 {
		t.Errorf("cursor.Next = %v, want 42", cur.Next)
	}
	if cur.LastEventID != 1 {
		t.Errorf("cursor.LastEventID = %d, want 1", cur.LastEventID)
	}
}

// TestResponder_SignFromEventAndCache verifies an event's own token is used
// and cached for later events in the same chat.
func TestResponder_SignFromEventAndCache(t *testing.T) {
	api := &fakeEventAPI{batches: []*marketplace.EventsBatch{
		{Events: []marketplace.ChatEvent{
			{ID: 1, Type: "message", ChatID: "C1", Text: "first", Sender: "client", ReplySign: "sig-1"},
		}},
		{Events: []marketplace.ChatEvent{
			{ID: 2, Type: "message", ChatID: "C1", Text: "second", Sender: "client"},
		}},
	}}
	r := NewChatResponder(api, &fakeAnswerer{reply: "reply"}, 100, false)

	if err := r.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle 1: %v", err)
	}
	if err := r.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle 2: %v", err)
	}

	if len(api.sent) != 2 {
		t.Fatalf("sent = %d messages, want 2", len(api.sent))
	}
	if api.sent[0].sign != "sig-1" || api.sent[1].sign != "sig-1" {
		t.Errorf("signs = %q/%q, want sig-1 for both", api.sent[0].sign, api.sent[1].sign)
	}
}

// TestResponder_TokenCachedFromFilteredEvent verifies a non-message event
// carrying a token still feeds the sign store.
func TestResponder_TokenCachedFromFilteredEvent(t *testing.T) {
	api := &fakeEventAPI{batches: []*marketplace.EventsBatch{{
		Events: []marketplace.ChatEvent{
			{ID: 1, Type: "chat_opened", ChatID: "C2", ReplySign: "sig-2"},
			{ID: 2, Type: "message", ChatID: "C2", Text: "hello", Sender: "client"},
		},
	}}}
	r := NewChatResponder(api, &fakeAnswerer{reply: "hi"}, 100, false)

	if err := r.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if len(api.sent) != 1 || api.sent[0].sign != "sig-2" {
		t.Errorf("sent = %v, want one message signed sig-2", api.sent)
	}
}

// TestResponder_SkipsNonCustomerEvents verifies seller echoes and status
// events never trigger replies.
func TestResponder_SkipsNonCustomerEvents(t *testing.T) {
	ans := &fakeAnswerer{reply: "x"}
	api := &fakeEventAPI{batches: []*marketplace.EventsBatch{{
		Events: []marketplace.ChatEvent{
			{ID: 1, Type: "message", ChatID: "C1", Text: "echo", Sender: "seller", ReplySign: "s"},
			{ID: 2, Type: "chat_read", ChatID: "C1", Text: "x", Sender: "client"},
			{ID: 3, Type: "message", ChatID: "C1", Sender: "client"}, // no text
		},
	}}}
	r := NewChatResponder(api, ans, 100, false)

	if err := r.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if len(ans.questions) != 0 {
		t.Errorf("answerer called for non-qualifying events: %v", ans.questions)
	}
	if r.Cursor().LastEventID != 3 {
		t.Errorf("LastEventID = %d, want 3", r.Cursor().LastEventID)
	}
}

// TestResponder_PollFailureKeepsCursor verifies the cursor never advances on
// a failed fetch, so no events are skipped.
func TestResponder_PollFailureKeepsCursor(t *testing.T) {
	api := &fakeEventAPI{pollErr: errors.New("timeout")}
	r := NewChatResponder(api, &fakeAnswerer{reply: "x"}, 100, false)

	if err := r.Cycle(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	cur := r.Cursor()
	if cur.Next != nil || cur.LastEventID != 0 {
		t.Errorf("cursor advanced on failure: %+v", cur)
	}
}

// TestResponder_GenerationFailureDoesNotBlockBatch verifies one failed reply
// doesn't stop later events or cursor advancement.
func TestResponder_GenerationFailureDoesNotBlockBatch(t *testing.T) {
	api := &fakeEventAPI{batches: []*marketplace.EventsBatch{{
		Next: intPtr(10),
		Events: []marketplace.ChatEvent{
			{ID: 1, Type: "message", ChatID: "C1", Text: "a", Sender: "client", ReplySign: "s1"},
		},
	}}}
	r := NewChatResponder(api, &fakeAnswerer{err: errors.New("llm down")}, 100, false)

	if err := r.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if len(api.sent) != 0 {
		t.Errorf("sent = %v, want none", api.sent)
	}
	if cur := r.Cursor(); cur.Next == nil || *cur.Next != 10 {
		t.Errorf("cursor = %+v, want Next 10", cur)
	}
}

// TestResponder_NextTokenUsedOnFollowUp verifies the second poll addresses the
// feed by the token from the first response.
func TestResponder_NextTokenUsedOnFollowUp(t *testing.T) {
	api := &fakeEventAPI{batches: []*marketplace.EventsBatch{
		{Next: intPtr(42)},
		{Next: intPtr(43)},
	}}
	r := NewChatResponder(api, &fakeAnswerer{reply: "x"}, 100, false)

	r.Cycle(context.Background())
	r.Cycle(context.Background())

	if len(api.cursors) != 2 {
		t.Fatalf("polls = %d", len(api.cursors))
	}
	if api.cursors[0].Next != nil {
		t.Errorf("first poll should start with empty cursor")
	}
	if api.cursors[1].Next == nil || *api.cursors[1].Next != 42 {
		t.Errorf("second poll cursor = %+v, want Next 42", api.cursors[1])
	}
}

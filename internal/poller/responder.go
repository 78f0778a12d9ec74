package poller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nextlevelbuilder/sellerclaw/internal/marketplace"
	"github.com/nextlevelbuilder/sellerclaw/internal/sessions"
)

// EventAPI is the marketplace surface the chat responder needs.
type EventAPI interface {
	PollEvents(ctx context.Context, cursor marketplace.Cursor, limit int) (*marketplace.EventsBatch, error)
	PostChatMessage(ctx context.Context, chatID, text, replySign string) error
}

// ChatResponder walks the seller chat event feed with a moving cursor and
// replies to inbound customer messages. Replies require the chat's
// reply-authorization token; without one the send is suppressed (fail-closed),
// never sent unsigned.
type ChatResponder struct {
	api      EventAPI
	answerer Answerer
	signs    *SignStore
	cursor   marketplace.Cursor
	limit    int
	debug    bool
}

// NewChatResponder creates a responder starting from an empty cursor, so the
// first poll fetches from the feed's current position.
func NewChatResponder(api EventAPI, answerer Answerer, limit int, debug bool) *ChatResponder {
	if limit <= 0 {
		limit = 100
	}
	return &ChatResponder{
		api:      api,
		answerer: answerer,
		signs:    NewSignStore(),
		limit:    limit,
		debug:    debug,
	}
}

// Cursor returns the current feed position.
func (r *ChatResponder) Cursor() marketplace.Cursor {
	return r.cursor
}

// Cycle polls one batch of events and processes them in order. The cursor
// advances exactly once per successfully fetched batch, regardless of
// per-event outcomes — one failed reply must not cause the whole batch to be
// re-delivered next cycle. A fetch or parse failure leaves the cursor
// untouched so nothing is skipped.
func (r *ChatResponder) Cycle(ctx context.Context) error {
	batch, err := r.api.PollEvents(ctx, r.cursor, r.limit)
	if err != nil {
		return fmt.Errorf("poll events: %w", err)
	}

	if r.debug {
		slog.Debug("chat events fetched", "count", len(batch.Events), "next", batch.Next)
	}

	var maxEventID int64
	for i := range batch.Events {
		ev := &batch.Events[i]
		if ev.ID > maxEventID {
			maxEventID = ev.ID
		}

		// Tokens are cached from every event that carries one, including
		// events filtered out below — a status event may hold the only
		// token we ever see for its chat.
		if ev.ChatID != "" && ev.ReplySign != "" {
			r.signs.Put(ev.ChatID, ev.ReplySign)
		}

		if !ev.IsCustomerMessage() {
			if r.debug {
				slog.Debug("event skipped", "event_id", ev.ID, "type", ev.Type, "sender", ev.Sender)
			}
			continue
		}
		if ev.ChatID == "" || strings.TrimSpace(ev.Text) == "" {
			if r.debug {
				slog.Debug("event missing chat id or text", "event_id", ev.ID)
			}
			continue
		}

		r.respond(ctx, ev)
	}

	r.cursor.Advance(batch.Next, maxEventID)
	return nil
}

func (r *ChatResponder) respond(ctx context.Context, ev *marketplace.ChatEvent) {
	key := sessions.BuildSessionKey("marketplace-chat", ev.ChatID)
	reply, err := r.answerer.Answer(ctx, key, ev.Text)
	if err != nil {
		// The answerer returns a safe fallback text alongside the error; a
		// canned apology in a live chat beats silence, so the send proceeds.
		slog.Error("chat reply generation failed", "chat_id", ev.ChatID, "error", err)
	}
	if strings.TrimSpace(reply) == "" {
		return
	}

	sign := ev.ReplySign
	if sign == "" {
		sign = r.signs.Get(ev.ChatID)
	}
	if sign == "" {
		slog.Warn("no reply sign for chat, suppressing send", "chat_id", ev.ChatID)
		return
	}

	if err := r.api.PostChatMessage(ctx, ev.ChatID, reply, sign); err != nil {
		slog.Error("chat reply send failed", "chat_id", ev.ChatID, "error", err)
		return
	}
	slog.Info("chat reply sent", "chat_id", ev.ChatID)
}

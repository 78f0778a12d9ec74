// Package marketplace is the client for the seller-side marketplace API:
// unanswered feedbacks/questions, the chat event feed, and posting replies.
package marketplace

import (
	"encoding/json"
	"strings"
	"time"
)

// Item kinds as exposed to the poller.
const (
	KindFeedback = "feedback"
	KindQuestion = "question"
)

// PendingItem is a remote unanswered question or review awaiting a reply.
type PendingItem struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Text        string    `json:"text"`
	ProductName string    `json:"productName,omitempty"`
	CreatedAt   time.Time `json:"createdDate"`
}

// Cursor is the polling position in the chat event feed. Once a next token
// has been observed it supersedes lastEventID; the two addressing schemes are
// never mixed in one request.
type Cursor struct {
	Next        *int64
	LastEventID int64
}

// Advance folds a batch's next token and the running max event id into the
// cursor for the following poll.
func (c *Cursor) Advance(next *int64, maxEventID int64) {
	if next != nil {
		c.Next = next
	}
	if maxEventID > c.LastEventID {
		c.LastEventID = maxEventID
	}
}

// ChatEvent is one entry from the seller event feed. The feed is loose about
// field placement: ids, chat ids, text, and sender may live at the top level
// or inside a nested message object.
type ChatEvent struct {
	ID        int64
	Type      string
	ChatID    string
	Text      string
	Sender    string
	ReplySign string
}

// IsCustomerMessage reports whether the event is an inbound customer message
// that should trigger a generated reply. Outbound/operator echoes never do.
func (e *ChatEvent) IsCustomerMessage() bool {
	switch strings.ToLower(e.Type) {
	case "message", "msg", "user_message", "buyer_message":
	default:
		return false
	}
	if e.Sender != "" && strings.ToLower(e.Sender) != "client" {
		return false
	}
	return true
}

type rawChatEvent struct {
	ID        *int64 `json:"id"`
	EventID   *int64 `json:"eventId"`
	Type      string `json:"type"`
	EventType string `json:"eventType"`
	ChatID    string `json:"chatId"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Message   *struct {
		ChatID    string `json:"chatId"`
		Text      string `json:"text"`
		Sender    string `json:"sender"`
		ReplySign string `json:"replySign"`
	} `json:"message"`
}

// UnmarshalJSON flattens the feed's alias fields into one shape.
func (e *ChatEvent) UnmarshalJSON(data []byte) error {
	var raw rawChatEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.ID != nil:
		e.ID = *raw.ID
	case raw.EventID != nil:
		e.ID = *raw.EventID
	}

	e.Type = raw.Type
	if e.Type == "" {
		e.Type = raw.EventType
	}

	e.ChatID = raw.ChatID
	e.Text = raw.Text
	e.Sender = raw.Sender
	if raw.Message != nil {
		if e.ChatID == "" {
			e.ChatID = raw.Message.ChatID
		}
		if e.Text == "" {
			e.Text = raw.Message.Text
		}
		if e.Sender == "" {
			e.Sender = raw.Message.Sender
		}
		e.ReplySign = raw.Message.ReplySign
	}
	return nil
}

// EventsBatch is one page of the chat event feed.
type EventsBatch struct {
	Next   *int64
	Events []ChatEvent
}

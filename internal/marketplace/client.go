package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client talks to the marketplace seller API. All calls share one rate
// limiter: the API throttles per seller token, not per endpoint.
type Client struct {
	apiKey        string
	feedbacksBase string
	chatBase      string
	authScheme    string // "Bearer" (default) or "" for a raw token header
	listLimit     int
	client        *http.Client
	limiter       *rate.Limiter
}

// Options tunes a Client beyond its endpoints.
type Options struct {
	AuthScheme string        // "Bearer" (default) or "raw" for a bare token header
	ListLimit  int           // items per list request, default 20
	Timeout    time.Duration // per-request timeout, default 30s
	RateLimit  rate.Limit    // requests per second, default 3
}

// NewClient creates a marketplace client. Base URLs may be equal; feedbacks
// and chat live under one host for some marketplaces.
func NewClient(apiKey, feedbacksBase, chatBase string, opts Options) *Client {
	if opts.ListLimit <= 0 {
		opts.ListLimit = 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 3
	}
	scheme := opts.AuthScheme
	switch {
	case scheme == "":
		scheme = "Bearer"
	case strings.EqualFold(scheme, "raw"):
		scheme = ""
	}

	return &Client{
		apiKey:        apiKey,
		feedbacksBase: strings.TrimRight(feedbacksBase, "/"),
		chatBase:      strings.TrimRight(chatBase, "/"),
		authScheme:    scheme,
		listLimit:     opts.ListLimit,
		client:        &http.Client{Timeout: opts.Timeout},
		limiter:       rate.NewLimiter(opts.RateLimit, 1),
	}
}

type rawItem struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	CreatedDate    time.Time `json:"createdDate"`
	ProductDetails struct {
		ProductName string `json:"productName"`
	} `json:"productDetails"`
}

type listEnvelope struct {
	Data struct {
		Feedbacks []rawItem `json:"feedbacks"`
		Questions []rawItem `json:"questions"`
	} `json:"data"`
}

// ListUnanswered fetches unanswered feedbacks and questions in one merged,
// oldest-first list. A zero since skips the date filter.
func (c *Client) ListUnanswered(ctx context.Context, since time.Time) ([]PendingItem, error) {
	var items []PendingItem

	for _, kind := range []string{KindFeedback, KindQuestion} {
		page, err := c.listKind(ctx, kind, since)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (c *Client) listKind(ctx context.Context, kind string, since time.Time) ([]PendingItem, error) {
	path := "/feedbacks"
	if kind == KindQuestion {
		path = "/questions"
	}

	params := url.Values{
		"isAnswered": {"false"},
		"take":       {strconv.Itoa(c.listLimit)},
		"skip":       {"0"},
		"order":      {"dateAsc"},
	}
	if !since.IsZero() {
		params.Set("dateFrom", strconv.FormatInt(since.Unix(), 10))
	}

	var envelope listEnvelope
	if err := c.getJSON(ctx, c.feedbacksBase+path+"?"+params.Encode(), &envelope); err != nil {
		return nil, fmt.Errorf("list %ss: %w", kind, err)
	}

	raws := envelope.Data.Feedbacks
	if kind == KindQuestion {
		raws = envelope.Data.Questions
	}

	items := make([]PendingItem, 0, len(raws))
	for _, r := range raws {
		items = append(items, PendingItem{
			ID:          r.ID,
			Kind:        kind,
			Text:        r.Text,
			ProductName: r.ProductDetails.ProductName,
			CreatedAt:   r.CreatedDate,
		})
	}
	return items, nil
}

// PostAnswer publishes a reply to a feedback or question. One endpoint serves
// both kinds; the API answers 204 on success.
func (c *Client) PostAnswer(ctx context.Context, id, text string) error {
	body := map[string]string{"id": id, "text": text}
	if err := c.postJSON(ctx, c.feedbacksBase+"/feedbacks/answer", body); err != nil {
		return fmt.Errorf("post answer %s: %w", id, err)
	}
	slog.Info("answer posted", "item_id", id, "text_len", len(text))
	return nil
}

type eventsData struct {
	Next   *int64      `json:"next"`
	Events []ChatEvent `json:"events"`
}

type eventsEnvelope struct {
	Result *eventsData `json:"result"`
	Data   *eventsData `json:"data"`
}

// PollEvents fetches the next page of chat events after the cursor.
func (c *Client) PollEvents(ctx context.Context, cursor Cursor, limit int) (*EventsBatch, error) {
	if limit <= 0 {
		limit = 100
	}
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	switch {
	case cursor.Next != nil:
		params.Set("next", strconv.FormatInt(*cursor.Next, 10))
	case cursor.LastEventID > 0:
		params.Set("lastEventId", strconv.FormatInt(cursor.LastEventID, 10))
	}

	var envelope eventsEnvelope
	if err := c.getJSON(ctx, c.chatBase+"/seller/events?"+params.Encode(), &envelope); err != nil {
		return nil, fmt.Errorf("poll events: %w", err)
	}

	container := envelope.Result
	if container == nil {
		container = envelope.Data
	}
	if container == nil {
		return nil, fmt.Errorf("poll events: response has neither result nor data")
	}

	return &EventsBatch{Next: container.Next, Events: container.Events}, nil
}

// PostChatMessage sends a reply into a buyer chat. replySign is the
// reply-authorization token and must not be empty; callers enforce that.
func (c *Client) PostChatMessage(ctx context.Context, chatID, text, replySign string) error {
	body := map[string]string{"chatId": chatID, "text": text, "replySign": replySign}
	if err := c.postJSON(ctx, c.chatBase+"/seller/message", body); err != nil {
		return fmt.Errorf("post chat message %s: %w", chatID, err)
	}
	slog.Info("chat message posted", "chat_id", chatID, "text_len", len(text))
	return nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, rawURL string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", rawURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	if c.authScheme != "" {
		req.Header.Set("Authorization", c.authScheme+" "+c.apiKey)
	} else {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config is the root configuration for the SellerClaw gateway.
type Config struct {
	Channels    ChannelsConfig    `json:"channels"`
	Marketplace MarketplaceConfig `json:"marketplace,omitempty"`
	Providers   ProvidersConfig   `json:"providers"`
	Retriever   RetrieverConfig   `json:"retriever,omitempty"`
	Sessions    SessionsConfig    `json:"sessions"`
	Guard       GuardConfig       `json:"guard,omitempty"`
}

// ChannelsConfig groups the chat transports.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram,omitempty"`
}

// TelegramConfig configures the Telegram support channel.
type TelegramConfig struct {
	Enabled         bool     `json:"enabled,omitempty"`
	Token           string   `json:"-"` // from env SELLERCLAW_TELEGRAM_TOKEN only
	Proxy           string   `json:"proxy,omitempty"`
	DebounceSeconds int      `json:"debounce_seconds,omitempty"` // quiet period for merging bursts (default 2)
	OperatorIDs     []string `json:"operator_ids,omitempty"`     // senders allowed to issue override commands
	TakeoverCommand string   `json:"takeover_command,omitempty"` // default "/takeover"
	ReleaseCommand  string   `json:"release_command,omitempty"`  // default "/bot"
}

// MarketplaceConfig configures the marketplace questions/reviews/chat APIs.
// APIKey is NEVER read from config.json (secret) — only from env
// SELLERCLAW_MARKETPLACE_API_KEY.
type MarketplaceConfig struct {
	APIKey                  string `json:"-"`
	FeedbacksBase           string `json:"feedbacks_base,omitempty"`
	ChatBase                string `json:"chat_base,omitempty"`
	AuthScheme              string `json:"auth_scheme,omitempty"` // "bearer" (default) or "raw"
	CheckIntervalSeconds    int    `json:"check_interval_seconds,omitempty"`
	ChatPollIntervalSeconds int    `json:"chat_poll_interval_seconds,omitempty"`
	LookbackDays            int    `json:"lookback_days,omitempty"` // 0 = only items newer than startup
	AnsweredCacheSize       int    `json:"answered_cache_size,omitempty"`
	EventBatchLimit         int    `json:"event_batch_limit,omitempty"`
	ChatDebug               bool   `json:"chat_debug,omitempty"` // verbose event tracing
}

// Enabled reports whether the marketplace pollers should run.
func (m MarketplaceConfig) Enabled() bool {
	return m.APIKey != ""
}

// ProvidersConfig holds LLM provider settings.
type ProvidersConfig struct {
	OpenAI OpenAIConfig `json:"openai,omitempty"`
}

// OpenAIConfig configures the OpenAI-compatible chat completions endpoint.
type OpenAIConfig struct {
	APIKey      string  `json:"-"` // from env SELLERCLAW_OPENAI_API_KEY only
	APIBase     string  `json:"api_base,omitempty"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// RetrieverConfig configures the knowledge-base vector retriever.
type RetrieverConfig struct {
	KnowledgeFile  string `json:"knowledge_file,omitempty"`
	ChunkSize      int    `json:"chunk_size,omitempty"`
	ChunkOverlap   int    `json:"chunk_overlap,omitempty"`
	TopK           int    `json:"top_k,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	Watch          *bool  `json:"watch,omitempty"` // rebuild index on file change (default true)
}

// WatchEnabled returns the effective watch flag.
func (r RetrieverConfig) WatchEnabled() bool {
	return r.Watch == nil || *r.Watch
}

// SessionsConfig configures conversation history storage.
type SessionsConfig struct {
	Storage      string `json:"storage,omitempty"`
	HistoryLimit int    `json:"history_limit,omitempty"` // max exchanges kept per user
}

// GuardConfig configures reply normalization.
type GuardConfig struct {
	FallbackText      string   `json:"fallback_text,omitempty"`
	FailureSignatures []string `json:"failure_signatures,omitempty"` // extends the built-in set
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

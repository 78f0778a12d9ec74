package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{
				DebounceSeconds: 2,
				TakeoverCommand: "/takeover",
				ReleaseCommand:  "/bot",
			},
		},
		Marketplace: MarketplaceConfig{
			FeedbacksBase:           "https://feedbacks-api.wildberries.ru/api/v1",
			ChatBase:                "https://buyer-chat-api.wildberries.ru/api/v1",
			AuthScheme:              "bearer",
			CheckIntervalSeconds:    300,
			ChatPollIntervalSeconds: 20,
			AnsweredCacheSize:       100,
			EventBatchLimit:         100,
		},
		Providers: ProvidersConfig{
			OpenAI: OpenAIConfig{
				Model:       "gpt-4o-mini",
				MaxTokens:   400,
				Temperature: 0.5,
			},
		},
		Retriever: RetrieverConfig{
			KnowledgeFile:  "knowledge_base.txt",
			ChunkSize:      1000,
			ChunkOverlap:   100,
			TopK:           3,
			EmbeddingModel: "text-embedding-3-small",
		},
		Sessions: SessionsConfig{
			Storage:      "~/.sellerclaw/sessions",
			HistoryLimit: 20,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error — defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				*dst = n
			}
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	// Secrets are env-only.
	envStr("SELLERCLAW_TELEGRAM_TOKEN", &c.Channels.Telegram.Token)
	envStr("SELLERCLAW_MARKETPLACE_API_KEY", &c.Marketplace.APIKey)
	envStr("SELLERCLAW_OPENAI_API_KEY", &c.Providers.OpenAI.APIKey)

	// Auto-enable the channel if credentials are provided via env.
	if c.Channels.Telegram.Token != "" {
		c.Channels.Telegram.Enabled = true
	}

	envStr("SELLERCLAW_OPENAI_API_BASE", &c.Providers.OpenAI.APIBase)
	envStr("SELLERCLAW_MODEL", &c.Providers.OpenAI.Model)

	envStr("SELLERCLAW_MARKETPLACE_CHAT_BASE", &c.Marketplace.ChatBase)
	envStr("SELLERCLAW_MARKETPLACE_AUTH_SCHEME", &c.Marketplace.AuthScheme)
	envInt("SELLERCLAW_CHECK_INTERVAL_SECONDS", &c.Marketplace.CheckIntervalSeconds)
	envInt("SELLERCLAW_CHAT_POLL_INTERVAL_SECONDS", &c.Marketplace.ChatPollIntervalSeconds)
	envInt("SELLERCLAW_LOOKBACK_DAYS", &c.Marketplace.LookbackDays)
	envBool("SELLERCLAW_CHAT_DEBUG", &c.Marketplace.ChatDebug)

	envInt("SELLERCLAW_DEBOUNCE_SECONDS", &c.Channels.Telegram.DebounceSeconds)

	envStr("SELLERCLAW_KNOWLEDGE_FILE", &c.Retriever.KnowledgeFile)
	envStr("SELLERCLAW_SESSIONS_STORAGE", &c.Sessions.Storage)

	// Operator IDs from env (comma-separated).
	if v := os.Getenv("SELLERCLAW_OPERATOR_IDS"); v != "" {
		c.Channels.Telegram.OperatorIDs = strings.Split(v, ",")
	}
}

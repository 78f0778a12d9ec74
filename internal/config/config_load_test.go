package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoad_MissingFile verifies that defaults apply when no config file exists.
func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Channels.Telegram.DebounceSeconds != 2 {
		t.Errorf("DebounceSeconds = %d, want 2", cfg.Channels.Telegram.DebounceSeconds)
	}
	if cfg.Marketplace.CheckIntervalSeconds != 300 {
		t.Errorf("CheckIntervalSeconds = %d, want 300", cfg.Marketplace.CheckIntervalSeconds)
	}
	if cfg.Marketplace.ChatPollIntervalSeconds != 20 {
		t.Errorf("ChatPollIntervalSeconds = %d, want 20", cfg.Marketplace.ChatPollIntervalSeconds)
	}
	if cfg.Channels.Telegram.TakeoverCommand != "/takeover" || cfg.Channels.Telegram.ReleaseCommand != "/bot" {
		t.Errorf("override commands = %q/%q, want /takeover //bot",
			cfg.Channels.Telegram.TakeoverCommand, cfg.Channels.Telegram.ReleaseCommand)
	}
}

// TestLoad_FileAndEnvPrecedence verifies file values load and env wins over file.
func TestLoad_FileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		// JSON5 comments are allowed
		channels: { telegram: { debounce_seconds: 5, takeover_command: "/manual" } },
		marketplace: { check_interval_seconds: 60, lookback_days: 3 },
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SELLERCLAW_CHECK_INTERVAL_SECONDS", "90")
	t.Setenv("SELLERCLAW_TELEGRAM_TOKEN", "tok-123")
	t.Setenv("SELLERCLAW_OPERATOR_IDS", "111,222")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Channels.Telegram.DebounceSeconds != 5 {
		t.Errorf("DebounceSeconds = %d, want 5 (file)", cfg.Channels.Telegram.DebounceSeconds)
	}
	if cfg.Channels.Telegram.TakeoverCommand != "/manual" {
		t.Errorf("TakeoverCommand = %q, want /manual", cfg.Channels.Telegram.TakeoverCommand)
	}
	if cfg.Marketplace.CheckIntervalSeconds != 90 {
		t.Errorf("CheckIntervalSeconds = %d, want 90 (env over file)", cfg.Marketplace.CheckIntervalSeconds)
	}
	if cfg.Marketplace.LookbackDays != 3 {
		t.Errorf("LookbackDays = %d, want 3", cfg.Marketplace.LookbackDays)
	}
	if !cfg.Channels.Telegram.Enabled {
		t.Error("telegram should auto-enable when token env is set")
	}
	if len(cfg.Channels.Telegram.OperatorIDs) != 2 {
		t.Errorf("OperatorIDs = %v, want 2 entries", cfg.Channels.Telegram.OperatorIDs)
	}
}

// TestMarketplaceEnabled verifies pollers are gated on the API key.
func TestMarketplaceEnabled(t *testing.T) {
	m := MarketplaceConfig{}
	if m.Enabled() {
		t.Error("marketplace without key should be disabled")
	}
	m.APIKey = "k"
	if !m.Enabled() {
		t.Error("marketplace with key should be enabled")
	}
}

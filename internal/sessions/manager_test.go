package sessions

import (
	"testing"
)

// TestManager_AddExchangeAndHistory verifies history accumulation and copies.
func TestManager_AddExchangeAndHistory(t *testing.T) {
	m := NewManager("", 0)
	key := BuildSessionKey("telegram", "100")

	m.AddExchange(key, "Is it waterproof?", "Yes, rated IP67.")
	m.AddExchange(key, "What about warranty?", "One year.")

	hist := m.GetHistory(key)
	if len(hist) != 4 {
		t.Fatalf("history length = %d, want 4", len(hist))
	}
	if hist[0].Role != "user" || hist[1].Role != "assistant" {
		t.Errorf("roles = %s/%s", hist[0].Role, hist[1].Role)
	}
	if hist[3].Content != "One year." {
		t.Errorf("last message = %q", hist[3].Content)
	}

	// Mutating the returned slice must not affect stored history.
	hist[0].Content = "tampered"
	if got := m.GetHistory(key)[0].Content; got != "Is it waterproof?" {
		t.Errorf("stored history mutated: %q", got)
	}
}

// TestManager_HistoryLimit verifies the oldest exchanges are trimmed.
func TestManager_HistoryLimit(t *testing.T) {
	m := NewManager("", 2)
	key := BuildSessionKey("wb", "chat-1")

	m.AddExchange(key, "q1", "a1")
	m.AddExchange(key, "q2", "a2")
	m.AddExchange(key, "q3", "a3")

	hist := m.GetHistory(key)
	if len(hist) != 4 {
		t.Fatalf("history length = %d, want 4 (2 exchanges)", len(hist))
	}
	if hist[0].Content != "q2" {
		t.Errorf("oldest kept = %q, want q2", hist[0].Content)
	}
}

// TestManager_SaveAndReload verifies persistence round-trips through disk.
func TestManager_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	key := BuildSessionKey("telegram", "42")

	m := NewManager(dir, 10)
	m.AddExchange(key, "hello", "hi there")
	if err := m.Save(key); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m2 := NewManager(dir, 10)
	hist := m2.GetHistory(key)
	if len(hist) != 2 {
		t.Fatalf("reloaded history length = %d, want 2", len(hist))
	}
	if hist[1].Content != "hi there" {
		t.Errorf("reloaded reply = %q", hist[1].Content)
	}
}

// TestManager_DeleteRemovesFile verifies Delete clears memory and disk.
func TestManager_DeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	key := BuildSessionKey("telegram", "7")

	m := NewManager(dir, 0)
	m.AddExchange(key, "q", "a")
	if err := m.Save(key); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := m.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	m2 := NewManager(dir, 0)
	if got := m2.GetHistory(key); got != nil {
		t.Errorf("history after delete = %v, want nil", got)
	}
}

// TestParseSessionKey verifies the key round-trip.
func TestParseSessionKey(t *testing.T) {
	ch, id := ParseSessionKey(BuildSessionKey("wb", "chat-8841"))
	if ch != "wb" || id != "chat-8841" {
		t.Errorf("parsed = %q/%q", ch, id)
	}
	if ch, id := ParseSessionKey("bogus"); ch != "" || id != "" {
		t.Errorf("bogus key parsed = %q/%q", ch, id)
	}
}

package override

import "testing"

// TestRegistry_Transitions walks the two-state machine.
func TestRegistry_Transitions(t *testing.T) {
	r := NewRegistry()

	if r.Mode("c1") != ModeBot {
		t.Error("initial mode should be bot")
	}

	r.Takeover("c1")
	if !r.IsOperated("c1") {
		t.Error("c1 should be operated after takeover")
	}
	if r.IsOperated("c2") {
		t.Error("c2 should be unaffected by c1 takeover")
	}

	// Takeover is idempotent.
	r.Takeover("c1")
	if r.Mode("c1") != ModeOperator {
		t.Error("repeated takeover should keep operator mode")
	}

	r.Release("c1")
	if r.IsOperated("c1") {
		t.Error("c1 should return to bot mode after release")
	}

	// Release on a bot-mode chat is a no-op.
	r.Release("c3")
	if r.Mode("c3") != ModeBot {
		t.Error("releasing an unoperated chat should stay bot")
	}
}

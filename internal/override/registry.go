// Package override tracks which conversations are under manual operator
// control. While a chat is in operator mode the bot stays fully silent for it;
// only the operator's own replies reach the customer.
package override

import (
	"log/slog"
	"sync"
)

// Mode is the control mode of one conversation.
type Mode string

const (
	// ModeBot means automated replies are active (initial state).
	ModeBot Mode = "bot"
	// ModeOperator means a human operator has taken the conversation over.
	ModeOperator Mode = "operator"
)

// Registry is a per-conversation two-state machine: bot ⇄ operator.
// Transitions happen only through explicit Takeover/Release commands; there is
// no timeout-based auto-release — a missed release command leaves the chat in
// operator mode until the operator returns it.
type Registry struct {
	mu       sync.RWMutex
	operated map[string]struct{}
}

// NewRegistry creates an empty registry; every conversation starts in bot mode.
func NewRegistry() *Registry {
	return &Registry{operated: make(map[string]struct{})}
}

// Takeover puts the conversation under operator control.
func (r *Registry) Takeover(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.operated[key]; ok {
		return
	}
	r.operated[key] = struct{}{}
	slog.Info("operator takeover", "chat_id", key)
}

// Release returns the conversation to bot control. Releasing a chat already in
// bot mode is a no-op.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.operated[key]; !ok {
		return
	}
	delete(r.operated, key)
	slog.Info("operator release", "chat_id", key)
}

// Mode returns the current control mode for the conversation.
func (r *Registry) Mode(key string) Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.operated[key]; ok {
		return ModeOperator
	}
	return ModeBot
}

// IsOperated reports whether the conversation is under operator control.
func (r *Registry) IsOperated(key string) bool {
	return r.Mode(key) == ModeOperator
}

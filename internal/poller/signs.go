package poller

import "sync"

// SignStore remembers the most recent reply-authorization token seen per
// chat. The feed only attaches a token to some events; a later event in the
// same chat reuses the cached one.
type SignStore struct {
	mu    sync.RWMutex
	signs map[string]string
}

func NewSignStore() *SignStore {
	return &SignStore{signs: make(map[string]string)}
}

// Put records the latest token for a chat.
func (s *SignStore) Put(chatID, sign string) {
	s.mu.Lock()
	s.signs[chatID] = sign
	s.mu.Unlock()
}

// Get returns the cached token for a chat, or "" if none was ever observed.
func (s *SignStore) Get(chatID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signs[chatID]
}

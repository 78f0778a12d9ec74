// Package sessions — conversation history keyed by channel + chat.
//
// Session keys follow the canonical format:
//
//	chat:{channel}:{chatID}
//
// Examples:
//
//	chat:telegram:386246614
//	chat:wb:chat-8841
package sessions

import (
	"fmt"
	"strings"
)

// BuildSessionKey builds the canonical session key for a conversation.
func BuildSessionKey(channel, chatID string) string {
	return fmt.Sprintf("chat:%s:%s", channel, chatID)
}

// ParseSessionKey extracts the channel and chatID from a canonical key.
// Returns ("", "") if the key is not in the expected format.
func ParseSessionKey(key string) (channel, chatID string) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 3 || parts[0] != "chat" {
		return "", ""
	}
	return parts[1], parts[2]
}

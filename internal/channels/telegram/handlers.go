package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/nextlevelbuilder/sellerclaw/internal/channels"
)

// handleMessage processes one incoming Telegram message: operator override
// commands first, then the operator-mode gate, then publication to the bus.
func (c *Channel) handleMessage(ctx context.Context, message *telego.Message) {
	user := message.From
	if user == nil || message.Text == "" {
		return
	}

	userID := fmt.Sprintf("%d", user.ID)
	senderID := userID
	if user.Username != "" {
		senderID = fmt.Sprintf("%s|%s", userID, user.Username)
	}
	chatIDStr := fmt.Sprintf("%d", message.Chat.ID)

	slog.Debug("telegram message received",
		"chat_id", message.Chat.ID,
		"user_id", user.ID,
		"username", user.Username,
		"text_preview", channels.Truncate(message.Text, 60),
	)

	if cmd := matchOverrideCommand(message.Text, c.config.TakeoverCommand, c.config.ReleaseCommand); cmd != "" {
		c.handleOverrideCommand(ctx, cmd, chatIDStr, userID, message)
		return
	}

	// Operator mode: the bot is fully silent for this chat. The message never
	// reaches the debouncer; only the operator's manual replies go out.
	if c.overrides.IsOperated(chatIDStr) {
		slog.Debug("message suppressed, chat under operator control", "chat_id", chatIDStr)
		return
	}

	if !c.rate.Allow(userID) {
		slog.Warn("sender rate limited", "user_id", userID)
		return
	}

	c.HandleMessage(senderID, chatIDStr, message.Text, nil)
}

// handleOverrideCommand flips operator control for the chat and removes the
// command message from the transcript so the customer never sees it.
func (c *Channel) handleOverrideCommand(ctx context.Context, cmd, chatIDStr, userID string, message *telego.Message) {
	if !c.isOperator(userID) {
		slog.Warn("override command from non-operator ignored", "user_id", userID, "command", cmd)
		return
	}

	switch cmd {
	case c.config.TakeoverCommand:
		c.overrides.Takeover(chatIDStr)
	case c.config.ReleaseCommand:
		c.overrides.Release(chatIDStr)
	}

	err := c.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(message.Chat.ID),
		MessageID: message.MessageID,
	})
	if err != nil {
		slog.Warn("failed to delete override command message",
			"chat_id", chatIDStr, "error", err)
	}
}

func (c *Channel) isOperator(userID string) bool {
	for _, id := range c.config.OperatorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// matchOverrideCommand returns the matched command literal, or "". Commands
// must be the whole message (optionally with a @botname suffix Telegram adds
// when picking from the command menu).
func matchOverrideCommand(text, takeover, release string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "@"); idx > 0 {
		text = text[:idx]
	}
	switch {
	case takeover != "" && text == takeover:
		return takeover
	case release != "" && text == release:
		return release
	}
	return ""
}

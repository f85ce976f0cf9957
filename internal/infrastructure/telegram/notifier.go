package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"NewsDigest/internal/ports"
)

// maxMessageLength stays below Telegram's 4096 character limit.
const maxMessageLength = 4000

// Notifier sends HTML messages to Telegram chats.
type Notifier struct {
	api *tgbotapi.BotAPI
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier wraps an authorised bot API client.
func NewNotifier(api *tgbotapi.BotAPI) *Notifier {
	return &Notifier{api: api}
}

// Send posts text to the chat, split into several messages when it is too long.
func (n *Notifier) Send(ctx context.Context, chatID int64, text string) error {
	if n == nil || n.api == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	for _, part := range splitMessage(text, maxMessageLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := n.api.Send(msg); err != nil {
			return fmt.Errorf("send message to %d: %w", chatID, err)
		}
	}
	return nil
}

// splitMessage cuts text on blank lines so every part fits into limit runes.
// A single oversized entry is cut on rune boundaries.
func splitMessage(text string, limit int) []string {
	if len([]rune(text)) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for _, block := range strings.Split(text, "\n\n") {
		for len([]rune(block)) > limit {
			flush()
			runes := []rune(block)
			parts = append(parts, string(runes[:limit]))
			block = string(runes[limit:])
		}
		if block == "" {
			continue
		}

		sep := 0
		if current.Len() > 0 {
			sep = 2
		}
		if len([]rune(current.String()))+sep+len([]rune(block)) > limit {
			flush()
			sep = 0
		}
		if sep > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(block)
	}
	flush()
	return parts
}

package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"NewsDigest/internal/config"
)

// NewAPI authorises against the Bot API with the configured token.
func NewAPI(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	api.Debug = cfg.Debug
	return api, nil
}

// Bot long-polls updates and answers commands through the router.
type Bot struct {
	api      *tgbotapi.BotAPI
	router   *Router
	notifier *Notifier
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewBot wires the polling loop with the router and the outgoing notifier.
func NewBot(api *tgbotapi.BotAPI, router *Router, notifier *Notifier, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{api: api, router: router, notifier: notifier, logger: logger.With("component", "telegram")}
}

// Run polls until ctx is cancelled, then waits for in-flight handlers.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("bot started", "username", b.api.Self.UserName)

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	chatID := update.Message.Chat.ID
	b.logger.Debug("command received", "chat_id", chatID, "command", update.Message.Command())

	send := func(reply string) error {
		return b.notifier.Send(ctx, chatID, reply)
	}
	if err := b.router.Handle(ctx, chatID, update.Message.Text, send); err != nil {
		b.logger.Warn("reply failed", "chat_id", chatID, "error", err)
	}
}

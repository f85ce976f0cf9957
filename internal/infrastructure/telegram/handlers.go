package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsDigest/internal/category"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/usecase"
)

// Digests is the part of the pipeline the bot exposes to chats.
type Digests interface {
	ShortDigest(ctx context.Context) (string, error)
	DeepDigest(ctx context.Context) (string, error)
	MultilingualDigest(ctx context.Context) (string, error)
	ListCategoryCounts(ctx context.Context, window time.Duration) ([]domain.CategoryCount, error)
	ListByCategory(ctx context.Context, cat string, limit int) ([]domain.ArticleLink, error)
}

const categoryShortcutPrefix = "news_"

const (
	unknownCommandText = "Unknown command. Use /help for available commands."
	internalErrorText  = "⚠️ Something went wrong while processing your request. Please try again later."
	categoryUsageText  = "Usage: <code>/category politics</code>"
)

var _ Digests = (*usecase.Pipeline)(nil)

// Router maps chat commands onto pipeline entry points. It never talks to
// Telegram itself; replies are returned in the order they should be sent.
type Router struct {
	digests     Digests
	subscribers ports.SubscriberStore
	logger      *slog.Logger
}

// NewRouter builds a router over the pipeline and the subscriber store.
func NewRouter(digests Digests, subscribers ports.SubscriberStore, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{digests: digests, subscribers: subscribers, logger: logger.With("component", "router")}
}

// Handle processes one incoming text and passes every reply to send as soon
// as it is ready, so a progress notice goes out before the digest run starts.
// Non-command texts produce no reply. A send error ends the handling.
func (r *Router) Handle(ctx context.Context, chatID int64, text string, send func(string) error) error {
	cmd, args, ok := parseCommand(text)
	if !ok {
		return nil
	}

	switch {
	case cmd == "start" || cmd == "help":
		return send(helpText())
	case cmd == "news":
		return r.digest(ctx, chatID, cmd, "🦀 Collecting the news...", r.digests.ShortDigest, send)
	case cmd == "smartnews":
		return r.digest(ctx, chatID, cmd, "🧠 One moment, collecting and analysing the news...", r.digests.DeepDigest, send)
	case cmd == "multilangnews":
		return r.digest(ctx, chatID, cmd, "🌍 Collecting and translating the news...", r.digests.MultilingualDigest, send)
	case cmd == "subscribe":
		return send(r.subscribe(ctx, chatID))
	case cmd == "unsubscribe":
		return send(r.unsubscribe(ctx, chatID))
	case cmd == "categories":
		return send(r.categories(ctx, chatID))
	case cmd == "category":
		if len(args) == 0 {
			return send(categoryUsageText)
		}
		return send(r.byCategory(ctx, chatID, args[0]))
	case strings.HasPrefix(cmd, categoryShortcutPrefix):
		return send(r.byCategory(ctx, chatID, strings.TrimPrefix(cmd, categoryShortcutPrefix)))
	default:
		return send(unknownCommandText)
	}
}

func (r *Router) digest(ctx context.Context, chatID int64, cmd, progress string, run func(context.Context) (string, error), send func(string) error) error {
	if err := send(progress); err != nil {
		return err
	}

	result, err := run(ctx)
	switch {
	case err != nil:
		r.logger.Error("digest failed", "command", cmd, "chat_id", chatID, "error", err)
		return send(internalErrorText)
	case strings.TrimSpace(result) == "":
		return send(usecase.NoNewsMessage)
	default:
		return send(result)
	}
}

func (r *Router) subscribe(ctx context.Context, chatID int64) string {
	added, err := r.subscribers.AddSubscriber(ctx, chatID)
	if err != nil {
		r.logger.Error("subscribe", "chat_id", chatID, "error", err)
		return internalErrorText
	}
	if !added {
		return "✅ You are already subscribed."
	}
	return "✅ Subscription active! News will arrive every 2 hours."
}

func (r *Router) unsubscribe(ctx context.Context, chatID int64) string {
	removed, err := r.subscribers.RemoveSubscriber(ctx, chatID)
	if err != nil {
		r.logger.Error("unsubscribe", "chat_id", chatID, "error", err)
		return internalErrorText
	}
	if !removed {
		return "You were not subscribed."
	}
	return "❌ Subscription cancelled."
}

func (r *Router) categories(ctx context.Context, chatID int64) string {
	counts, err := r.digests.ListCategoryCounts(ctx, 0)
	if err != nil {
		r.logger.Error("category counts", "chat_id", chatID, "error", err)
		return internalErrorText
	}
	if len(counts) == 0 {
		return "⚠️ No categories yet. There is no news so far."
	}
	return "📊 <b>News by category:</b>\n\n" + usecase.FormatCategoryCounts(counts)
}

func (r *Router) byCategory(ctx context.Context, chatID int64, name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if !category.Known(name) {
		return fmt.Sprintf("⚠️ Unknown category. Available: %s", strings.Join(category.Names(), ", "))
	}

	links, err := r.digests.ListByCategory(ctx, name, 0)
	if err != nil {
		r.logger.Error("articles by category", "chat_id", chatID, "category", name, "error", err)
		return internalErrorText
	}
	if len(links) == 0 {
		return fmt.Sprintf("⚠️ No news in category: <b>%s</b>", name)
	}
	return fmt.Sprintf("🗞️ <b>Top news in category: %s</b>\n\n%s", name, usecase.FormatLinks(links))
}

// parseCommand splits "/cmd@bot arg1 arg2" into its lower-cased command and arguments.
func parseCommand(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	if cmd == "" {
		return "", nil, false
	}
	return strings.ToLower(cmd), fields[1:], true
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Hi, I am 🤖 <b>AI News Bot</b> 🇩🇪\n")
	b.WriteString("I collect fresh news from German media and write short summaries.\n\n")
	b.WriteString("📌 Commands:\n")
	b.WriteString("👉 /news: short digest\n")
	b.WriteString("👉 /smartnews: detailed summaries\n")
	b.WriteString("👉 /multilangnews: news in DE/EN/RU\n")
	b.WriteString("👉 /categories: article counts per category\n")
	b.WriteString("👉 /category &lt;name&gt;: latest news of a category\n")
	b.WriteString("👉 /subscribe: automatic updates every 2 hours\n")
	b.WriteString("👉 /unsubscribe: cancel the subscription\n\n")
	b.WriteString("Shortcuts: ")
	for i, name := range category.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("/" + categoryShortcutPrefix + name)
	}
	return b.String()
}

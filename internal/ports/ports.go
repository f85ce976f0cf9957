package ports

import (
	"context"
	"time"

	"NewsDigest/internal/domain"
)

// ArticleSource pulls a fresh batch of raw articles from upstream sites.
type ArticleSource interface {
	Fetch(ctx context.Context) ([]domain.RawArticle, error)
}

// ArticleStore persists articles and serves windowed read-backs.
type ArticleStore interface {
	// SaveArticle stores the article and its news log row in one unit of work.
	// A URL conflict still appends the news log row and yields
	// domain.ErrAlreadyStored.
	SaveArticle(ctx context.Context, article domain.StoredArticle) error
	RecentArticles(ctx context.Context, since time.Time, limit int) ([]domain.ArticleLink, error)
	CategoryCounts(ctx context.Context, since time.Time) ([]domain.CategoryCount, error)
	ArticlesByCategory(ctx context.Context, category string, limit int) ([]domain.ArticleLink, error)
}

// SubscriberStore keeps the chats registered for periodic digests.
type SubscriberStore interface {
	AddSubscriber(ctx context.Context, chatID int64) (bool, error)
	RemoveSubscriber(ctx context.Context, chatID int64) (bool, error)
	Subscribers(ctx context.Context) ([]domain.Subscriber, error)
}

// SummaryEngine produces an abstractive summary of the given text.
type SummaryEngine interface {
	Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error)
}

// TranslationEngine translates text between two languages.
type TranslationEngine interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Notifier delivers a digest to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Scheduler controls when periodic jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const uniqueViolation = "23505"

//go:embed schema.sql
var schema string

// DB is the subset of *pgxpool.Pool used by the repository.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository persists articles, the legacy news log and subscribers.
type PostgresRepository struct {
	db DB
	sb sq.StatementBuilderType
}

var (
	_ ports.ArticleStore    = (*PostgresRepository)(nil)
	_ ports.SubscriberStore = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a pgx pool (or anything shaped like one).
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureSchema creates the tables when they do not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveArticle inserts the article and its news log row in one transaction.
// A URL that is already stored rolls back only this article and the news log
// row is then written on its own.
func (r *PostgresRepository) SaveArticle(ctx context.Context, article domain.StoredArticle) error {
	articleSQL, articleArgs, err := r.sb.Insert("articles").
		Columns("title", "url", "content", "summary_de", "summary_en", "summary_ru", "lang", "category").
		Values(article.Title, article.URL, article.Content, article.SummaryDE, article.SummaryEN, article.SummaryRU, article.Lang, article.Category).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build article insert: %w", err)
	}

	legacy := article.Legacy()
	newsSQL, newsArgs, err := r.sb.Insert("news").
		Columns("title", "url", "summary").
		Values(legacy.Title, legacy.URL, legacy.Summary).
		ToSql()
	if err != nil {
		return fmt.Errorf("build news insert: %w", err)
	}

	stored, err := r.insertArticle(ctx, articleSQL, articleArgs, newsSQL, newsArgs)
	if err != nil {
		return err
	}
	if stored {
		return nil
	}

	if _, err := r.db.Exec(ctx, newsSQL, newsArgs...); err != nil {
		return fmt.Errorf("insert news for stored url %s: %w", article.URL, err)
	}
	return fmt.Errorf("%w: %s", domain.ErrAlreadyStored, article.URL)
}

// insertArticle reports false without error when the URL is already stored.
func (r *PostgresRepository) insertArticle(ctx context.Context, articleSQL string, articleArgs []any, newsSQL string, newsArgs []any) (stored bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil || !stored {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, articleSQL, articleArgs...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err = tx.Exec(ctx, newsSQL, newsArgs...); err != nil {
		return false, fmt.Errorf("insert news: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// RecentArticles returns the newest articles created since the given time.
func (r *PostgresRepository) RecentArticles(ctx context.Context, since time.Time, limit int) ([]domain.ArticleLink, error) {
	query, args, err := r.sb.Select("title", "url").
		From("articles").
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent query: %w", err)
	}
	return r.queryLinks(ctx, query, args...)
}

// ArticlesByCategory returns the newest articles of one category.
func (r *PostgresRepository) ArticlesByCategory(ctx context.Context, category string, limit int) ([]domain.ArticleLink, error) {
	query, args, err := r.sb.Select("title", "url").
		From("articles").
		Where(sq.Eq{"category": category}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category query: %w", err)
	}
	return r.queryLinks(ctx, query, args...)
}

// CategoryCounts groups the articles created since the given time by category.
func (r *PostgresRepository) CategoryCounts(ctx context.Context, since time.Time) ([]domain.CategoryCount, error) {
	query, args, err := r.sb.Select("COALESCE(NULLIF(category, ''), 'other') AS category", "COUNT(*) AS total").
		From("articles").
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("1").
		OrderBy("total DESC", "category").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	var counts []domain.CategoryCount
	for rows.Next() {
		var (
			category string
			count    int64
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts = append(counts, domain.CategoryCount{Category: category, Count: int(count)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return counts, nil
}

// AddSubscriber registers a chat; false means it was already subscribed.
func (r *PostgresRepository) AddSubscriber(ctx context.Context, chatID int64) (bool, error) {
	query, args, err := r.sb.Insert("subscribers").
		Columns("chat_id").
		Values(chatID).
		Suffix("ON CONFLICT (chat_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build subscribe: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("subscribe %d: %w", chatID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveSubscriber deletes a chat; false means it was not subscribed.
func (r *PostgresRepository) RemoveSubscriber(ctx context.Context, chatID int64) (bool, error) {
	query, args, err := r.sb.Delete("subscribers").
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build unsubscribe: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("unsubscribe %d: %w", chatID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Subscribers lists every registered chat, oldest first.
func (r *PostgresRepository) Subscribers(ctx context.Context) ([]domain.Subscriber, error) {
	query, args, err := r.sb.Select("chat_id", "created_at").
		From("subscribers").
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subscribers query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscriber
	for rows.Next() {
		var sub domain.Subscriber
		if err := rows.Scan(&sub.ChatID, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return subs, nil
}

func (r *PostgresRepository) queryLinks(ctx context.Context, query string, args ...any) ([]domain.ArticleLink, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var links []domain.ArticleLink
	for rows.Next() {
		var link domain.ArticleLink
		if err := rows.Scan(&link.Title, &link.URL); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return links, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

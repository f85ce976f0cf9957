package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/scanner"
)

// RSSScanner reads RSS/Atom feeds and extracts the full text of every item
// with readability. Items whose page cannot be extracted keep the feed
// description as content.
//
// Options: maxItems (20), workers (4).
type RSSScanner struct {
	client *http.Client
	logger *slog.Logger
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner wires an HTTP client; nil uses a 20s timeout client.
func NewRSSScanner(client *http.Client, logger *slog.Logger) *RSSScanner {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RSSScanner{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan parses every configured feed and returns its items.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawArticle, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no feeds provided for site %s", req.SiteName)
	}

	parser := gofeed.NewParser()
	parser.Client = r.client
	parser.UserAgent = userAgent

	var results []domain.RawArticle
	for _, cat := range req.Categories {
		feed, err := parser.ParseURLWithContext(cat.URL, ctx)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", cat.Name, err)
		}

		items := feed.Items
		if maxItems := req.Int("maxItems", 20); len(items) > maxItems {
			items = items[:maxItems]
		}

		articles := make([]domain.RawArticle, len(items))
		for i, item := range items {
			content := item.Content
			if content == "" {
				content = item.Description
			}
			articles[i] = domain.RawArticle{
				Title:   item.Title,
				URL:     item.Link,
				Content: content,
			}
		}

		r.extractAll(ctx, articles, req.Int("workers", 4))
		results = append(results, articles...)
	}

	return results, nil
}

// extractAll replaces item content with the readable page text, running at
// most workers extractions at once. Failures keep the feed content.
func (r *RSSScanner) extractAll(ctx context.Context, articles []domain.RawArticle, workers int) {
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range articles {
		if articles[i].URL == "" {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			text, err := r.extract(gctx, articles[i].URL)
			if err != nil {
				r.logger.Debug("readability extraction failed", "url", articles[i].URL, "error", err)
				return nil
			}
			articles[i].Content = text
			return nil
		})
	}
	_ = g.Wait()
}

func (r *RSSScanner) extract(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	resp, err := get(ctx, r.client, pageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("readability: empty text")
	}
	return text, nil
}

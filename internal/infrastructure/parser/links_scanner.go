package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/scanner"
)

var (
	defaultLinkKeywords = []string{"artikel", "nachricht", "news", "story", "deutschland", "politik", "wirtschaft"}
	navigationWords     = []string{"springen", "navigation"}
)

// LinksScanner crawls section pages, follows article-looking links and joins
// the leading paragraphs of each article page.
//
// Options: maxLinks (80), keywords (comma list), minParagraphs (3),
// maxParagraphs (10), minContent (300 bytes), minTitle (15 bytes).
type LinksScanner struct {
	client *http.Client
	logger *slog.Logger
}

var _ scanner.Scanner = (*LinksScanner)(nil)

// NewLinksScanner wires an HTTP client; nil uses a 20s timeout client.
func NewLinksScanner(client *http.Client, logger *slog.Logger) *LinksScanner {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LinksScanner{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (l *LinksScanner) Name() string {
	return "links"
}

// Scan walks each section page and returns the articles that have enough body text.
func (l *LinksScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawArticle, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	var (
		results []domain.RawArticle
		seen    = map[string]struct{}{}
	)
	for _, cat := range req.Categories {
		base, err := url.Parse(cat.URL)
		if err != nil {
			return nil, fmt.Errorf("category %s: invalid url: %w", cat.Name, err)
		}

		doc, err := fetchDocument(ctx, l.client, cat.URL)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}

		for _, link := range extractLinks(doc, base, req) {
			if _, ok := seen[link.URL]; ok {
				continue
			}
			seen[link.URL] = struct{}{}

			content, err := l.articleText(ctx, link.URL, req)
			if err != nil {
				l.logger.Debug("skip article", "site", req.SiteName, "url", link.URL, "error", err)
				continue
			}
			results = append(results, domain.RawArticle{Title: link.Title, URL: link.URL, Content: content})
		}
	}

	return results, nil
}

// extractLinks returns candidate article links from the first maxLinks anchors.
func extractLinks(doc *goquery.Document, base *url.URL, req scanner.Request) []domain.ArticleLink {
	var (
		maxLinks = req.Int("maxLinks", 80)
		minTitle = req.Int("minTitle", 15)
		keywords = req.List("keywords", defaultLinkKeywords)
		links    []domain.ArticleLink
	)

	doc.Find("a").EachWithBreak(func(i int, a *goquery.Selection) bool {
		if i >= maxLinks {
			return false
		}

		title := strings.Join(strings.Fields(a.Text()), " ")
		if len(title) < minTitle || containsAny(strings.ToLower(title), navigationWords) {
			return true
		}

		href, ok := a.Attr("href")
		if !ok || !containsAny(strings.ToLower(href), keywords) {
			return true
		}

		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		resolved.Fragment = ""

		links = append(links, domain.ArticleLink{Title: title, URL: resolved.String()})
		return true
	})

	return links
}

func (l *LinksScanner) articleText(ctx context.Context, articleURL string, req scanner.Request) (string, error) {
	doc, err := fetchDocument(ctx, l.client, articleURL)
	if err != nil {
		return "", err
	}

	paragraphs := doc.Find("p")
	if n := paragraphs.Length(); n < req.Int("minParagraphs", 3) {
		return "", fmt.Errorf("%w: %d paragraphs", domain.ErrTooShort, n)
	}

	var b strings.Builder
	paragraphs.Slice(0, min(paragraphs.Length(), req.Int("maxParagraphs", 10))).Each(func(_ int, p *goquery.Selection) {
		b.WriteString(strings.TrimSpace(p.Text()))
		b.WriteByte(' ')
	})

	content := b.String()
	if len(content) <= req.Int("minContent", 300) {
		return "", fmt.Errorf("%w: %d bytes", domain.ErrTooShort, len(content))
	}
	return content, nil
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

package parser

import (
	"context"
	"fmt"
	"net/http"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/scanner"
)

// JSONAPIScanner reads a JSON array of {title,url,content} records. Missing
// fields decode as empty strings.
type JSONAPIScanner struct {
	client     *http.Client
	defaultURL string
}

var _ scanner.Scanner = (*JSONAPIScanner)(nil)

// NewJSONAPIScanner builds the scanner; defaultURL is used when a site lists no categories.
func NewJSONAPIScanner(client *http.Client, defaultURL string) *JSONAPIScanner {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &JSONAPIScanner{client: client, defaultURL: defaultURL}
}

// Name identifies the strategy inside the registry.
func (j *JSONAPIScanner) Name() string {
	return "jsonapi"
}

// Scan downloads and decodes every endpoint.
func (j *JSONAPIScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawArticle, error) {
	categories := req.Categories
	if len(categories) == 0 {
		if j.defaultURL == "" {
			return nil, fmt.Errorf("no endpoint configured for site %s", req.SiteName)
		}
		categories = []scanner.Category{{Name: "default", URL: j.defaultURL}}
	}

	var results []domain.RawArticle
	for _, cat := range categories {
		batch, err := j.fetch(ctx, cat.URL)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", cat.Name, err)
		}
		results = append(results, batch...)
	}
	return results, nil
}

func (j *JSONAPIScanner) fetch(ctx context.Context, endpoint string) ([]domain.RawArticle, error) {
	resp, err := get(ctx, j.client, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return DecodeBatch(resp.Body)
}

package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsDigest/internal/ports"
)

// Client talks to an HTTP inference service hosting the summarization and
// translation models.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var (
	_ ports.SummaryEngine     = (*Client)(nil)
	_ ports.TranslationEngine = (*Client)(nil)
)

// NewClient creates a reusable HTTP client; a zero timeout defaults to 60s.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Summarize requests a summary bounded by maxLength/minLength tokens.
func (c *Client) Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	payload := map[string]any{
		"text":       text,
		"max_length": maxLength,
		"min_length": minLength,
	}

	var resp struct {
		SummaryText *string `json:"summary_text"`
	}
	if err := c.post(ctx, "/summarize", payload, &resp); err != nil {
		return "", err
	}
	if resp.SummaryText == nil {
		return "", fmt.Errorf("summarize: response has no summary_text")
	}
	return *resp.SummaryText, nil
}

// Translate requests a translation of text from sourceLang into targetLang.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload := map[string]any{
		"text":        text,
		"source_lang": sourceLang,
		"target_lang": targetLang,
	}

	var resp struct {
		TranslationText *string `json:"translation_text"`
	}
	if err := c.post(ctx, "/translate", payload, &resp); err != nil {
		return "", err
	}
	if resp.TranslationText == nil {
		return "", fmt.Errorf("translate: response has no translation_text")
	}
	return *resp.TranslationText, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

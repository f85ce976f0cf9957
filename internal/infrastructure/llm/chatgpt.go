package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

// ChatGPTClient summarizes and translates through an OpenAI-compatible API.
type ChatGPTClient struct {
	client       openai.Client
	model        string
	systemPrompt string
}

var (
	_ ports.SummaryEngine     = (*ChatGPTClient)(nil)
	_ ports.TranslationEngine = (*ChatGPTClient)(nil)
)

var languageNames = map[string]string{
	"de": "German",
	"en": "English",
	"ru": "Russian",
}

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig, opts ...option.RequestOption) *ChatGPTClient {
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.Endpoint))
	}
	reqOpts = append(reqOpts, opts...)

	return &ChatGPTClient{
		client:       openai.NewClient(reqOpts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
	}
}

// Summarize asks the model for a summary of at most maxLength words.
func (c *ChatGPTClient) Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize the following news text in its original language using between %d and %d words. Reply with the summary only.\n\n%s",
		minLength, maxLength, text,
	)
	return c.complete(ctx, prompt, int64(maxLength*4))
}

// Translate asks the model to translate text between two languages.
func (c *ChatGPTClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. Reply with the translation only.\n\n%s",
		languageName(sourceLang), languageName(targetLang), text,
	)
	return c.complete(ctx, prompt, int64(len([]rune(text))+256))
}

func (c *ChatGPTClient) complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chatgpt client is nil")
	}
	if c.model == "" {
		return "", fmt.Errorf("chatgpt client misconfigured")
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(safePrompt(c.systemPrompt)),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.2),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a helpful assistant that summarizes news articles."
	}
	return prompt
}

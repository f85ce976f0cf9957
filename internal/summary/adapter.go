package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/metrics"
	"NewsDigest/internal/ports"
)

// Options bound the engine input and output.
type Options struct {
	MaxChars    int
	MaxLen      int
	MinLen      int
	MinWords    int
	TitleMaxLen int
	TitleMinLen int
	BaseLang    string
	Targets     []string
}

// DefaultOptions mirrors the limits the engines were tuned for.
func DefaultOptions() Options {
	return Options{
		MaxChars:    1800,
		MaxLen:      80,
		MinLen:      25,
		MinWords:    30,
		TitleMaxLen: 50,
		TitleMinLen: 10,
		BaseLang:    "de",
		Targets:     []string{"en", "ru"},
	}
}

// Adapter wraps the summarization and translation engines. Engine failures
// never leave the adapter; they turn into a missing result.
type Adapter struct {
	engine      ports.SummaryEngine
	translators map[string]ports.TranslationEngine
	opts        Options
	logger      *slog.Logger
}

// NewAdapter wires engines; translators are keyed by target language.
func NewAdapter(engine ports.SummaryEngine, translators map[string]ports.TranslationEngine, opts Options, logger *slog.Logger) *Adapter {
	if translators == nil {
		translators = map[string]ports.TranslationEngine{}
	}
	return &Adapter{
		engine:      engine,
		translators: translators,
		opts:        opts,
		logger:      logger,
	}
}

// WithEngine returns a copy of the adapter bound to another summary engine.
func (a *Adapter) WithEngine(engine ports.SummaryEngine) *Adapter {
	clone := *a
	clone.engine = engine
	return &clone
}

// Options returns the limits the adapter was built with.
func (a *Adapter) Options() Options {
	return a.opts
}

// SummarizeSafe summarizes an article body. It reports false when the text is
// under the word floor or the engine fails.
func (a *Adapter) SummarizeSafe(ctx context.Context, text string) (string, bool) {
	text = truncate(strings.Join(strings.Fields(text), " "), a.opts.MaxChars)
	if len(strings.Fields(text)) < a.opts.MinWords {
		a.debug("skip summary", "reason", domain.ErrTooShort, "words", len(strings.Fields(text)))
		return "", false
	}
	return a.call(ctx, text, a.opts.MaxLen, a.opts.MinLen)
}

// SummarizeTitle produces the compact headline summary used by short digests.
func (a *Adapter) SummarizeTitle(ctx context.Context, title string) (string, bool) {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return "", false
	}
	return a.call(ctx, title, a.opts.TitleMaxLen, a.opts.TitleMinLen)
}

// SummarizeMultilang summarizes text in the base language and translates the
// summary into every target. It fails only when the base summary fails.
func (a *Adapter) SummarizeMultilang(ctx context.Context, text string) (domain.MultilangSummary, bool) {
	base, ok := a.SummarizeSafe(ctx, text)
	if !ok {
		return domain.MultilangSummary{}, false
	}

	result := domain.MultilangSummary{
		Base:         base,
		BaseLang:     a.opts.BaseLang,
		Translations: make([]domain.Translation, 0, len(a.opts.Targets)),
	}
	for _, lang := range a.opts.Targets {
		result.Translations = append(result.Translations, a.translate(ctx, base, lang))
	}
	return result, true
}

func (a *Adapter) translate(ctx context.Context, text, lang string) domain.Translation {
	tr := domain.Translation{Lang: lang}

	translator, ok := a.translators[lang]
	if !ok || translator == nil {
		tr.Err = fmt.Errorf("%w: no translator for %s", domain.ErrEngine, lang)
		return tr
	}

	out, err := safeTranslate(ctx, translator, text, a.opts.BaseLang, lang)
	switch {
	case err != nil:
		tr.Err = fmt.Errorf("%w: translate to %s: %v", domain.ErrEngine, lang, err)
	case strings.TrimSpace(out) == "":
		tr.Err = fmt.Errorf("%w: empty translation to %s", domain.ErrEngine, lang)
	default:
		tr.Text = strings.TrimSpace(out)
	}
	if tr.Err != nil {
		metrics.EngineFailuresTotal.WithLabelValues("translate").Inc()
		a.warn("translation failed", "lang", lang, "error", tr.Err)
	}
	return tr
}

func (a *Adapter) call(ctx context.Context, text string, maxLen, minLen int) (string, bool) {
	if a.engine == nil {
		return "", false
	}

	out, err := safeSummarize(ctx, a.engine, text, maxLen, minLen)
	if err != nil {
		metrics.EngineFailuresTotal.WithLabelValues("summarize").Inc()
		a.warn("summarization failed", "error", err)
		return "", false
	}
	out = strings.TrimSpace(out)
	if out == "" {
		metrics.EngineFailuresTotal.WithLabelValues("summarize").Inc()
		a.warn("summarization returned empty output")
		return "", false
	}
	return out, true
}

// safeSummarize converts engine panics into errors.
func safeSummarize(ctx context.Context, engine ports.SummaryEngine, text string, maxLen, minLen int) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: summarizer panic: %v", domain.ErrEngine, r)
		}
	}()
	return engine.Summarize(ctx, text, maxLen, minLen)
}

func safeTranslate(ctx context.Context, engine ports.TranslationEngine, text, from, to string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("translator panic: %v", r)
		}
	}()
	return engine.Translate(ctx, text, from, to)
}

func truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}

func (a *Adapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *Adapter) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}

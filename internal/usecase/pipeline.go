package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"NewsDigest/internal/category"
	"NewsDigest/internal/cleaner"
	"NewsDigest/internal/config"
	"NewsDigest/internal/dedup"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/metrics"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/summary"
)

// PipelineDeps wires the driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.ArticleSource
	Store      ports.ArticleStore
	Summarizer *summary.Adapter
	Logger     *slog.Logger
	Clock      func() time.Time
}

// PeriodicDeps overrides collaborators for a single periodic run. Nil fields
// fall back to the pipeline defaults.
type PeriodicDeps struct {
	Source ports.ArticleSource
	Engine ports.SummaryEngine
	Store  ports.ArticleStore
}

// Pipeline implements the digest workflow: fetch, filter, persist, summarize, format.
type Pipeline struct {
	source     ports.ArticleSource
	store      ports.ArticleStore
	summarizer *summary.Adapter
	cfg        config.PipelineConfig
	logger     *slog.Logger
	now        func() time.Time
}

type runDeps struct {
	source     ports.ArticleSource
	store      ports.ArticleStore
	summarizer *summary.Adapter
}

type persisted struct {
	article  domain.CleanedArticle
	category string
	base     string
	baseOK   bool
	multi    domain.MultilangSummary
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps, cfg config.PipelineConfig) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{
		source:     deps.Source,
		store:      deps.Store,
		summarizer: deps.Summarizer,
		cfg:        cfg,
		logger:     logger.With("component", "pipeline"),
		now:        clock,
	}
}

// ShortDigest summarizes the headlines of the current batch.
func (p *Pipeline) ShortDigest(ctx context.Context) (string, error) {
	return p.run(ctx, domain.ModeShort, p.defaults())
}

// DeepDigest summarizes the full article bodies of the current batch.
func (p *Pipeline) DeepDigest(ctx context.Context) (string, error) {
	return p.run(ctx, domain.ModeDeep, p.defaults())
}

// MultilingualDigest summarizes article bodies and translates the summaries.
func (p *Pipeline) MultilingualDigest(ctx context.Context) (string, error) {
	return p.run(ctx, domain.ModeMultilingual, p.defaults())
}

// PeriodicDigest runs a short digest with optional per-run collaborators.
func (p *Pipeline) PeriodicDigest(ctx context.Context, deps PeriodicDeps) (string, error) {
	rd := p.defaults()
	if deps.Source != nil {
		rd.source = deps.Source
	}
	if deps.Store != nil {
		rd.store = deps.Store
	}
	if deps.Engine != nil && rd.summarizer != nil {
		rd.summarizer = rd.summarizer.WithEngine(deps.Engine)
	}
	return p.run(ctx, domain.ModePeriodic, rd)
}

// ListCategoryCounts returns stored article totals per category within the
// trailing window. A non-positive window uses the configured one.
func (p *Pipeline) ListCategoryCounts(ctx context.Context, window time.Duration) ([]domain.CategoryCount, error) {
	if p.store == nil {
		return nil, fmt.Errorf("pipeline has no article store")
	}
	if window <= 0 {
		window = p.cfg.CategoryWindow
	}
	counts, err := p.store.CategoryCounts(ctx, p.now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	return counts, nil
}

// ListByCategory returns the most recent articles of one category.
func (p *Pipeline) ListByCategory(ctx context.Context, cat string, limit int) ([]domain.ArticleLink, error) {
	if p.store == nil {
		return nil, fmt.Errorf("pipeline has no article store")
	}
	if limit <= 0 {
		limit = p.cfg.CategoryLimit
	}
	links, err := p.store.ArticlesByCategory(ctx, strings.ToLower(strings.TrimSpace(cat)), limit)
	if err != nil {
		return nil, fmt.Errorf("articles by category %s: %w", cat, err)
	}
	return links, nil
}

func (p *Pipeline) defaults() runDeps {
	return runDeps{source: p.source, store: p.store, summarizer: p.summarizer}
}

func (p *Pipeline) run(ctx context.Context, mode domain.Mode, rd runDeps) (string, error) {
	switch {
	case rd.source == nil:
		return "", fmt.Errorf("pipeline has no article source")
	case rd.store == nil:
		return "", fmt.Errorf("pipeline has no article store")
	case rd.summarizer == nil:
		return "", fmt.Errorf("pipeline has no summarizer")
	}

	logger := p.logger.With("run_id", uuid.NewString(), "mode", string(mode))
	started := p.now()
	outcome := metrics.OutcomeDigest
	defer func() {
		metrics.RecordRun(string(mode), outcome, p.now().Sub(started).Seconds())
	}()

	raw, err := rd.source.Fetch(ctx)
	if err != nil {
		outcome = metrics.OutcomeNoData
		logger.Warn("fetch failed", "error", fmt.Errorf("%w: %v", domain.ErrNoData, err))
		return NoDataMessage, nil
	}
	if len(raw) == 0 {
		outcome = metrics.OutcomeNoData
		logger.Warn("fetch returned no articles", "error", domain.ErrNoData)
		return NoDataMessage, nil
	}
	metrics.AddArticles(metrics.StageFetched, len(raw))

	batch := p.filter(raw, logger)
	metrics.AddArticles(metrics.StageKept, len(batch))
	items := p.persist(ctx, mode, batch, rd, logger)

	entries, usable := p.summarize(ctx, mode, items, rd.summarizer)
	logger.Info("run finished",
		"fetched", len(raw),
		"kept", len(batch),
		"usable", usable,
		"elapsed", p.now().Sub(started),
	)

	if usable == 0 {
		digest := p.fallback(ctx, rd.store, logger)
		outcome = metrics.OutcomeDegraded
		if digest == NoNewsMessage {
			outcome = metrics.OutcomeNoNews
		}
		return digest, nil
	}
	return strings.Join(entries, entrySeparator), nil
}

// filter normalizes the batch, drops thin or link-less items and near-duplicates,
// then applies the persistence cap.
func (p *Pipeline) filter(raw []domain.RawArticle, logger *slog.Logger) []domain.CleanedArticle {
	cleaned := make([]domain.CleanedArticle, 0, len(raw))
	for _, r := range raw {
		article := domain.CleanedArticle{
			Title:   cleaner.Normalize(r.Title),
			URL:     strings.TrimSpace(r.URL),
			Content: cleaner.Normalize(r.Content),
		}
		if article.URL == "" {
			logger.Debug("drop article without url", "title", article.Title)
			continue
		}
		if n := utf8.RuneCountInString(article.Content); n < p.cfg.MinContentLength {
			logger.Debug("drop article", "url", article.URL, "reason", domain.ErrTooShort, "length", n)
			continue
		}
		cleaned = append(cleaned, article)
	}

	unique := dedup.Filter(cleaned, p.cfg.SimilarityThreshold)
	if dropped := len(cleaned) - len(unique); dropped > 0 {
		logger.Debug("dropped near-duplicates", "count", dropped)
	}
	if len(unique) > p.cfg.PersistCap {
		unique = unique[:p.cfg.PersistCap]
	}
	return unique
}

func (p *Pipeline) persist(ctx context.Context, mode domain.Mode, batch []domain.CleanedArticle, rd runDeps, logger *slog.Logger) []persisted {
	opts := rd.summarizer.Options()
	items := make([]persisted, 0, len(batch))

	for i, article := range batch {
		item := persisted{
			article:  article,
			category: category.Categorize(article.Title + " " + article.Content),
		}

		switch {
		case mode == domain.ModeMultilingual && i < p.cfg.DisplayCap:
			item.multi, item.baseOK = rd.summarizer.SummarizeMultilang(ctx, article.Content)
			item.base = item.multi.Base
		case mode.SummarizesOnPersist():
			item.base, item.baseOK = rd.summarizer.SummarizeSafe(ctx, article.Content)
		}

		stored := domain.StoredArticle{
			Title:    article.Title,
			URL:      article.URL,
			Content:  article.Content,
			Lang:     opts.BaseLang,
			Category: item.category,
		}
		if item.baseOK {
			stored.SetSummary(opts.BaseLang, item.base)
			for _, tr := range item.multi.Translations {
				if tr.Err == nil {
					stored.SetSummary(tr.Lang, tr.Text)
				}
			}
		}

		err := rd.store.SaveArticle(ctx, stored)
		switch {
		case errors.Is(err, domain.ErrAlreadyStored):
			metrics.AddArticles(metrics.StageConflict, 1)
			logger.Debug("article already stored", "url", article.URL)
		case err != nil:
			metrics.AddArticles(metrics.StageStoreError, 1)
			logger.Error("persist article", "url", article.URL, "error", err)
		default:
			metrics.AddArticles(metrics.StageStored, 1)
		}

		items = append(items, item)
	}
	return items
}

// summarize renders the display entries and reports how many carry a summary.
func (p *Pipeline) summarize(ctx context.Context, mode domain.Mode, items []persisted, summarizer *summary.Adapter) ([]string, int) {
	if len(items) > p.cfg.DisplayCap {
		items = items[:p.cfg.DisplayCap]
	}

	entries := make([]string, 0, len(items))
	usable := 0
	for _, item := range items {
		a := item.article
		switch mode {
		case domain.ModeDeep:
			if !item.baseOK {
				entries = append(entries, formatSkippedEntry(a.Title, a.URL))
				continue
			}
			entries = append(entries, formatDeepEntry(a.Title, item.base, a.URL))
		case domain.ModeMultilingual:
			if !item.baseOK {
				continue
			}
			entries = append(entries, formatMultilangEntry(a.Title, a.URL, item.multi))
		default:
			s, ok := summarizer.SummarizeTitle(ctx, a.Title)
			if !ok {
				continue
			}
			entries = append(entries, formatShortEntry(s, a.URL))
		}
		usable++
	}
	return entries, usable
}

func (p *Pipeline) fallback(ctx context.Context, store ports.ArticleStore, logger *slog.Logger) string {
	links, err := store.RecentArticles(ctx, p.now().Add(-p.cfg.FallbackWindow), p.cfg.FallbackLimit)
	if err != nil {
		logger.Error("load fallback articles", "error", err)
		return NoNewsMessage
	}
	if len(links) == 0 {
		return NoNewsMessage
	}
	logger.Info("serving degraded digest", "articles", len(links))
	return FormatLinks(links)
}

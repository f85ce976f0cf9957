package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, log *slog.Logger) *StrategySource {
	if log == nil {
		log = slog.Default()
	}
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log.With("component", "source"),
	}
}

// Fetch runs every site's scanner concurrently and concatenates the results
// in site order. A failing site is logged and skipped; the call fails only
// when no site succeeded.
func (s *StrategySource) Fetch(ctx context.Context) ([]domain.RawArticle, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}
	if len(s.sites) == 0 {
		return nil, fmt.Errorf("%w: no sites configured", domain.ErrNoData)
	}

	perSite := make([][]domain.RawArticle, len(s.sites))
	failures := make([]error, len(s.sites))

	var g errgroup.Group
	for i, site := range s.sites {
		g.Go(func() error {
			results, err := s.scanSite(ctx, site)
			if err != nil {
				s.logger.Warn("site failed", "site", site.Name, "scanner", site.Scanner, "error", err)
				failures[i] = fmt.Errorf("site %s: %w", site.Name, err)
				return nil
			}
			s.logger.Debug("site produced articles", "site", site.Name, "count", len(results))
			perSite[i] = results
			return nil
		})
	}
	_ = g.Wait()

	var aggregated []domain.RawArticle
	failed := 0
	for i := range s.sites {
		if failures[i] != nil {
			failed++
			continue
		}
		aggregated = append(aggregated, perSite[i]...)
	}
	if failed == len(s.sites) {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoData, errors.Join(failures...))
	}

	s.logger.Debug("strategy source done", "total_articles", len(aggregated), "failed_sites", failed)
	return aggregated, nil
}

func (s *StrategySource) scanSite(ctx context.Context, site config.SiteConfig) ([]domain.RawArticle, error) {
	strategy, err := s.registry.Resolve(site.Scanner)
	if err != nil {
		return nil, err
	}

	req := scanner.Request{
		SiteName:   site.Name,
		Options:    site.Options,
		Categories: toScannerCategories(site.Categories),
	}
	return strategy.Scan(ctx, req)
}

func toScannerCategories(cfg []config.CategoryConfig) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, scanner.Category{
			Name: cat.Name,
			URL:  cat.URL,
		})
	}
	return categories
}

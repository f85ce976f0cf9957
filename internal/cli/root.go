// Package cli contains the newsdigest command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"NewsDigest/internal/app"
	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
)

// Digests is the part of the pipeline one-shot commands use.
type Digests interface {
	ShortDigest(ctx context.Context) (string, error)
	DeepDigest(ctx context.Context) (string, error)
	MultilingualDigest(ctx context.Context) (string, error)
	ListCategoryCounts(ctx context.Context, window time.Duration) ([]domain.CategoryCount, error)
	ListByCategory(ctx context.Context, cat string, limit int) ([]domain.ArticleLink, error)
}

// Runtime builds the collaborators behind the commands.
type Runtime struct {
	// Open returns the pipeline and a func releasing its resources.
	Open func(ctx context.Context, cfg config.Config, logger *slog.Logger) (Digests, func(), error)
	// Serve runs the bot, the delivery schedule and the metrics endpoint.
	Serve func(ctx context.Context, cfg config.Config, logger *slog.Logger) error
}

// DefaultRuntime connects to the real Postgres, engines and Telegram.
func DefaultRuntime() Runtime {
	return Runtime{
		Open: func(ctx context.Context, cfg config.Config, logger *slog.Logger) (Digests, func(), error) {
			core, err := app.OpenCore(ctx, cfg, logger)
			if err != nil {
				return nil, nil, err
			}
			return core.Pipeline, core.Close, nil
		},
		Serve: func(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("application init: %w", err)
			}
			return application.Run(ctx)
		},
	}
}

type globals struct {
	configFile string
	logLevel   string
	cfg        config.Config
	logger     *slog.Logger
}

// Execute runs the command tree against the real runtime.
func Execute(ctx context.Context) error {
	return NewRootCommand(DefaultRuntime()).ExecuteContext(ctx)
}

// NewRootCommand assembles the command tree. Without a subcommand it serves.
func NewRootCommand(rt Runtime) *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "newsdigest",
		Short: "German news digest pipeline and Telegram bot",
		Long: `newsdigest collects German news, filters near-duplicates, stores them in
Postgres and serves short, deep and multilingual digests.

Example usage:
  newsdigest                        # Run the bot and the periodic delivery
  newsdigest digest --mode deep     # Print one deep digest
  newsdigest categories             # Article counts per category
  newsdigest category politics      # Latest politics articles`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.Serve(cmd.Context(), g.cfg, g.logger)
		},
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "YAML config file (default: $NEWS_DIGEST_CONFIG)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newServeCommand(rt, g),
		newDigestCommand(rt, g),
		newCategoriesCommand(rt, g),
		newCategoryCommand(rt, g),
	)
	return root
}

func (g *globals) load(cmd *cobra.Command) error {
	if g.configFile != "" {
		g.cfg = config.LoadFrom(g.configFile)
	} else {
		g.cfg = config.Load()
	}
	if g.logLevel != "" {
		g.cfg.Logging.Level = g.logLevel
	}
	g.logger = logging.NewWithWriter(cmd.ErrOrStderr(), g.cfg.Logging.Level, g.cfg.Logging.Format)

	if err := g.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func newServeCommand(rt Runtime, g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot, periodic delivery and metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.Serve(cmd.Context(), g.cfg, g.logger)
		},
	}
}

// withDigests opens the pipeline for the duration of fn.
func withDigests(cmd *cobra.Command, rt Runtime, g *globals, fn func(Digests) error) error {
	digests, release, err := rt.Open(cmd.Context(), g.cfg, g.logger)
	if err != nil {
		return err
	}
	if release != nil {
		defer release()
	}
	return fn(digests)
}

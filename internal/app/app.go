package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"NewsDigest/internal/config"
	"NewsDigest/internal/infrastructure/llm"
	"NewsDigest/internal/infrastructure/ml"
	"NewsDigest/internal/infrastructure/parser"
	"NewsDigest/internal/infrastructure/scheduler"
	"NewsDigest/internal/infrastructure/storage"
	"NewsDigest/internal/infrastructure/telegram"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/metrics"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/scanner"
	"NewsDigest/internal/summary"
	"NewsDigest/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

// Core is the pipeline together with the Postgres store it persists into.
type Core struct {
	Pipeline *usecase.Pipeline
	Repo     *storage.PostgresRepository
	pool     *pgxpool.Pool
}

// OpenCore connects to Postgres, ensures the schema and builds the pipeline.
func OpenCore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Core, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	repo := storage.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     buildSource(cfg, logger),
		Store:      repo,
		Summarizer: buildSummarizer(cfg, logger),
		Logger:     logger,
	}, cfg.Pipeline)

	return &Core{Pipeline: pipeline, Repo: repo, pool: pool}, nil
}

// Close releases the connection pool.
func (c *Core) Close() {
	c.pool.Close()
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	core       *Core
	delivery   *usecase.Delivery
	bot        *telegram.Bot
	metricsSrv *http.Server
}

// New connects to Postgres and Telegram and builds the pipeline around them.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	core, err := OpenCore(ctx, cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	application := &Application{
		cfg:        cfg,
		logger:     baseLogger,
		core:       core,
		metricsSrv: newMetricsServer(cfg.Metrics.ListenAddr),
	}

	if cfg.Notifications.Telegram.BotToken == "" {
		baseLogger.Warn("telegram bot token missing, running without chat front end")
		return application, nil
	}

	api, err := telegram.NewAPI(cfg.Notifications.Telegram)
	if err != nil {
		core.Close()
		return nil, err
	}
	notifier := telegram.NewNotifier(api)
	router := telegram.NewRouter(core.Pipeline, core.Repo, baseLogger)
	application.bot = telegram.NewBot(api, router, notifier, baseLogger)

	cron := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), baseLogger)
	application.delivery = usecase.NewDelivery(cron, core.Pipeline, core.Repo, notifier, baseLogger)

	return application, nil
}

// Run serves the bot, the metrics endpoint and the periodic delivery until
// ctx is cancelled or one of them fails.
func (a *Application) Run(ctx context.Context) error {
	defer a.core.Close()

	if a.delivery != nil {
		if err := a.delivery.Start(ctx); err != nil {
			return fmt.Errorf("start delivery: %w", err)
		}
		defer a.stopDelivery()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	if a.metricsSrv != nil {
		g.Go(func() error {
			a.logger.Info("serving metrics", "addr", a.metricsSrv.Addr)
			if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return a.metricsSrv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		if a.bot == nil {
			<-gCtx.Done()
			return nil
		}
		return a.bot.Run(gCtx)
	})

	return g.Wait()
}

func (a *Application) stopDelivery() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.delivery.Stop(ctx); err != nil {
		a.logger.Warn("stop delivery", "error", err)
	}
}

func newMetricsServer(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

func buildSource(cfg config.Config, logger *slog.Logger) ports.ArticleSource {
	client := parser.NewHTTPClient(0)
	registry := scanner.NewRegistry(
		parser.NewLinksScanner(client, logger.With("component", "scanner.links")),
		parser.NewRSSScanner(client, logger.With("component", "scanner.rss")),
		parser.NewJSONAPIScanner(client, cfg.Providers.ArticleAPIURL),
	)
	return parser.NewStrategySource(registry, cfg.Sites, logger)
}

func buildSummarizer(cfg config.Config, logger *slog.Logger) *summary.Adapter {
	engine, translators := buildEngines(cfg)
	return summary.NewAdapter(engine, translators, summaryOptions(cfg), logger.With("component", "summary"))
}

// buildEngines returns the summary engine and one translator per target
// language for the configured backend. The none backend yields no engine.
func buildEngines(cfg config.Config) (ports.SummaryEngine, map[string]ports.TranslationEngine) {
	translators := map[string]ports.TranslationEngine{}

	switch cfg.Engine.Backend {
	case config.BackendML:
		client := ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey, cfg.ML.Timeout)
		for _, lang := range cfg.Engine.Targets {
			translators[lang] = client
		}
		return client, translators
	case config.BackendChatGPT:
		client := llm.NewChatGPTClient(cfg.ChatGPT)
		for _, lang := range cfg.Engine.Targets {
			translators[lang] = client
		}
		return client, translators
	default:
		return nil, translators
	}
}

func summaryOptions(cfg config.Config) summary.Options {
	p := cfg.Pipeline
	return summary.Options{
		MaxChars:    p.MaxChars,
		MaxLen:      p.MaxLen,
		MinLen:      p.MinLen,
		MinWords:    p.MinWords,
		TitleMaxLen: p.TitleMaxLen,
		TitleMinLen: p.TitleMinLen,
		BaseLang:    cfg.Engine.BaseLang,
		Targets:     cfg.Engine.Targets,
	}
}

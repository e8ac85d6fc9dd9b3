package app

import (
	"context"
	"fmt"
	"log/slog"

	"CompetitorWatch/internal/classify"
	"CompetitorWatch/internal/config"
	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/fetch"
	"CompetitorWatch/internal/infrastructure/browser"
	"CompetitorWatch/internal/infrastructure/llm"
	"CompetitorWatch/internal/infrastructure/parser"
	"CompetitorWatch/internal/infrastructure/storage"
	"CompetitorWatch/internal/infrastructure/telegram"
	"CompetitorWatch/internal/logging"
	"CompetitorWatch/internal/normalize"
	"CompetitorWatch/internal/ports"
	"CompetitorWatch/internal/ratelimit"
	"CompetitorWatch/internal/scraper"
	"CompetitorWatch/internal/usecase"
)

// Application wires configuration to the pipeline and owns its lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := selectStorage(cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	registry := scraper.NewRegistry()
	registry.Register(parser.NewChangelogExtractor())
	registry.Register(parser.NewSocialFeedAExtractor())
	registry.Register(parser.NewSocialFeedBExtractor())
	registry.Register(parser.NewAppStoreExtractor())
	registry.Register(parser.NewGenericExtractor())

	var renderer ports.Renderer
	if cfg.Scraper.HeadlessEnabled() {
		renderer = browser.NewChromeRenderer(cfg.Scraper.NavigationTimeout, cfg.Scraper.SettleWait)
	} else {
		renderer = browser.NewHTTPRenderer(cfg.Scraper.NavigationTimeout)
	}

	limiter := ratelimit.New(cfg.Scraper.RateLimitRequests, cfg.Scraper.RateLimitWindow)
	fetcher := fetch.New(renderer, limiter, registry, baseLogger.With("component", "fetcher"))

	var oracle ports.Oracle
	if cfg.Oracle.APIKey != "" {
		oracle = llm.NewClient(cfg.Oracle)
	} else {
		baseLogger.Warn("oracle not configured, classification will fail per item")
	}

	notifier := selectNotifier(cfg, baseLogger)

	processor := usecase.NewProcessor(usecase.ProcessorDeps{
		Fetcher:    fetcher,
		Normalizer: normalize.New(oracle, baseLogger.With("component", "normalizer")),
		Classifier: classify.NewGateway(oracle, baseLogger.With("component", "classifier")),
		Storage:    store,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "processor"),
	})

	digests := usecase.NewDigestGenerator(store, oracle, notifier, baseLogger.With("component", "digest"))

	scheduler := usecase.NewScheduler(usecase.SchedulerDeps{
		Storage:        store,
		Processor:      processor,
		Digests:        digests,
		Notifier:       notifier,
		Logger:         baseLogger.With("component", "scheduler"),
		ScrapeInterval: cfg.Scheduler.ScrapeInterval,
		DigestInterval: cfg.Scheduler.DigestInterval,
		Workers:        cfg.Scheduler.Workers,
	})

	return &Application{cfg: cfg, logger: baseLogger, scheduler: scheduler}, nil
}

// Scheduler exposes the manual trigger surface for an outer HTTP/CLI layer.
func (a *Application) Scheduler() *usecase.Scheduler {
	return a.scheduler
}

// Run starts both cadences and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	a.scheduler.Stop()
	a.logger.Info("pipeline stopped")
	return nil
}

// selectStorage picks the durable store when a DSN is configured and the
// in-memory store seeded from the roster otherwise. The choice is explicit
// here; the data layer itself never branches on configuration.
func selectStorage(cfg config.Config, logger *slog.Logger) (ports.Storage, error) {
	if cfg.Database.DSN != "" {
		store, err := storage.Open(cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect storage: %w", err)
		}
		return store, nil
	}

	seed := make([]domain.Source, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		seed = append(seed, src.Source())
	}
	logger.Info("no database configured, using in-memory storage", "sources", len(seed))
	return storage.NewMemoryStore(seed), nil
}

func selectNotifier(cfg config.Config, logger *slog.Logger) ports.Notifier {
	tg := cfg.Notifications.Telegram
	if tg.BotToken == "" || tg.ChatID == "" {
		logger.Info("notification channel not configured, notices disabled")
		return &telegram.Disabled{Logger: logger.With("component", "notifier")}
	}

	notifier, err := telegram.New(tg.BotToken, tg.ChatID)
	if err != nil {
		logger.Warn("telegram notifier unavailable", "error", err)
		return &telegram.Disabled{Logger: logger.With("component", "notifier")}
	}
	return notifier
}

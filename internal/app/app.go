package app

import (
	"context"
	"fmt"
	"log/slog"

	"MonkHerald/internal/config"
	"MonkHerald/internal/infrastructure/feed"
	"MonkHerald/internal/infrastructure/fetch"
	"MonkHerald/internal/infrastructure/ingest"
	"MonkHerald/internal/infrastructure/llm"
	"MonkHerald/internal/infrastructure/risk"
	"MonkHerald/internal/infrastructure/storage"
	"MonkHerald/internal/logging"
	"MonkHerald/internal/scanner"
	"MonkHerald/internal/usecase"
)

// Application wires configuration into the scheduler and owns the
// persistence lifecycle: stores open here, close at process shutdown.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.SentStore
	scheduler *usecase.Scheduler
}

// New builds the full object graph.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.OpenSentStore(cfg.Storage.DedupPath)
	if err != nil {
		return nil, fmt.Errorf("open dedup store: %w", err)
	}

	registry := scanner.NewRegistry()
	registry.Register(feed.NewRSSStrategy(nil, baseLogger.With("component", "source.rss")))
	source := scanner.NewRegistrySource(registry, baseLogger.With("component", "source"))

	chain := llm.NewChain(baseLogger.With("component", "summarizer"),
		llm.NewPerplexityBackend(cfg.Perplexity, cfg.Pipeline.MinBodyChars),
		llm.NewGeminiBackend(cfg.Gemini),
	)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      source,
		Sent:        store,
		Fetcher:     fetch.NewFetcher(nil, cfg.Pipeline.BodyLimit),
		Summarizer:  chain,
		Publisher:   ingest.NewClient(cfg.Ingest),
		ThemeFor:    cfg.ThemeFor,
		MaxPerBatch: cfg.Pipeline.MaxPerBatch,
		Logger:      baseLogger.With("component", "pipeline"),
	})

	scheduler := usecase.NewScheduler(usecase.SchedulerDeps{
		Ledger:     storage.NewFileLedger(cfg.Storage.LedgerPath),
		Batch:      pipeline,
		Risk:       risk.NewRunner(cfg.Risk),
		Location:   cfg.Scheduler.Location(),
		WakeHour:   cfg.Scheduler.WakeHour(),
		WakeMinute: cfg.Scheduler.WakeMinute(),
		Logger:     baseLogger.With("component", "scheduler"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		scheduler: scheduler,
	}, nil
}

// Run blocks inside the scheduler loop until ctx is canceled.
func (a *Application) Run(ctx context.Context) error {
	a.logger.Info("starting",
		"timezone", a.cfg.Scheduler.Location().String(),
		"wake", fmt.Sprintf("%02d:%02d", a.cfg.Scheduler.WakeHour(), a.cfg.Scheduler.WakeMinute()),
		"dedup", a.cfg.Storage.DedupPath,
		"ledger", a.cfg.Storage.LedgerPath,
	)
	return a.scheduler.Run(ctx)
}

// Close releases persistence handles.
func (a *Application) Close() error {
	return a.store.Close()
}

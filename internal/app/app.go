package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"FeedCurator/internal/api"
	"FeedCurator/internal/catalog"
	"FeedCurator/internal/config"
	"FeedCurator/internal/discovery"
	"FeedCurator/internal/domain"
	"FeedCurator/internal/enrich"
	"FeedCurator/internal/feed"
	"FeedCurator/internal/infrastructure/content"
	"FeedCurator/internal/infrastructure/llm"
	"FeedCurator/internal/infrastructure/scholar"
	"FeedCurator/internal/jobs"
	"FeedCurator/internal/logging"
	"FeedCurator/internal/opml"
	"FeedCurator/internal/ports"
	"FeedCurator/internal/storage"
	"FeedCurator/internal/usecase"
)

// Application wires configs to stores, the worker, the scheduler, and the
// HTTP surface, and orchestrates their lifecycle.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db        *sqlx.DB
	jobStore  *jobs.Store
	catalog   *catalog.Store
	worker    *jobs.Worker
	scheduler *usecase.Scheduler
	server    *http.Server
}

// New builds a runnable application instance. The database is opened and
// migrated here; callers own shutdown via Run's context.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	jobStore := jobs.NewStore(db, cfg.Worker.DefaultRetries)
	catalogStore := catalog.NewStore(db)
	itemStore := catalog.NewItemStore(db)

	validator := feed.NewValidator(nil, baseLogger.With("component", "validator"))

	transcripts := content.NewTranscriptFetcher(cfg.Providers.TranscriptURL, cfg.Providers.TranscriptAPIToken)
	pdfs := content.NewPDFFetcher(cfg.Providers.UnpaywallURL, cfg.Providers.CrossrefMailto)
	prober := feed.NewProber(transcripts, pdfs)

	var assessor ports.QualityAssessor
	if cfg.Assessor.APIKey != "" {
		assessor = llm.NewAssessor(cfg.Assessor)
	}

	enricher := enrich.New(enrich.Deps{
		PDFs:        pdfs,
		Transcripts: transcripts,
		Biblio:      scholar.NewCrossrefClient(cfg.Providers.CrossrefURL, cfg.Providers.CrossrefMailto),
		Scholarly:   scholar.NewSemanticScholarClient(cfg.Providers.ScholarlyGraphURL, cfg.Providers.ScholarlyAPIKey),
		Assessor:    assessor,
		Logger:      baseLogger.With("component", "enricher"),
		BatchSize:   cfg.Enrichment.BatchSize,
		BatchPause:  cfg.Enrichment.BatchPause.Std(),
	})

	strategies := discovery.DefaultStrategies(discovery.NewPathGuessStrategy(nil))
	engine := discovery.NewEngine(strategies, validator, cfg.Discovery.MaxCandidates, baseLogger.With("component", "discovery"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Catalog:         catalogStore,
		Items:           itemStore,
		Validator:       validator,
		Prober:          prober,
		Enricher:        enricher,
		Discovery:       engine,
		Logger:          baseLogger.With("component", "pipeline"),
		DeactivateAfter: cfg.Catalog.DeactivateAfter,
	})

	worker := jobs.NewWorker(jobStore, jobs.WorkerConfig{
		Concurrency:  cfg.Worker.Concurrency,
		PollInterval: cfg.Worker.PollInterval.Std(),
		Backoff: jobs.Backoff{
			Base:   cfg.Worker.BackoffBase.Std(),
			Factor: cfg.Worker.BackoffFactor,
			Jitter: cfg.Worker.JitterFraction,
		},
		StaleGrace:    cfg.Worker.StaleGrace.Std(),
		SweepInterval: cfg.Worker.SweepInterval.Std(),
	}, baseLogger.With("component", "worker"))
	worker.Register(domain.JobTypeIngestFeed, pipeline.HandleIngest)
	worker.Register(domain.JobTypeValidateFeed, pipeline.HandleValidate)
	worker.Register(domain.JobTypeDiscoverFeed, pipeline.HandleDiscover)

	scheduler := usecase.NewScheduler(
		catalogStore,
		jobStore,
		cfg.Worker.IngestInterval.Std(),
		cfg.Worker.RecoverInterval.Std(),
		cfg.Catalog.DiscoverThreshold,
		baseLogger.With("component", "scheduler"),
	)

	importer := opml.NewImporter(jobStore, 0, 0)
	handler := api.NewHandler(jobStore, validator, importer, baseLogger.With("component", "api"))
	server := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: api.NewRouter(handler),
	}

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		jobStore:  jobStore,
		catalog:   catalogStore,
		worker:    worker,
		scheduler: scheduler,
		server:    server,
	}, nil
}

// JobStore exposes the queue for operator tooling.
func (a *Application) JobStore() *jobs.Store { return a.jobStore }

// Catalog exposes the entry store for operator tooling.
func (a *Application) Catalog() *catalog.Store { return a.catalog }

// Run starts the worker, scheduler, and HTTP server, then blocks until the
// context is cancelled and everything has drained.
func (a *Application) Run(ctx context.Context) error {
	if err := a.worker.Start(ctx); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	a.scheduler.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.ListenAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.shutdown(context.Background())
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	a.shutdown(shutdownCtx)
	return nil
}

// Close releases resources without running the servers. Used by one-shot CLI
// commands that only need the stores.
func (a *Application) Close() error {
	return a.db.Close()
}

func (a *Application) shutdown(ctx context.Context) {
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("http shutdown", "error", err)
	}
	a.scheduler.Stop()
	a.worker.Stop()
	if err := a.db.Close(); err != nil {
		a.logger.Error("close database", "error", err)
	}
	a.logger.Info("shutdown complete")
}

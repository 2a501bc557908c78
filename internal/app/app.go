package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"ComedyAnalyzer/internal/config"
	"ComedyAnalyzer/internal/infrastructure/parser"
	"ComedyAnalyzer/internal/infrastructure/scheduler"
	"ComedyAnalyzer/internal/infrastructure/storage"
	"ComedyAnalyzer/internal/logging"
	"ComedyAnalyzer/internal/metrics"
	"ComedyAnalyzer/internal/ports"
	"ComedyAnalyzer/internal/stage"
	"ComedyAnalyzer/internal/stages"
	"ComedyAnalyzer/internal/transport/rest"
	"ComedyAnalyzer/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     ports.Store
	registry  *stage.Registry
	pipeline  *usecase.Pipeline
	reports   *usecase.Reports
	scheduler *usecase.Scheduler
	metrics   *prometheus.Registry
}

// New opens the configured store and builds the stage catalog and use cases.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(promRegistry)

	registry := stage.NewRegistry(baseLogger.With("component", "stage.registry"))
	err = stages.Register(registry, stages.Deps{
		Parser: parser.NewScriptParser(cfg.Pipeline.LinesPerPage, baseLogger.With("component", "parser")),
		Store:  store,
		Logger: baseLogger.With("component", "stages"),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Registry:    registry,
		Jobs:        store,
		Outputs:     store,
		Recorder:    recorder,
		Logger:      baseLogger.With("component", "pipeline"),
		Stages:      cfg.Pipeline.Stages,
		Tier:        cfg.Pipeline.Tier,
		Concurrency: cfg.Pipeline.Concurrency,
	})

	sweeper := usecase.NewScheduler(
		scheduler.NewTickerScheduler(cfg.Pipeline.PollInterval),
		pipeline,
		baseLogger.With("component", "scheduler"),
	)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		registry:  registry,
		pipeline:  pipeline,
		reports:   usecase.NewReports(store, store),
		scheduler: sweeper,
		metrics:   promRegistry,
	}, nil
}

// Registry exposes the stage catalog.
func (a *Application) Registry() *stage.Registry { return a.registry }

// Pipeline exposes the analysis use case.
func (a *Application) Pipeline() *usecase.Pipeline { return a.pipeline }

// Reports exposes the read-side use case.
func (a *Application) Reports() *usecase.Reports { return a.reports }

// Serve runs the HTTP API and the pending-job sweep until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	handler := rest.NewHandler(a.pipeline, a.reports, a.registry)
	router := rest.NewRouter(handler, a.metrics, a.logger.With("component", "http"))

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr, "storage", a.cfg.Storage.Driver)
		if err := router.Start(a.cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		serveErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler shutdown", "error", err)
	}

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}

func openStore(ctx context.Context, cfg config.StorageConfig) (ports.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		repo, err := storage.OpenPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
		return repo, nil
	case config.DriverRedis:
		return storage.OpenRedis(ctx, cfg.Redis.URL, cfg.Redis.TTL)
	case config.DriverMemory, "":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Package main provides the entry point for the paper discovery HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/cache"
	"github.com/helixir/paper-discovery-service/internal/config"
	"github.com/helixir/paper-discovery-service/internal/database"
	"github.com/helixir/paper-discovery-service/internal/events"
	"github.com/helixir/paper-discovery-service/internal/llm"
	"github.com/helixir/paper-discovery-service/internal/observability"
	"github.com/helixir/paper-discovery-service/internal/papersources"
	"github.com/helixir/paper-discovery-service/internal/papersources/arxiv"
	"github.com/helixir/paper-discovery-service/internal/papersources/crossref"
	"github.com/helixir/paper-discovery-service/internal/papersources/ieee"
	"github.com/helixir/paper-discovery-service/internal/papersources/pubmed"
	"github.com/helixir/paper-discovery-service/internal/papersources/sciencedirect"
	"github.com/helixir/paper-discovery-service/internal/papersources/springer"
	"github.com/helixir/paper-discovery-service/internal/repository"
	"github.com/helixir/paper-discovery-service/internal/scheduler"
	httpserver "github.com/helixir/paper-discovery-service/internal/server/http"
	"github.com/helixir/paper-discovery-service/internal/summary"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = observability.WithComponent(logger, "server")
	logger.Info().Str("store", cfg.Store.Backend).Msg("paper-discovery-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	seeded, err := repository.Seed(ctx, store, repository.SeedOptions{SampleData: cfg.Store.SeedSampleData})
	if err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	logger.Info().
		Int64("user_id", seeded.User.ID).
		Int("papers_created", seeded.PapersCreated).
		Msg("store seeded")

	lookupCache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	registry := buildRegistry(cfg, logger)
	resolver := crossref.New(crossref.Config{
		BaseURL:    cfg.PaperSources.CrossRef.BaseURL,
		Mailto:     cfg.PaperSources.CrossRef.Mailto,
		Timeout:    cfg.PaperSources.CrossRef.Timeout,
		RateLimit:  cfg.PaperSources.CrossRef.RateLimit,
		MaxRetries: cfg.PaperSources.CrossRef.MaxRetries,
		CacheTTL:   cfg.PaperSources.CrossRef.CacheTTL,
	}, lookupCache, logger)

	publisher, err := openPublisher(cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close event publisher")
		}
	}()

	llmClient, err := openLLM(cfg, metrics, logger)
	if err != nil {
		return err
	}

	generator := summary.NewGenerator(llmClient, summary.GeneratorConfig{
		Timeout: cfg.Summary.GenerationTimeout,
	}, metrics, logger)
	summaries := summary.NewService(store.Papers, store.Summaries, generator, logger)

	agg := aggregator.New(
		aggregator.Config{SearchTimeout: cfg.PaperSources.SearchTimeout},
		store.Papers,
		registry,
		resolver,
		publisher,
		metrics,
		logger,
	)

	// Start the retention job.
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(scheduler.Config{
			Retention: cfg.Scheduler.RecentSearchRetention,
			Schedule:  cfg.Scheduler.RetentionSchedule,
		}, store, metrics, logger)
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		sched.Start()
	}

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	httpSrv := httpserver.NewServer(httpCfg, httpserver.Deps{
		Searcher:  agg,
		Summaries: summaries,
		Store:     store,
		Metrics:   metrics,
	}, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = httpserver.NewMetricsServer(cfg.Server.MetricsAddress(), cfg.Metrics.Path)
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().
		Str("http_address", httpCfg.Address).
		Int("sources", len(registry.EnabledSources())).
		Bool("llm", llmClient != nil)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("paper-discovery-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down paper-discovery-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("retention job did not finish before shutdown")
		}
	}

	logger.Info().Msg("paper-discovery-service shutdown complete")
	return nil
}

// openStore creates the configured store. For PostgreSQL it connects the pool
// and applies pending migrations when auto-run is on.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Store, func(), error) {
	if cfg.Store.Backend != config.StoreBackendPostgres {
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info().Msg("database connection established")

	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("create migrator: %w", err)
		}
		upErr := migrator.Up()
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
		if upErr != nil {
			db.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", upErr)
		}
	}

	return repository.NewPgStore(db), db.Close, nil
}

// openCache connects the DOI lookup cache. Without Redis lookups are not cached.
func openCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.Cache, func(), error) {
	rc := cfg.Cache.Redis
	if !rc.Enabled {
		return cache.Noop{}, func() {}, nil
	}

	redisCache, err := cache.Connect(ctx, cache.RedisConfig{
		Addr:        rc.Addr,
		Password:    rc.Password,
		DB:          rc.DB,
		KeyPrefix:   rc.KeyPrefix,
		DialTimeout: rc.DialTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Str("addr", rc.Addr).Msg("redis cache connected")

	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis cache")
		}
	}, nil
}

// openPublisher creates the discovery event publisher.
func openPublisher(cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) (events.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return events.Noop{}, nil
	}
	publisher, err := events.NewKafkaPublisher(events.Config{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		BatchSize:    cfg.Kafka.BatchSize,
		BatchTimeout: cfg.Kafka.BatchTimeout,
	}, metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka publisher configured")
	return publisher, nil
}

// openLLM creates the summary LLM client. A missing provider or API key is not
// an error: summaries then use the heuristic path.
func openLLM(cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) (llm.Client, error) {
	client, err := llm.NewClient(llm.FactoryConfig{
		Provider:    cfg.LLM.Provider,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		OpenAI:      llm.ProviderConfig(cfg.LLM.OpenAI),
		Anthropic:   llm.ProviderConfig(cfg.LLM.Anthropic),
		Gemini:      llm.ProviderConfig(cfg.LLM.Gemini),
	})
	if errors.Is(err, llm.ErrNotConfigured) {
		logger.Warn().Err(err).Msg("LLM not configured, summaries use the heuristic generator")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	logger.Info().Str("provider", client.Provider()).Str("model", client.Model()).Msg("LLM client configured")
	return llm.WithMetrics(client, metrics), nil
}

// buildRegistry registers the five paper sources.
func buildRegistry(cfg *config.Config, logger zerolog.Logger) *papersources.Registry {
	ps := cfg.PaperSources
	registry := papersources.NewRegistry()

	registry.Register(arxiv.New(arxiv.Config{
		BaseURL:   ps.ArXiv.BaseURL,
		Timeout:   ps.ArXiv.Timeout,
		RateLimit: ps.ArXiv.RateLimit,
		BurstSize: ps.ArXiv.BurstSize,
		Enabled:   ps.ArXiv.Enabled,
	}))
	registry.Register(pubmed.New(pubmed.Config{
		BaseURL:   ps.PubMed.BaseURL,
		APIKey:    ps.PubMed.APIKey,
		Timeout:   ps.PubMed.Timeout,
		RateLimit: ps.PubMed.RateLimit,
		BurstSize: ps.PubMed.BurstSize,
		Enabled:   ps.PubMed.Enabled,
	}))
	registry.Register(ieee.New(ieee.Config{
		BaseURL:   ps.IEEE.BaseURL,
		APIKey:    ps.IEEE.APIKey,
		Timeout:   ps.IEEE.Timeout,
		RateLimit: ps.IEEE.RateLimit,
		BurstSize: ps.IEEE.BurstSize,
		Enabled:   ps.IEEE.Enabled,
	}))
	registry.Register(springer.New(springer.Config{
		BaseURL:   ps.Springer.BaseURL,
		APIKey:    ps.Springer.APIKey,
		Timeout:   ps.Springer.Timeout,
		RateLimit: ps.Springer.RateLimit,
		BurstSize: ps.Springer.BurstSize,
		Enabled:   ps.Springer.Enabled,
	}))
	registry.Register(sciencedirect.New(sciencedirect.Config{
		BaseURL:   ps.ScienceDirect.BaseURL,
		APIKey:    ps.ScienceDirect.APIKey,
		Timeout:   ps.ScienceDirect.Timeout,
		RateLimit: ps.ScienceDirect.RateLimit,
		BurstSize: ps.ScienceDirect.BurstSize,
		Enabled:   ps.ScienceDirect.Enabled,
	}))

	for _, src := range registry.AllSources() {
		logger.Info().
			Str("source", src.Name()).
			Bool("enabled", src.IsEnabled()).
			Msg("paper source registered")
	}
	return registry
}

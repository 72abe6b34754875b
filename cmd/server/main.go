package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ctf-scoreboard/internal/cache"
	"github.com/ctf-scoreboard/internal/config"
	"github.com/ctf-scoreboard/internal/handler"
	"github.com/ctf-scoreboard/internal/kafka"
	"github.com/ctf-scoreboard/internal/metrics"
	"github.com/ctf-scoreboard/internal/postgres"
	"github.com/ctf-scoreboard/internal/queue"
	"github.com/ctf-scoreboard/internal/scoreboard"
	"github.com/ctf-scoreboard/internal/service"
	"github.com/ctf-scoreboard/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup structured logging
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize PostgreSQL
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	repo, err := postgres.NewRepository(ctx, &cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to PostgreSQL")

	// Run database migrations
	if err := repo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize the cache backend
	var (
		store cache.Store
		ready handler.ReadyFunc = repo.Ping
	)
	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		logger.Info("using in-process cache backend")
		store = cache.NewMemoryStore()
	default:
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		redisStore, err := cache.NewRedisStore(ctx, &cfg.Redis, logger)
		if err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		logger.Info("connected to Redis")

		store = redisStore
		ready = func(ctx context.Context) error {
			return errors.Join(repo.Ping(ctx), redisStore.Ping(ctx))
		}
	}
	scoreCache := cache.New(store, logger, m, cfg.Cache.ComputeTimeout)

	// Initialize services
	invalidations := queue.New(scoreCache, &cfg.Queue, logger, m)
	scoreboardService := service.NewScoreboardService(
		repo,
		scoreCache,
		invalidations,
		scoreboard.NewAggregator(cfg.Scoreboard.TimelineTopN),
		cfg,
		logger,
	)
	gameService := service.NewGameService(repo, scoreboardService, logger)

	invalidations.Register(cache.KeyScoreboard, scoreboardService.CacheHandler())
	if err := invalidations.Start(ctx); err != nil {
		logger.Error("failed to start invalidation queue", "error", err)
		os.Exit(1)
	}

	// Initialize refresh worker
	refreshWorker := worker.NewRefreshWorker(repo, scoreboardService, &cfg.Refresh, logger)
	if cfg.Refresh.WarmUp {
		if err := refreshWorker.WarmUp(ctx); err != nil {
			logger.Warn("failed to warm up scoreboards", "error", err)
		}
	}
	if cfg.Refresh.Enabled {
		if err := refreshWorker.Start(ctx); err != nil {
			logger.Error("failed to start refresh worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize Kafka consumer for write notifications
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		var err error
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, scoreboardService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else {
			if err := kafkaConsumer.Start(); err != nil {
				logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
				kafkaConsumer = nil
			} else {
				logger.Info("Kafka consumer started successfully")
			}
		}
	}

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(
		scoreboardService,
		gameService,
		ready,
		m,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		logger,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop refresh worker
	if err := refreshWorker.Stop(); err != nil {
		logger.Error("failed to stop refresh worker", "error", err)
	}

	// Stop invalidation queue
	if err := invalidations.Stop(); err != nil {
		logger.Error("failed to stop invalidation queue", "error", err)
	}

	logger.Info("server stopped")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/user/news-harvester/internal/adapter/dateparser"
	"github.com/user/news-harvester/internal/adapter/postgres"
	redis_adapter "github.com/user/news-harvester/internal/adapter/redis"
	"github.com/user/news-harvester/internal/bootstrap"
	"github.com/user/news-harvester/internal/delivery/http/handler"
	"github.com/user/news-harvester/internal/delivery/http/router"
	"github.com/user/news-harvester/internal/source"
	"github.com/user/news-harvester/internal/usecase"
	"github.com/user/news-harvester/pkg/config"
	"github.com/user/news-harvester/pkg/logger"
	"github.com/user/news-harvester/pkg/metrics"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logger.New(os.Stderr, "info").Fatal("could not load config", zap.Error(err))
	}

	// --- Logger ---
	log := logger.New(os.Stdout, cfg.LogLevel)
	defer log.Sync()
	log.Info("logger initialized", zap.String("level", cfg.LogLevel))

	// --- Metrics ---
	m := metrics.New(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	dbpool, err := bootstrap.Postgres(ctx, cfg)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer dbpool.Close()
	log.Info("PostgreSQL connection pool established")

	rdb, err := bootstrap.Redis(ctx, cfg)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("Redis connection established")

	// --- Fetch session ---
	session, closeSession, err := bootstrap.FetchSession(cfg, log)
	if err != nil {
		log.Fatal("failed to open fetch session", zap.Error(err))
	}
	defer closeSession()

	// --- Repositories ---
	queueRepo := redis_adapter.NewQueueRepo(rdb)
	checkpointRepo := redis_adapter.NewCheckpointRepo(rdb)
	documentRepo := postgres.NewDocumentRepo(dbpool)
	runRepo := postgres.NewRunRepo(dbpool)
	skippedRepo := postgres.NewSkippedItemRepo(dbpool)

	// --- Use Cases ---
	src := source.Finextra()
	harvester := usecase.NewHarvester(session, src, dateparser.New(time.UTC), m, log,
		usecase.WithMaxBarrenDates(cfg.MaxBarrenDates))
	runManager := usecase.NewRunManager(src.Name, queueRepo, runRepo, m, log)
	runWorker := usecase.NewRunWorker(src.Name, harvester, queueRepo, runRepo, documentRepo, skippedRepo, checkpointRepo, m, log)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		runWorker.Run(ctx, cfg.WorkerPollInterval())
	}()

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(runManager, map[string]handler.HealthCheck{
		"postgres": dbpool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, log)
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(apiHandler, m, prometheus.DefaultGatherer, log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("could not start server", zap.Error(err))
		}
	}()
	log.Info("server started", zap.String("port", cfg.ServerPort))

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("run worker did not stop in time")
	}

	log.Info("server exiting")
}

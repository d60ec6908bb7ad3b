package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sitewatch/analytics-pipeline/internal/config"
	"github.com/sitewatch/analytics-pipeline/internal/logger"
	"github.com/sitewatch/analytics-pipeline/internal/queue/redis"
	"github.com/sitewatch/analytics-pipeline/internal/repository/postgres"
	"github.com/sitewatch/analytics-pipeline/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting worker service",
		zap.String("environment", cfg.Service.Environment))

	ctx := context.Background()

	// Initialize Postgres client
	pgClient, err := postgres.NewClient(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer func() {
		if err := pgClient.Close(); err != nil {
			log.Error("Failed to close Postgres client", zap.Error(err))
		}
	}()

	// Initialize repository
	repo := postgres.NewRepository(pgClient, log)

	// Ensure the schema exists before consuming; this must succeed or
	// the process exits nonzero.
	if err := repo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}
	log.Info("Database schema initialized")

	// Initialize queue client
	queueClient, err := redis.NewClient(ctx, cfg.Queue, log)
	if err != nil {
		log.Fatal("Failed to create queue client", zap.Error(err))
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Failed to close queue client", zap.Error(err))
		}
	}()

	// Initialize worker
	wrk := worker.New(queueClient, repo, worker.NewJSONEventParser(), worker.Config{
		PopTimeout: time.Duration(cfg.Worker.PopTimeoutSec) * time.Second,
		Backoff:    time.Duration(cfg.Worker.BackoffSec) * time.Second,
	}, log)

	// Start health check and metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := repo.Ping(r.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		mux.Handle("/metrics", promhttp.Handler())

		addr := ":" + cfg.Worker.HealthCheckPort
		log.Info("Health check server starting", zap.String("address", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)

	log.Info("Worker starting")

	go func() {
		done <- wrk.Run(workerCtx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker gracefully")
	cancel()

	if err := <-done; err != nil {
		log.Error("Worker exited with error", zap.Error(err))
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sitewatch/analytics-pipeline/internal/config"
	"github.com/sitewatch/analytics-pipeline/internal/handler"
	"github.com/sitewatch/analytics-pipeline/internal/logger"
	"github.com/sitewatch/analytics-pipeline/internal/queue/redis"
	"github.com/sitewatch/analytics-pipeline/internal/service"
)

func main() {
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

	log.Info("Starting ingest service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.IngestPort))

	ctx := context.Background()

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

	// Initialize ingest service
	ingestService := service.NewIngestService(queueClient, log)

	// Initialize handler
	h := handler.NewIngestHandler(ingestService, cfg.Ingest.MaxBodyBytes, log)

	addr := fmt.Sprintf(":%s", cfg.Service.IngestPort)
	log.Info("Ingest server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start ingest server", zap.Error(err))
	}
}

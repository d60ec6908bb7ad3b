package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sitewatch/analytics-pipeline/internal/config"
	"github.com/sitewatch/analytics-pipeline/internal/handler"
	"github.com/sitewatch/analytics-pipeline/internal/logger"
	"github.com/sitewatch/analytics-pipeline/internal/repository/postgres"
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

	log.Info("Starting report service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.ReportPort))

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

	// Initialize report service
	reportService := service.NewReportService(repo, log)

	// Initialize handler
	h := handler.NewReportHandler(reportService, log)

	addr := fmt.Sprintf(":%s", cfg.Service.ReportPort)
	log.Info("Report server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start report server", zap.Error(err))
	}
}

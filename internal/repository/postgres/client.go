package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sitewatch/analytics-pipeline/internal/config"
)

// Client wraps the Postgres connection pool
type Client struct {
	db     *sql.DB
	config config.Store
	log    *zap.Logger
}

// NewClient creates a new Postgres client with the given configuration
func NewClient(ctx context.Context, cfg config.Store, log *zap.Logger) (*Client, error) {
	log.Info("Connecting to Postgres",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("database", cfg.Database))

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSec) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping Postgres", zap.Error(err))
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	log.Info("Postgres connection established successfully")

	return &Client{db: db, config: cfg, log: log}, nil
}

// DB returns the underlying connection pool
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the Postgres connection pool
func (c *Client) Close() error {
	c.log.Info("Closing Postgres connection")
	if err := c.db.Close(); err != nil {
		c.log.Error("Error closing Postgres connection", zap.Error(err))
		return err
	}
	return nil
}

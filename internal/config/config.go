package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Service Service
	Queue   Queue
	Store   Store
	Ingest  Ingest
	Worker  Worker
}

type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
	IngestPort  string `envconfig:"INGEST_PORT" default:"3001"`
	ReportPort  string `envconfig:"REPORT_PORT" default:"3002"`
}

type Queue struct {
	Host string `envconfig:"QUEUE_HOST" default:"127.0.0.1"`
	Port string `envconfig:"QUEUE_PORT" default:"6379"`
	Key  string `envconfig:"QUEUE_KEY" default:"analytics:events"`
}

type Store struct {
	Host               string `envconfig:"STORE_HOST" default:"localhost"`
	Port               string `envconfig:"STORE_PORT" default:"5432"`
	Database           string `envconfig:"STORE_DB" default:"analyticsdb"`
	User               string `envconfig:"STORE_USER" default:"analytics"`
	Password           string `envconfig:"STORE_PASSWORD" default:"analytics"`
	MaxOpenConns       int    `envconfig:"STORE_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns       int    `envconfig:"STORE_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetimeSec int    `envconfig:"STORE_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

type Ingest struct {
	MaxBodyBytes int64 `envconfig:"INGEST_MAX_BODY_BYTES" default:"102400"`
}

type Worker struct {
	PopTimeoutSec   int    `envconfig:"WORKER_POP_TIMEOUT_SEC" default:"5"`
	BackoffSec      int    `envconfig:"WORKER_BACKOFF_SEC" default:"1"`
	HealthCheckPort string `envconfig:"WORKER_HEALTH_CHECK_PORT" default:"3003"`
}

// Addr returns the queue address in host:port form.
func (q Queue) Addr() string {
	return fmt.Sprintf("%s:%s", q.Host, q.Port)
}

// DSN returns the store connection string in lib/pq key=value form.
func (s Store) DSN() string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		s.Host, s.Port, s.Database, s.User, s.Password)
}

func Load() (*Config, error) {
	// Optional .env file for local development; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sitewatch/analytics-pipeline/internal/domain"
	"github.com/sitewatch/analytics-pipeline/internal/repository"
)

// Repository implements EventRepository for Postgres
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new Postgres repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the events table and its site/time index. Both
// statements are IF NOT EXISTS, so re-running against an initialized
// store is a no-op.
func (r *Repository) InitSchema(ctx context.Context) error {
	createTable := `
	CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		site_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		path TEXT,
		user_id TEXT,
		timestamp TIMESTAMPTZ NOT NULL
	)`

	if _, err := r.client.DB().ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	createIndex := `CREATE INDEX IF NOT EXISTS idx_events_site_timestamp ON events (site_id, timestamp)`

	if _, err := r.client.DB().ExecContext(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create events index: %w", err)
	}

	r.log.Info("Postgres schema initialized successfully")
	return nil
}

// InsertEvent appends a single event row
func (r *Repository) InsertEvent(ctx context.Context, event *domain.Event) error {
	_, err := r.client.DB().ExecContext(ctx,
		`INSERT INTO events (site_id, event_type, path, user_id, timestamp) VALUES ($1, $2, $3, $4, $5)`,
		event.SiteID,
		event.EventType,
		event.Path,
		event.UserID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetStats computes the three aggregates for a site over a window. Each
// aggregate is an independent query scoped to the same site and window;
// top paths group NULL as "/" and break view-count ties by ascending
// path order so results are deterministic.
func (r *Repository) GetStats(ctx context.Context, query repository.StatsQuery) (*repository.StatsResult, error) {
	result := &repository.StatsResult{
		TopPaths: []repository.PathCount{},
	}

	row := r.client.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE site_id = $1 AND timestamp >= $2 AND timestamp <= $3`,
		query.SiteID, query.Start, query.End,
	)
	if err := row.Scan(&result.TotalViews); err != nil {
		return nil, fmt.Errorf("failed to query total views: %w", err)
	}

	row = r.client.DB().QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT user_id) FROM events WHERE site_id = $1 AND timestamp >= $2 AND timestamp <= $3 AND user_id IS NOT NULL`,
		query.SiteID, query.Start, query.End,
	)
	if err := row.Scan(&result.UniqueUsers); err != nil {
		return nil, fmt.Errorf("failed to query unique users: %w", err)
	}

	rows, err := r.client.DB().QueryContext(ctx,
		`SELECT COALESCE(path, '/') AS path, COUNT(*) AS views
		FROM events
		WHERE site_id = $1 AND timestamp >= $2 AND timestamp <= $3
		GROUP BY COALESCE(path, '/')
		ORDER BY views DESC, path ASC
		LIMIT 10`,
		query.SiteID, query.Start, query.End,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top paths: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close top paths rows", zap.Error(err))
		}
	}()

	for rows.Next() {
		var pc repository.PathCount
		if err := rows.Scan(&pc.Path, &pc.Views); err != nil {
			return nil, fmt.Errorf("failed to scan top paths row: %w", err)
		}
		result.TopPaths = append(result.TopPaths, pc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top paths rows: %w", err)
	}

	return result, nil
}

// Ping checks if the Postgres connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.DB().PingContext(ctx)
}

// Close closes the Postgres connection
func (r *Repository) Close() error {
	return r.client.Close()
}

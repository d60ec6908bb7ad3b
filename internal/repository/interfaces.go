package repository

import (
	"context"
	"time"

	"github.com/sitewatch/analytics-pipeline/internal/domain"
)

// StatsQuery scopes an aggregate query to one site and an inclusive
// time window.
type StatsQuery struct {
	SiteID string
	Start  time.Time
	End    time.Time
}

// PathCount represents the view count for one path within a window
type PathCount struct {
	Path  string
	Views int
}

// StatsResult represents the aggregates for one site and window
type StatsResult struct {
	TotalViews  int
	UniqueUsers int
	TopPaths    []PathCount
}

// EventRepository defines the interface for event storage operations
type EventRepository interface {
	// InsertEvent appends a single event row to the store
	InsertEvent(ctx context.Context, event *domain.Event) error

	// InitSchema initializes the database schema; safe to run repeatedly
	InitSchema(ctx context.Context) error

	// GetStats computes the aggregates for a site over a time window
	GetStats(ctx context.Context, query StatsQuery) (*StatsResult, error)

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error
}

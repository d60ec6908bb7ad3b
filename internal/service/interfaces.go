package service

import (
	"context"

	"github.com/sitewatch/analytics-pipeline/internal/dto"
)

// EventTracker defines the interface for ingest-side event handling.
// TrackEvent returns the ingest id assigned to an accepted event.
type EventTracker interface {
	TrackEvent(ctx context.Context, body any) (string, error)
}

// StatsProvider defines the interface for report-side aggregation
type StatsProvider interface {
	GetStats(ctx context.Context, siteID, date string) (*dto.StatsResponse, error)
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sitewatch/analytics-pipeline/internal/dto"
	"github.com/sitewatch/analytics-pipeline/internal/metrics"
	"github.com/sitewatch/analytics-pipeline/internal/repository"
)

const dateLayout = "2006-01-02"

// ReportService answers per-site daily aggregates from the event store.
// Reads are best-effort snapshots of what the worker has persisted so
// far; they are never transactionally consistent with in-flight inserts.
type ReportService struct {
	repository repository.EventRepository
	log        *zap.Logger
	now        func() time.Time
}

// NewReportService creates a new report service
func NewReportService(repo repository.EventRepository, log *zap.Logger) *ReportService {
	return &ReportService{
		repository: repo,
		log:        log,
		now:        time.Now,
	}
}

// GetStats aggregates events for a site over one UTC calendar day. An
// empty date defaults to the current UTC date. The window is the closed
// interval from midnight through 23:59:59.999, so a row stamped exactly
// at the next midnight is excluded.
func (s *ReportService) GetStats(ctx context.Context, siteID, date string) (*dto.StatsResponse, error) {
	if siteID == "" {
		return nil, &ValidationError{Reason: "site_id is required"}
	}

	if date == "" {
		date = s.now().UTC().Format(dateLayout)
	}

	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return nil, &ValidationError{Reason: "date must be formatted YYYY-MM-DD"}
	}

	query := repository.StatsQuery{
		SiteID: siteID,
		Start:  day,
		End:    day.Add(24*time.Hour - time.Millisecond),
	}

	result, err := s.repository.GetStats(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats from repository: %w", err)
	}

	metrics.StatsQueries.Inc()
	s.log.Info("Stats retrieved",
		zap.String("site_id", siteID),
		zap.String("date", date),
		zap.Int("total_views", result.TotalViews),
		zap.Int("unique_users", result.UniqueUsers))

	response := &dto.StatsResponse{
		SiteID:      siteID,
		Date:        date,
		TotalViews:  result.TotalViews,
		UniqueUsers: result.UniqueUsers,
		TopPaths:    make([]dto.PathViews, 0, len(result.TopPaths)),
	}

	for _, pc := range result.TopPaths {
		response.TopPaths = append(response.TopPaths, dto.PathViews{
			Path:  pc.Path,
			Views: pc.Views,
		})
	}

	return response, nil
}

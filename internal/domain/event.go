package domain

import "time"

// Event represents a normalized analytics event as stored in Postgres.
// Path and UserID are nullable columns; Timestamp is always UTC.
type Event struct {
	SiteID    string
	EventType string
	Path      *string
	UserID    *string
	Timestamp time.Time
}

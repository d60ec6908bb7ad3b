package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sitewatch/analytics-pipeline/internal/domain"
	"github.com/sitewatch/analytics-pipeline/internal/dto"
)

// timestampLayouts are tried in order; layouts without a zone are taken
// as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// JSONEventParser implements MessageParser for JSON queue entries. Queue
// entries are opaque bytes until they get here; the parser re-validates
// the required fields and resolves the timestamp, so anything it rejects
// takes the discard path rather than the store's error path.
type JSONEventParser struct{}

// NewJSONEventParser creates a new JSON event parser
func NewJSONEventParser() *JSONEventParser {
	return &JSONEventParser{}
}

// Parse parses a serialized queue entry into an Event
func (p *JSONEventParser) Parse(body []byte) (*domain.Event, error) {
	var entry dto.QueueEvent
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queue entry: %w", err)
	}

	if entry.SiteID == "" {
		return nil, fmt.Errorf("queue entry missing site_id")
	}
	if entry.EventType == "" {
		return nil, fmt.Errorf("queue entry missing event_type")
	}

	ts, err := parseTimestamp(entry.Timestamp)
	if err != nil {
		return nil, err
	}

	return &domain.Event{
		SiteID:    entry.SiteID,
		EventType: entry.EventType,
		Path:      entry.Path,
		UserID:    entry.UserID,
		Timestamp: ts,
	}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("queue entry missing timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

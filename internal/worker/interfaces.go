package worker

import (
	"github.com/sitewatch/analytics-pipeline/internal/domain"
)

// MessageParser defines the interface for parsing raw queue entries into events
type MessageParser interface {
	Parse(body []byte) (*domain.Event, error)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitewatch/analytics-pipeline/internal/dto"
	"github.com/sitewatch/analytics-pipeline/internal/metrics"
	"github.com/sitewatch/analytics-pipeline/internal/queue"
)

// IngestService validates and normalizes inbound events and pushes them
// onto the queue. The push is fire-and-forget with respect to
// persistence: acceptance means "handed to the queue transport", nothing
// stronger.
type IngestService struct {
	publisher queue.QueuePublisher
	log       *zap.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(publisher queue.QueuePublisher, log *zap.Logger) *IngestService {
	return &IngestService{
		publisher: publisher,
		log:       log,
	}
}

// TrackEvent validates, normalizes, and enqueues one event, returning
// an ingest id for log and response correlation. A *ValidationError
// means the caller sent bad input; any other error means the queue was
// unreachable and the caller should retry.
func (s *IngestService) TrackEvent(ctx context.Context, body any) (string, error) {
	obj, err := validate(body)
	if err != nil {
		metrics.EventsRejected.Inc()
		return "", err
	}

	event := normalize(obj)

	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	ingestID := uuid.NewString()

	if err := s.publisher.Push(ctx, payload); err != nil {
		metrics.QueuePushErrors.Inc()
		s.log.Error("Failed to push event to queue",
			zap.String("ingest_id", ingestID),
			zap.String("site_id", event.SiteID),
			zap.String("event_type", event.EventType),
			zap.Error(err))
		return "", fmt.Errorf("failed to push event to queue: %w", err)
	}

	metrics.EventsAccepted.Inc()
	s.log.Info("Event accepted",
		zap.String("ingest_id", ingestID),
		zap.String("site_id", event.SiteID),
		zap.String("event_type", event.EventType))

	return ingestID, nil
}

// validate applies the body check and then the field checks in a fixed
// fail-fast order; each Reason string is an observable contract. The
// body must be a non-null object; required fields use truthiness
// checks, so an empty string (or zero, or false) is as missing as an
// absent key.
func validate(body any) (dto.RawEvent, error) {
	var obj dto.RawEvent
	switch t := body.(type) {
	case dto.RawEvent:
		obj = t
	case map[string]any:
		obj = t
	case []any:
		// An array passes the object check and then fails on its
		// absent fields, same as an empty object.
		obj = dto.RawEvent{}
	default:
		// null and scalar bodies are not objects.
		return nil, &ValidationError{Reason: "body is required"}
	}
	if obj == nil {
		return nil, &ValidationError{Reason: "body is required"}
	}
	if isFalsy(obj["site_id"]) {
		return nil, &ValidationError{Reason: "site_id is required"}
	}
	if isFalsy(obj["event_type"]) {
		return nil, &ValidationError{Reason: "event_type is required"}
	}
	if isFalsy(obj["timestamp"]) {
		return nil, &ValidationError{Reason: "timestamp is required"}
	}
	return obj, nil
}

// normalize coerces the validated body into the queue entry shape.
// path and user_id collapse to null when falsy, not just when absent;
// an empty-string path becomes null on purpose.
func normalize(body dto.RawEvent) *dto.QueueEvent {
	return &dto.QueueEvent{
		SiteID:    coerceString(body["site_id"]),
		EventType: coerceString(body["event_type"]),
		Path:      optionalString(body["path"]),
		UserID:    optionalString(body["user_id"]),
		Timestamp: coerceString(body["timestamp"]),
	}
}

func optionalString(v any) *string {
	if isFalsy(v) {
		return nil
	}
	s := coerceString(v)
	return &s
}

// coerceString stringifies any JSON value the way the wire contract
// expects: numbers without a trailing ".0", bools as "true"/"false",
// anything structured as its JSON encoding.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	default:
		return false
	}
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sitewatch/analytics-pipeline/internal/dto"
	"github.com/sitewatch/analytics-pipeline/internal/service"
)

// IngestHandler serves the event ingestion API
type IngestHandler struct {
	events       service.EventTracker
	router       *gin.Engine
	log          *zap.Logger
	maxBodyBytes int64
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(events service.EventTracker, maxBodyBytes int64, log *zap.Logger) *IngestHandler {
	h := &IngestHandler{
		events:       events,
		router:       gin.Default(),
		log:          log,
		maxBodyBytes: maxBodyBytes,
	}

	h.registerRoutes()

	return h
}

func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *IngestHandler) registerRoutes() {
	h.router.GET("/", h.healthCheck)
	h.router.POST("/event", h.trackEvent)
	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthCheck handles health check requests
func (h *IngestHandler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ingest service running",
	})
}

// trackEvent handles POST /event. Acceptance means the event was handed
// to the queue; persistence happens asynchronously and is never awaited.
func (h *IngestHandler) trackEvent(c *gin.Context) {
	// Bound the body before decoding so an oversized payload is rejected
	// without being read in full.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)

	// Decode into any so the service's body check owns the non-object
	// case; only JSON syntax errors are rejected here.
	var body any
	if err := c.ShouldBindJSON(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.log.Warn("Oversized event payload", zap.Int64("limit", maxErr.Limit))
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
				Error:   "validation_error",
				Message: "request body too large",
			})
			return
		}
		h.log.Warn("Malformed event body", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: "body must be a JSON object",
		})
		return
	}

	ingestID, err := h.events.TrackEvent(c.Request.Context(), body)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: vErr.Reason,
			})
			return
		}

		h.log.Error("Failed to enqueue event", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:   "queue_unavailable",
			Message: "queue unavailable",
		})
		return
	}

	// The response body stays exactly {status: accepted}; the ingest id
	// rides a header so clients can correlate against the worker's logs.
	c.Header("X-Ingest-Id", ingestID)
	c.JSON(http.StatusAccepted, dto.TrackEventResponse{
		Status: "accepted",
	})
}

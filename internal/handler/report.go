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

// ReportHandler serves the per-site stats API
type ReportHandler struct {
	stats  service.StatsProvider
	router *gin.Engine
	log    *zap.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(stats service.StatsProvider, log *zap.Logger) *ReportHandler {
	h := &ReportHandler{
		stats:  stats,
		router: gin.Default(),
		log:    log,
	}

	h.registerRoutes()

	return h
}

func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *ReportHandler) registerRoutes() {
	h.router.GET("/", h.healthCheck)
	h.router.GET("/stats", h.getStats)
	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthCheck handles health check requests
func (h *ReportHandler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "reporting service running",
	})
}

// getStats handles GET /stats?site_id=...&date=YYYY-MM-DD. The date
// defaults to the current UTC day when omitted.
func (h *ReportHandler) getStats(c *gin.Context) {
	siteID := c.Query("site_id")
	date := c.Query("date")

	response, err := h.stats.GetStats(c.Request.Context(), siteID, date)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: vErr.Reason,
			})
			return
		}

		h.log.Error("Failed to get stats",
			zap.String("site_id", siteID),
			zap.String("date", date),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: "internal error",
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

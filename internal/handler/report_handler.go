package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumalearn/analytics-api/internal/middleware"
	"github.com/lumalearn/analytics-api/internal/models"
	"github.com/lumalearn/analytics-api/internal/service"
	appErrors "github.com/lumalearn/analytics-api/pkg/errors"
	"github.com/lumalearn/analytics-api/pkg/response"
)

type learningGenerator interface {
	Generate(ctx context.Context, childID string, timeframe models.Timeframe) (*models.LearningReport, error)
}

type progressGenerator interface {
	Generate(ctx context.Context, childID string, timeframe models.Timeframe) (*models.ProgressReport, error)
}

type insightsGenerator interface {
	Generate(ctx context.Context, childID string) (*models.InsightsReport, error)
}

type bundleGenerator interface {
	Generate(ctx context.Context, childID string, timeframe models.Timeframe) *service.ReportBundle
}

// ReportHandler exposes the report generation endpoints.
type ReportHandler struct {
	learning learningGenerator
	progress progressGenerator
	insights insightsGenerator
	bundle   bundleGenerator
	cache    *service.CacheService
}

// NewReportHandler constructs handler.
func NewReportHandler(learning learningGenerator, progress progressGenerator, insights insightsGenerator, bundle bundleGenerator, cache *service.CacheService) *ReportHandler {
	return &ReportHandler{learning: learning, progress: progress, insights: insights, bundle: bundle, cache: cache}
}

func (h *ReportHandler) authorize(c *gin.Context) (string, bool) {
	childID := c.Param("childId")
	if childID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "childId required"))
		return "", false
	}
	claims := claimsFromContext(c)
	if claims == nil || !claims.CanAccessChild(childID) {
		response.Error(c, appErrors.ErrForbidden)
		return "", false
	}
	return childID, true
}

func timeframeFromQuery(c *gin.Context) models.Timeframe {
	timeframe := models.Timeframe(c.DefaultQuery("timeframe", string(models.TimeframeWeek)))
	switch timeframe {
	case models.TimeframeWeek, models.TimeframeMonth, models.TimeframeQuarter:
		return timeframe
	default:
		return models.TimeframeQuarter
	}
}

// Learning godoc
// @Summary Learning report for a child
// @Tags Reports
// @Produce json
// @Param childId path string true "Child ID"
// @Param timeframe query string false "week, month or quarter"
// @Success 200 {object} response.Envelope
// @Router /reports/learning/{childId} [get]
func (h *ReportHandler) Learning(c *gin.Context) {
	childID, ok := h.authorize(c)
	if !ok {
		return
	}
	timeframe := timeframeFromQuery(c)
	key := service.ReportCacheKey("learning", childID, string(timeframe))

	var cached models.LearningReport
	if hit, err := h.cache.Get(c.Request.Context(), key, &cached); err == nil && hit {
		middleware.SetCacheHit(c, true)
		response.JSON(c, http.StatusOK, cached, nil, middleware.ExtractMeta(c))
		return
	}

	report, err := h.learning.Generate(c.Request.Context(), childID, timeframe)
	if err != nil {
		response.Error(c, err)
		return
	}
	_ = h.cache.Set(c.Request.Context(), key, report, 0)
	middleware.SetCacheHit(c, false)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// Progress godoc
// @Summary Progress report for a child
// @Tags Reports
// @Produce json
// @Param childId path string true "Child ID"
// @Param timeframe query string false "week, month or quarter"
// @Success 200 {object} response.Envelope
// @Router /reports/progress/{childId} [get]
func (h *ReportHandler) Progress(c *gin.Context) {
	childID, ok := h.authorize(c)
	if !ok {
		return
	}
	timeframe := timeframeFromQuery(c)
	key := service.ReportCacheKey("progress", childID, string(timeframe))

	var cached models.ProgressReport
	if hit, err := h.cache.Get(c.Request.Context(), key, &cached); err == nil && hit {
		middleware.SetCacheHit(c, true)
		response.JSON(c, http.StatusOK, cached, nil, middleware.ExtractMeta(c))
		return
	}

	report, err := h.progress.Generate(c.Request.Context(), childID, timeframe)
	if err != nil {
		response.Error(c, err)
		return
	}
	_ = h.cache.Set(c.Request.Context(), key, report, 0)
	middleware.SetCacheHit(c, false)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// Insights godoc
// @Summary Behavioural insights for a child
// @Tags Reports
// @Produce json
// @Param childId path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Router /reports/insights/{childId} [get]
func (h *ReportHandler) Insights(c *gin.Context) {
	childID, ok := h.authorize(c)
	if !ok {
		return
	}
	key := service.ReportCacheKey("insights", childID, "fixed")

	var cached models.InsightsReport
	if hit, err := h.cache.Get(c.Request.Context(), key, &cached); err == nil && hit {
		middleware.SetCacheHit(c, true)
		response.JSON(c, http.StatusOK, cached, nil, middleware.ExtractMeta(c))
		return
	}

	report, err := h.insights.Generate(c.Request.Context(), childID)
	if err != nil {
		response.Error(c, err)
		return
	}
	_ = h.cache.Set(c.Request.Context(), key, report, 0)
	middleware.SetCacheHit(c, false)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// Bundle godoc
// @Summary All three reports assembled concurrently
// @Tags Reports
// @Produce json
// @Param childId path string true "Child ID"
// @Param timeframe query string false "week, month or quarter"
// @Success 200 {object} response.Envelope
// @Router /reports/bundle/{childId} [get]
func (h *ReportHandler) Bundle(c *gin.Context) {
	childID, ok := h.authorize(c)
	if !ok {
		return
	}
	bundle := h.bundle.Generate(c.Request.Context(), childID, timeframeFromQuery(c))
	status := http.StatusOK
	if bundle.Learning == nil && bundle.Progress == nil && bundle.Insights == nil {
		status = http.StatusBadGateway
	}
	response.JSON(c, status, bundle, nil, middleware.ExtractMeta(c))
}

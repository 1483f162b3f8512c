package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumalearn/analytics-api/internal/dto"
	"github.com/lumalearn/analytics-api/internal/models"
	"github.com/lumalearn/analytics-api/internal/service"
	appErrors "github.com/lumalearn/analytics-api/pkg/errors"
	"github.com/lumalearn/analytics-api/pkg/response"
)

type sessionProcessor interface {
	ProcessSession(ctx context.Context, session *models.LearningSession) (*models.DailyAnalytics, error)
	RecordQuiz(ctx context.Context, result *models.QuizResult) error
}

// AnalyticsHandler exposes session ingestion and system metrics endpoints.
type AnalyticsHandler struct {
	aggregator sessionProcessor
	metrics    *service.MetricsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(aggregator sessionProcessor, metrics *service.MetricsService) *AnalyticsHandler {
	return &AnalyticsHandler{aggregator: aggregator, metrics: metrics}
}

// ProcessSession godoc
// @Summary Fold a learning session into the daily aggregate
// @Tags Analytics
// @Accept json
// @Produce json
// @Param payload body dto.ProcessSessionRequest true "Session payload"
// @Success 200 {object} response.Envelope
// @Router /analytics/sessions [post]
func (h *AnalyticsHandler) ProcessSession(c *gin.Context) {
	var req dto.ProcessSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil || !claims.CanAccessChild(req.ChildID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	row, err := h.aggregator.ProcessSession(c.Request.Context(), req.ToModel())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// RecordQuiz godoc
// @Summary Record a quiz attempt outcome
// @Tags Analytics
// @Accept json
// @Produce json
// @Param payload body dto.RecordQuizRequest true "Quiz payload"
// @Success 201 {object} response.Envelope
// @Router /analytics/quizzes [post]
func (h *AnalyticsHandler) RecordQuiz(c *gin.Context) {
	var req dto.RecordQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	if req.CorrectAnswers > req.TotalQuestions {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "correct_answers cannot exceed total_questions"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil || !claims.CanAccessChild(req.ChildID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	result := req.ToModel()
	if err := h.aggregator.RecordQuiz(c.Request.Context(), result); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// SystemMetrics godoc
// @Summary Aggregated system metrics snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) SystemMetrics(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.Role != models.RoleAdmin {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

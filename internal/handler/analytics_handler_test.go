package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumalearn/analytics-api/internal/middleware"
	"github.com/lumalearn/analytics-api/internal/models"
	"github.com/lumalearn/analytics-api/internal/service"
)

type aggregatorMock struct {
	row      *models.DailyAnalytics
	err      error
	sessions []*models.LearningSession
	quizzes  []*models.QuizResult
}

func (m *aggregatorMock) ProcessSession(_ context.Context, session *models.LearningSession) (*models.DailyAnalytics, error) {
	m.sessions = append(m.sessions, session)
	return m.row, m.err
}

func (m *aggregatorMock) RecordQuiz(_ context.Context, result *models.QuizResult) error {
	m.quizzes = append(m.quizzes, result)
	return m.err
}

func TestProcessSessionFoldsAndReturnsRow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &aggregatorMock{row: &models.DailyAnalytics{ChildID: "child-1", SessionsCompleted: 4}}
	handler := NewAnalyticsHandler(mock, service.NewMetricsService())

	body := []byte(`{"child_id":"child-1","subject":"math","topic":"fractions","session_type":"lesson","duration_minutes":20,"completion_percentage":90,"points_earned":40}`)
	c, w := newGinContext(http.MethodPost, "/analytics/sessions", body)
	c.Set(middleware.ContextUserKey, parentClaims("child-1"))

	handler.ProcessSession(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mock.sessions, 1)
	assert.Equal(t, "math", mock.sessions[0].Subject)

	var envelope struct {
		Data models.DailyAnalytics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 4, envelope.Data.SessionsCompleted)
}

func TestProcessSessionRejectsUnknownType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &aggregatorMock{}
	handler := NewAnalyticsHandler(mock, service.NewMetricsService())

	body := []byte(`{"child_id":"child-1","subject":"math","topic":"fractions","session_type":"exam","duration_minutes":20,"completion_percentage":90,"points_earned":40}`)
	c, w := newGinContext(http.MethodPost, "/analytics/sessions", body)
	c.Set(middleware.ContextUserKey, parentClaims("child-1"))

	handler.ProcessSession(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mock.sessions)
}

func TestProcessSessionForbiddenForForeignChild(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &aggregatorMock{}
	handler := NewAnalyticsHandler(mock, service.NewMetricsService())

	body := []byte(`{"child_id":"child-9","subject":"math","topic":"fractions","session_type":"lesson","duration_minutes":20,"completion_percentage":90,"points_earned":40}`)
	c, w := newGinContext(http.MethodPost, "/analytics/sessions", body)
	c.Set(middleware.ContextUserKey, parentClaims("child-1"))

	handler.ProcessSession(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, mock.sessions)
}

func TestRecordQuizValidatesAnswerCount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &aggregatorMock{}
	handler := NewAnalyticsHandler(mock, service.NewMetricsService())

	body := []byte(`{"child_id":"child-1","subject":"math","total_questions":5,"correct_answers":7}`)
	c, w := newGinContext(http.MethodPost, "/analytics/quizzes", body)
	c.Set(middleware.ContextUserKey, parentClaims("child-1"))

	handler.RecordQuiz(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mock.quizzes)
}

func TestRecordQuizCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &aggregatorMock{}
	handler := NewAnalyticsHandler(mock, service.NewMetricsService())

	body := []byte(`{"child_id":"child-1","subject":"math","total_questions":5,"correct_answers":4}`)
	c, w := newGinContext(http.MethodPost, "/analytics/quizzes", body)
	c.Set(middleware.ContextUserKey, parentClaims("child-1"))

	handler.RecordQuiz(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, mock.quizzes, 1)
	assert.Equal(t, 4, mock.quizzes[0].CorrectAnswers)
}

func TestSystemMetricsAdminOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAnalyticsHandler(&aggregatorMock{}, service.NewMetricsService())

	c, w := newGinContext(http.MethodGet, "/analytics/system", nil)
	c.Set(middleware.ContextUserKey, parentClaims("child-1"))
	handler.SystemMetrics(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = newGinContext(http.MethodGet, "/analytics/system", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	handler.SystemMetrics(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

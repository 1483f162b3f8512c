package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumalearn/analytics-api/internal/dto"
	"github.com/lumalearn/analytics-api/internal/middleware"
	"github.com/lumalearn/analytics-api/internal/models"
	"github.com/lumalearn/analytics-api/internal/service"
	appErrors "github.com/lumalearn/analytics-api/pkg/errors"
)

type exportJobsMock struct {
	created  *dto.ExportRequest
	actorID  string
	status   *dto.ExportStatusResponse
	download *service.ExportDownload
	err      error
}

func (m *exportJobsMock) CreateJob(_ context.Context, req dto.ExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	m.created = &req
	m.actorID = actorID
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued}, nil
}

func (m *exportJobsMock) GetStatus(_ context.Context, _, _ string, _ models.UserRole) (*dto.ExportStatusResponse, error) {
	return m.status, m.err
}

func (m *exportJobsMock) ResolveDownload(_ context.Context, _ string) (*service.ExportDownload, error) {
	return m.download, m.err
}

func TestExportCreateAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &exportJobsMock{}
	handler := NewExportHandler(mock)

	body := []byte(`{"kind":"learning","child_id":"child-1","timeframe":"month","format":"csv"}`)
	c, w := newGinContext(http.MethodPost, "/exports", body)
	c.Set(middleware.ContextUserKey, parentClaims("child-1"))

	handler.Create(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, mock.created)
	assert.Equal(t, models.ReportKindLearning, mock.created.Kind)
	assert.Equal(t, "parent-1", mock.actorID)
}

func TestExportCreateRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &exportJobsMock{}
	handler := NewExportHandler(mock)

	body := []byte(`{"kind":"learning","child_id":"child-1","format":"xlsx"}`)
	c, w := newGinContext(http.MethodPost, "/exports", body)
	c.Set(middleware.ContextUserKey, parentClaims("child-1"))

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, mock.created)
}

func TestExportStatusPassesActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	url := "/exports/download/tok"
	mock := &exportJobsMock{status: &dto.ExportStatusResponse{ID: "job-1", Status: models.ExportStatusFinished, Progress: 100, ResultURL: &url}}
	handler := NewExportHandler(mock)

	c, w := newGinContext(http.MethodGet, "/exports/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Set(middleware.ContextUserKey, parentClaims("child-1"))

	handler.Status(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FINISHED")
}

func TestExportDownloadServesFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(path, []byte("subject,score\nmath,90\n"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	mock := &exportJobsMock{download: &service.ExportDownload{
		File:      file,
		Filename:  "learning_child-1.csv",
		Format:    models.ExportFormatCSV,
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	handler := NewExportHandler(mock)

	c, w := newGinContext(http.MethodGet, "/exports/download/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}

	handler.Download(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "learning_child-1.csv")
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}

func TestExportDownloadRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &exportJobsMock{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")}
	handler := NewExportHandler(mock)

	c, w := newGinContext(http.MethodGet, "/exports/download/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}

	handler.Download(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumalearn/analytics-api/internal/models"
	"github.com/lumalearn/analytics-api/pkg/storage"
)

type memoryStorage struct {
	files map[string][]byte
	dir   string
}

func newMemoryStorage(t *testing.T) *memoryStorage {
	return &memoryStorage{files: map[string][]byte{}, dir: t.TempDir()}
}

func (m *memoryStorage) Save(filename string, data []byte) (string, error) {
	m.files[filename] = data
	path := filepath.Join(m.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return filename, nil
}

func (m *memoryStorage) Open(filename string) (*os.File, error) {
	return os.Open(filepath.Join(m.dir, filename))
}

func (m *memoryStorage) Delete(filename string) error {
	delete(m.files, filename)
	return os.Remove(filepath.Join(m.dir, filename))
}

func (m *memoryStorage) CleanupOlderThan(time.Duration) ([]string, error) {
	return nil, nil
}

func newExportService(t *testing.T, store *memoryStorage) *ExportService {
	fixed := func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }

	sessions := &fakeSessionRepo{sessions: []models.LearningSession{sessionAt(day(0), "math", 85, 20, 10)}}
	quizzes := &fakeQuizRepo{}
	daily := &fakeDailyRepo{}
	children := &fakeChildRepo{child: testChild()}

	learning := NewLearningReportService(children, sessions, quizzes, daily, nil, nil, nil, zap.NewNop())
	learning.now = fixed
	progress := NewProgressReportService(sessions, quizzes, daily, nil, 30)
	progress.now = fixed
	insights := NewInsightsService(sessions, quizzes, daily, nil)
	insights.now = fixed

	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(learning, progress, insights, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop())
}

func TestExportGenerateLearningCSV(t *testing.T) {
	store := newMemoryStorage(t)
	svc := newExportService(t, store)

	job := &models.ExportJob{
		ID:     "job-1",
		Kind:   models.ReportKindLearning,
		Params: models.ExportJobParams{ChildID: "child-1", Timeframe: "week", Format: models.ExportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	assert.Contains(t, result.URL, "/api/v1/exports/download/")
	assert.NotEmpty(t, result.Token)
	require.Len(t, store.files, 1)
	for name, payload := range store.files {
		assert.Contains(t, name, "learning_child-1")
		assert.Contains(t, string(payload), "Learning Report")
		assert.Contains(t, string(payload), "Subjects")
	}
}

func TestExportGenerateProgressPDF(t *testing.T) {
	store := newMemoryStorage(t)
	svc := newExportService(t, store)

	job := &models.ExportJob{
		ID:     "job-2",
		Kind:   models.ReportKindProgress,
		Params: models.ExportJobParams{ChildID: "child-1", Timeframe: "week", Format: models.ExportFormatPDF},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, models.ExportFormatPDF, result.Format)
	require.Len(t, store.files, 1)
	for _, payload := range store.files {
		assert.True(t, len(payload) > 0)
		assert.Equal(t, "%PDF", string(payload[:4]))
	}
}

func TestExportGenerateRejectsUnknownKind(t *testing.T) {
	store := newMemoryStorage(t)
	svc := newExportService(t, store)

	job := &models.ExportJob{
		ID:     "job-3",
		Kind:   models.ReportKind("mystery"),
		Params: models.ExportJobParams{ChildID: "child-1", Format: models.ExportFormatCSV},
	}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "a_b-c", sanitizeFilename("a b/c"))
}

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumalearn/analytics-api/internal/dto"
	"github.com/lumalearn/analytics-api/internal/models"
	"github.com/lumalearn/analytics-api/internal/repository"
	"github.com/lumalearn/analytics-api/pkg/jobs"
)

type fakeJobStore struct {
	jobsByID  map[string]*models.ExportJob
	createErr error
	updates   []repository.UpdateExportJobParams
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobsByID: map[string]*models.ExportJob{}}
}

func (f *fakeJobStore) Create(_ context.Context, job *models.ExportJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	if job.ID == "" {
		job.ID = "job-fixed"
	}
	f.jobsByID[job.ID] = job
	return nil
}

func (f *fakeJobStore) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	job, ok := f.jobsByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (f *fakeJobStore) Update(_ context.Context, id string, params repository.UpdateExportJobParams) error {
	f.updates = append(f.updates, params)
	job, ok := f.jobsByID[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (f *fakeJobStore) ListQueued(context.Context, int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range f.jobsByID {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (f *fakeJobStore) ListFinishedBefore(context.Context, time.Time, int) ([]models.ExportJob, error) {
	return nil, nil
}

type fakeDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (f *fakeDispatcher) Enqueue(job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}

func TestCreateJobPersistsAndEnqueues(t *testing.T) {
	store := newFakeJobStore()
	dispatcher := &fakeDispatcher{}
	svc := NewExportJobService(store, dispatcher, nil, zap.NewNop(), ExportJobConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		Kind:    models.ReportKindLearning,
		ChildID: "child-1",
		Format:  models.ExportFormatCSV,
	}, "parent-1")
	require.NoError(t, err)

	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, dispatcher.enqueued, 1)
	stored := store.jobsByID[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "week", string(stored.Params.Timeframe))
	assert.Equal(t, "parent-1", stored.RequestedBy)
}

func TestCreateJobRejectsInvalidRequest(t *testing.T) {
	store := newFakeJobStore()
	dispatcher := &fakeDispatcher{}
	svc := NewExportJobService(store, dispatcher, nil, zap.NewNop(), ExportJobConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		Kind:    models.ReportKind("weird"),
		ChildID: "child-1",
		Format:  models.ExportFormatCSV,
	}, "parent-1")
	require.Error(t, err)
	assert.Empty(t, store.jobsByID)
	assert.Empty(t, dispatcher.enqueued)
}

func TestCreateJobMarksFailedWhenEnqueueFails(t *testing.T) {
	store := newFakeJobStore()
	dispatcher := &fakeDispatcher{err: assert.AnError}
	svc := NewExportJobService(store, dispatcher, nil, zap.NewNop(), ExportJobConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		Kind:    models.ReportKindProgress,
		ChildID: "child-1",
		Format:  models.ExportFormatPDF,
	}, "parent-1")
	require.Error(t, err)

	require.Len(t, store.jobsByID, 1)
	for _, job := range store.jobsByID {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestGetStatusEnforcesOwnership(t *testing.T) {
	store := newFakeJobStore()
	store.jobsByID["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued, RequestedBy: "parent-1"}
	svc := NewExportJobService(store, &fakeDispatcher{}, nil, zap.NewNop(), ExportJobConfig{})

	_, err := svc.GetStatus(context.Background(), "job-1", "parent-2", models.RoleParent)
	require.Error(t, err)

	resp, err := svc.GetStatus(context.Background(), "job-1", "parent-2", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)

	resp, err = svc.GetStatus(context.Background(), "job-1", "parent-1", models.RoleParent)
	require.NoError(t, err)
	assert.Equal(t, "job-1", resp.ID)
}

func TestGetStatusNotFound(t *testing.T) {
	svc := NewExportJobService(newFakeJobStore(), &fakeDispatcher{}, nil, zap.NewNop(), ExportJobConfig{})
	_, err := svc.GetStatus(context.Background(), "missing", "parent-1", models.RoleAdmin)
	require.Error(t, err)
}

func TestProcessJobFinishesSuccessfully(t *testing.T) {
	store := newFakeJobStore()
	job := &models.ExportJob{
		ID:     "job-1",
		Kind:   models.ReportKindInsights,
		Params: models.ExportJobParams{ChildID: "child-1", Timeframe: "week", Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	store.jobsByID[job.ID] = job

	exporter := newExportService(t, newMemoryStorage(t))
	svc := NewExportJobService(store, &fakeDispatcher{}, exporter, zap.NewNop(), ExportJobConfig{})

	require.NoError(t, svc.ProcessJob(context.Background(), jobs.Job{ID: "job-1"}))

	final := store.jobsByID["job-1"]
	assert.Equal(t, models.ExportStatusFinished, final.Status)
	assert.Equal(t, 100, final.Progress)
	require.NotNil(t, final.ResultURL)
	assert.Contains(t, *final.ResultURL, "/exports/download/")
	assert.NotNil(t, final.FinishedAt)
}

func TestProcessJobSkipsFinishedJob(t *testing.T) {
	store := newFakeJobStore()
	store.jobsByID["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusFinished}
	svc := NewExportJobService(store, &fakeDispatcher{}, nil, zap.NewNop(), ExportJobConfig{})

	require.NoError(t, svc.ProcessJob(context.Background(), jobs.Job{ID: "job-1"}))
	assert.Empty(t, store.updates)
}

func TestRecoverPendingJobsRequeues(t *testing.T) {
	store := newFakeJobStore()
	store.jobsByID["job-1"] = &models.ExportJob{ID: "job-1", Kind: models.ReportKindLearning, Status: models.ExportStatusQueued}
	dispatcher := &fakeDispatcher{}
	svc := NewExportJobService(store, dispatcher, nil, zap.NewNop(), ExportJobConfig{})

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, "job-1", dispatcher.enqueued[0].ID)
}

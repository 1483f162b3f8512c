package service

import (
	"context"
	"sync"
	"time"

	"github.com/lumalearn/analytics-api/internal/models"
)

type fakeSessionRepo struct {
	sessions  []models.LearningSession
	insertErr error
	listErr   error
	inserted  []*models.LearningSession
}

func (f *fakeSessionRepo) Insert(_ context.Context, session *models.LearningSession) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, session)
	return nil
}

func (f *fakeSessionRepo) ListByChild(context.Context, models.SessionFilter) ([]models.LearningSession, error) {
	return f.sessions, f.listErr
}

type fakeQuizRepo struct {
	results   []models.QuizResult
	insertErr error
	listErr   error
	inserted  []*models.QuizResult
}

func (f *fakeQuizRepo) Insert(_ context.Context, result *models.QuizResult) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, result)
	return nil
}

func (f *fakeQuizRepo) ListByChild(context.Context, models.QuizFilter) ([]models.QuizResult, error) {
	return f.results, f.listErr
}

type fakeDailyRepo struct {
	mu        sync.Mutex
	byDate    map[string]*models.DailyAnalytics
	rows      []models.DailyAnalytics
	getErr    error
	listErr   error
	upsertErr error
	upserted  []*models.DailyAnalytics
}

func (f *fakeDailyRepo) GetByChildAndDate(_ context.Context, _ string, date time.Time) (*models.DailyAnalytics, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byDate == nil {
		return nil, nil
	}
	stored, ok := f.byDate[date.Format("2006-01-02")]
	if !ok {
		return nil, nil
	}
	clone := *stored
	return &clone, nil
}

func (f *fakeDailyRepo) ListRange(context.Context, models.DailyAnalyticsFilter) ([]models.DailyAnalytics, error) {
	return f.rows, f.listErr
}

func (f *fakeDailyRepo) Upsert(_ context.Context, row *models.DailyAnalytics) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, row)
	if f.byDate != nil {
		clone := *row
		f.byDate[row.Date.Format("2006-01-02")] = &clone
	}
	return nil
}

func (f *fakeDailyRepo) stored(key string) *models.DailyAnalytics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byDate[key]
}

type fakeChildRepo struct {
	child *models.Child
	err   error
}

func (f *fakeChildRepo) GetByID(context.Context, string) (*models.Child, error) {
	return f.child, f.err
}

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func testChild() *models.Child {
	return &models.Child{
		ID:         "child-1",
		ParentID:   "parent-1",
		Name:       "Mia",
		Age:        8,
		GradeLevel: "3rd",
		Interests:  models.StringList{"space", "animals"},
	}
}

func day(offset int) time.Time {
	base := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func sessionAt(created time.Time, subject string, completion float64, minutes, points int) models.LearningSession {
	return models.LearningSession{
		ID:                   "s-" + created.Format("20060102150405"),
		ChildID:              "child-1",
		Subject:              subject,
		Topic:                subject + " basics",
		SessionType:          models.SessionTypeLesson,
		DurationMinutes:      minutes,
		CompletionPercentage: completion,
		PointsEarned:         points,
		CreatedAt:            created,
	}
}

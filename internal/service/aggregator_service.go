package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lumalearn/analytics-api/internal/models"
	"github.com/lumalearn/analytics-api/pkg/events"
)

// SessionRepository persists raw learning sessions.
type SessionRepository interface {
	Insert(ctx context.Context, session *models.LearningSession) error
	ListByChild(ctx context.Context, filter models.SessionFilter) ([]models.LearningSession, error)
}

// QuizWriter persists raw quiz attempt outcomes.
type QuizWriter interface {
	Insert(ctx context.Context, result *models.QuizResult) error
}

// DailyAnalyticsRepository persists per-day rolling aggregates.
type DailyAnalyticsRepository interface {
	GetByChildAndDate(ctx context.Context, childID string, date time.Time) (*models.DailyAnalytics, error)
	ListRange(ctx context.Context, filter models.DailyAnalyticsFilter) ([]models.DailyAnalytics, error)
	Upsert(ctx context.Context, row *models.DailyAnalytics) error
}

// AggregatorService folds learning sessions into per-day analytics rows.
// Updates for the same (child, day) pair are serialized through a keyed
// mutex so concurrent folds cannot lose each other's online-mean update.
type AggregatorService struct {
	sessions  SessionRepository
	quizzes   QuizWriter
	daily     DailyAnalyticsRepository
	bus       *events.Bus
	metrics   *MetricsService
	logger    *zap.Logger
	trendDays int
	now       func() time.Time
	mu        sync.Mutex
	dayLocks  map[string]*sync.Mutex
}

// NewAggregatorService constructs the aggregator.
func NewAggregatorService(sessions SessionRepository, quizzes QuizWriter, daily DailyAnalyticsRepository, bus *events.Bus, metrics *MetricsService, trendDays int, logger *zap.Logger) *AggregatorService {
	if trendDays <= 0 {
		trendDays = 30
	}
	return &AggregatorService{
		sessions:  sessions,
		quizzes:   quizzes,
		daily:     daily,
		bus:       bus,
		metrics:   metrics,
		logger:    logger,
		trendDays: trendDays,
		now:       func() time.Time { return time.Now().UTC() },
		dayLocks:  map[string]*sync.Mutex{},
	}
}

// RecordQuiz stores a quiz attempt. Quiz results feed the report generators
// directly and are not folded into the daily aggregate.
func (s *AggregatorService) RecordQuiz(ctx context.Context, result *models.QuizResult) error {
	if result == nil {
		return fmt.Errorf("record quiz: nil result")
	}
	if err := s.quizzes.Insert(ctx, result); err != nil {
		return fmt.Errorf("record quiz: %w", err)
	}
	return nil
}

func (s *AggregatorService) lockFor(childID string, day time.Time) *sync.Mutex {
	key := childID + "|" + day.Format("2006-01-02")
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.dayLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.dayLocks[key] = lock
	}
	return lock
}

// engagementScore blends completion, time on task and points into a 0-100 value.
func engagementScore(session models.LearningSession) float64 {
	timeFactor := clamp(float64(session.DurationMinutes)/30, 0, 1)
	pointsFactor := clamp(float64(session.PointsEarned)/100, 0, 1)
	return 0.4*session.CompletionPercentage + 0.3*timeFactor*100 + 0.3*pointsFactor*100
}

// ProcessSession stores the session, folds it into today's DailyAnalytics
// row and publishes a session.processed event. The day boundary is the
// calendar date of processing time, not the session timestamp.
func (s *AggregatorService) ProcessSession(ctx context.Context, session *models.LearningSession) (*models.DailyAnalytics, error) {
	if session == nil {
		return nil, fmt.Errorf("process session: nil session")
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("process session: %w", err)
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	lock := s.lockFor(session.ChildID, today)
	lock.Lock()
	defer lock.Unlock()

	row, err := s.daily.GetByChildAndDate(ctx, session.ChildID, today)
	if err != nil {
		return nil, fmt.Errorf("process session: %w", err)
	}
	if row == nil {
		row = &models.DailyAnalytics{
			ChildID:           session.ChildID,
			Date:              today,
			SubjectsStudied:   models.StringList{},
			PerformanceTrends: models.TrendMap{},
		}
	}
	if row.PerformanceTrends == nil {
		row.PerformanceTrends = models.TrendMap{}
	}

	priorCount := row.SessionsCompleted
	row.TotalSessionTimeMinutes += session.DurationMinutes
	row.SessionsCompleted++
	row.AverageScorePercentage = onlineMean(row.AverageScorePercentage, priorCount, session.CompletionPercentage)
	row.EngagementScore = onlineMean(row.EngagementScore, priorCount, engagementScore(*session))
	if !row.SubjectsStudied.Contains(session.Subject) {
		row.SubjectsStudied = append(row.SubjectsStudied, session.Subject)
	}

	row.PerformanceTrends[today.Format("2006-01-02")] = models.DailyTrendPoint{
		Completion:  session.CompletionPercentage,
		TimeMinutes: session.DurationMinutes,
		Points:      session.PointsEarned,
	}
	cutoff := today.AddDate(0, 0, -s.trendDays)
	for key := range row.PerformanceTrends {
		day, parseErr := time.Parse("2006-01-02", key)
		if parseErr != nil || day.Before(cutoff) {
			delete(row.PerformanceTrends, key)
		}
	}

	weekly, err := s.computeWeeklyProgress(ctx, session.ChildID, today, row)
	if err != nil {
		return nil, fmt.Errorf("process session: %w", err)
	}
	row.WeeklyProgress = weekly

	if err := s.daily.Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("process session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSessionProcessed(session.Subject)
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{
			Type:       events.EventSessionProcessed,
			Payload:    events.SessionProcessedPayload{ChildID: session.ChildID, SessionID: session.ID, Date: today},
			OccurredAt: now,
		})
	}
	return row, nil
}

// computeWeeklyProgress re-reads the trailing 7 days of daily rows and sums
// them, substituting the in-memory row for today so the snapshot reflects
// the fold that has not been written yet.
func (s *AggregatorService) computeWeeklyProgress(ctx context.Context, childID string, today time.Time, current *models.DailyAnalytics) (models.WeeklyProgress, error) {
	from := today.AddDate(0, 0, -6)
	rows, err := s.daily.ListRange(ctx, models.DailyAnalyticsFilter{ChildID: childID, DateFrom: &from, DateTo: &today})
	if err != nil {
		return models.WeeklyProgress{}, fmt.Errorf("weekly progress: %w", err)
	}

	replaced := false
	for i := range rows {
		if rows[i].Date.Equal(current.Date) {
			rows[i] = *current
			replaced = true
		}
	}
	if !replaced {
		rows = append(rows, *current)
	}

	progress := models.WeeklyProgress{Subjects: models.StringList{}}
	var scores []float64
	for _, row := range rows {
		progress.TotalTimeMinutes += row.TotalSessionTimeMinutes
		progress.SessionsCompleted += row.SessionsCompleted
		if row.SessionsCompleted > 0 {
			scores = append(scores, row.AverageScorePercentage)
		}
		for _, subject := range row.SubjectsStudied {
			if !progress.Subjects.Contains(subject) {
				progress.Subjects = append(progress.Subjects, subject)
			}
		}
	}
	progress.AverageScore = round1(mean(scores))
	return progress, nil
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumalearn/analytics-api/internal/models"
)

func newProgressService(sessions *fakeSessionRepo, quizzes *fakeQuizRepo, daily *fakeDailyRepo) *ProgressReportService {
	svc := NewProgressReportService(sessions, quizzes, daily, nil, 30)
	svc.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestSessionTrackingBuckets(t *testing.T) {
	sessions := []models.LearningSession{
		sessionAt(day(0), "math", 95, 20, 10),
		sessionAt(day(0), "math", 80, 20, 10),
		sessionAt(day(-1), "reading", 65, 15, 5),
		sessionAt(day(-2), "science", 30, 5, 0),
	}

	tracking := buildSessionTracking(sessions)
	assert.Equal(t, 4, tracking.Total)
	assert.Equal(t, 2, tracking.Completed)
	assert.Equal(t, 1, tracking.Partial)
	assert.Equal(t, 1, tracking.Incomplete)
	assert.InDelta(t, 50, tracking.CompletionRate, 0.0001)
}

func TestCurrentStreakThreeDays(t *testing.T) {
	svc := newProgressService(&fakeSessionRepo{}, &fakeQuizRepo{}, &fakeDailyRepo{})
	sessions := []models.LearningSession{
		sessionAt(day(0).Add(9*time.Hour), "math", 80, 20, 10),
		sessionAt(day(-1).Add(10*time.Hour), "math", 80, 20, 10),
		sessionAt(day(-2).Add(11*time.Hour), "math", 80, 20, 10),
		// gap at day -3, then an older session that must not count
		sessionAt(day(-5), "math", 80, 20, 10),
	}
	assert.Equal(t, 3, svc.currentStreak(sessions, day(0)))
}

func TestCurrentStreakBrokenByGapAtYesterday(t *testing.T) {
	svc := newProgressService(&fakeSessionRepo{}, &fakeQuizRepo{}, &fakeDailyRepo{})
	sessions := []models.LearningSession{
		sessionAt(day(0), "math", 80, 20, 10),
		sessionAt(day(-2), "math", 80, 20, 10),
	}
	assert.Equal(t, 1, svc.currentStreak(sessions, day(0)))
}

func TestAchievementSystemBadgesAndMilestone(t *testing.T) {
	sessions := &fakeSessionRepo{}
	for i := 0; i < 6; i++ {
		sessions.sessions = append(sessions.sessions, sessionAt(day(-i%2), "math", 85, 20, 30))
	}
	quizzes := &fakeQuizRepo{results: []models.QuizResult{
		{ChildID: "child-1", Subject: "math", TotalQuestions: 10, CorrectAnswers: 10, ScorePercentage: 100, CreatedAt: day(0)},
	}}

	svc := newProgressService(sessions, quizzes, &fakeDailyRepo{})
	report, err := svc.Generate(context.Background(), "child-1", models.TimeframeWeek)
	require.NoError(t, err)

	assert.Equal(t, 180, report.Rewards.TotalPoints)
	names := make([]string, 0, len(report.Rewards.Badges))
	for _, badge := range report.Rewards.Badges {
		names = append(names, badge.Name)
	}
	assert.Contains(t, names, "Getting Started")
	assert.Contains(t, names, "Quiz Ace")
	assert.NotContains(t, names, "Quiz Master")

	// 6 sessions and 180 points: "Getting Started" is met, next ladder rung
	// is "Learning Enthusiast" at 10 sessions / 250 points.
	require.NotNil(t, report.Rewards.NextMilestone)
	assert.Equal(t, "Learning Enthusiast", report.Rewards.NextMilestone.Label)
	assert.Equal(t, 4, report.Rewards.NextMilestone.SessionsRemaining)
	assert.Equal(t, 70, report.Rewards.NextMilestone.PointsRemaining)
}

func TestActivityTimelineMergedSortedTruncated(t *testing.T) {
	var sessions []models.LearningSession
	for i := 0; i < 15; i++ {
		sessions = append(sessions, sessionAt(day(0).Add(time.Duration(i)*time.Hour), "math", 80, 20, 10))
	}
	var quizzes []models.QuizResult
	for i := 0; i < 10; i++ {
		quizzes = append(quizzes, models.QuizResult{Subject: "math", ScorePercentage: 90, CreatedAt: day(0).Add(time.Duration(i*2) * time.Hour)})
	}

	timeline := buildActivityTimeline(sessions, quizzes)
	require.Len(t, timeline, 20)
	for i := 1; i < len(timeline); i++ {
		assert.False(t, timeline[i].OccurredAt.After(timeline[i-1].OccurredAt), "timeline must be newest first")
	}
}

func TestProgressMetricsSkillDevelopmentNotComputed(t *testing.T) {
	metrics := buildProgressMetrics(nil, nil, nil)
	assert.Equal(t, models.StatusNotComputed, metrics.SkillDevelopment.Status)
}

func TestProgressReportZeroSessionsNoNaN(t *testing.T) {
	svc := newProgressService(&fakeSessionRepo{}, &fakeQuizRepo{}, &fakeDailyRepo{})
	report, err := svc.Generate(context.Background(), "child-1", models.TimeframeWeek)
	require.NoError(t, err)

	assert.Zero(t, report.Sessions.Total)
	assert.Zero(t, report.Sessions.CompletionRate)
	assert.Zero(t, report.Time.AverageSessionMinutes)
	assert.Zero(t, report.Time.OptimalSessionMinutes)
	assert.Zero(t, report.Metrics.LearningVelocity)
	assert.Empty(t, report.Timeline)
	assert.Equal(t, models.TrendStable, report.Metrics.ImprovementTrend)
	require.NotNil(t, report.Rewards.NextMilestone)
	assert.Equal(t, "Getting Started", report.Rewards.NextMilestone.Label)
}

func TestOptimalSessionLengthFromCompletedSessions(t *testing.T) {
	sessions := []models.LearningSession{
		sessionAt(day(0), "math", 90, 20, 10),
		sessionAt(day(0), "math", 85, 30, 10),
		sessionAt(day(0), "math", 40, 60, 0),
	}
	analysis := buildTimeAnalysis(sessions, nil)
	assert.InDelta(t, 25, analysis.OptimalSessionMinutes, 0.0001)
	assert.Equal(t, 110, analysis.TotalMinutes)
}

package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lumalearn/analytics-api/internal/models"
)

// ProgressReportService derives completion, time, reward and streak state.
type ProgressReportService struct {
	sessions       SessionRepository
	quizzes        QuizRepository
	daily          DailyAnalyticsRepository
	metrics        *MetricsService
	streakLookback int
	now            func() time.Time
}

// NewProgressReportService constructs the generator.
func NewProgressReportService(sessions SessionRepository, quizzes QuizRepository, daily DailyAnalyticsRepository, metrics *MetricsService, streakLookback int) *ProgressReportService {
	if streakLookback <= 0 {
		streakLookback = 30
	}
	return &ProgressReportService{
		sessions:       sessions,
		quizzes:        quizzes,
		daily:          daily,
		metrics:        metrics,
		streakLookback: streakLookback,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// milestoneTargets is the ordered ladder of session/point goals.
var milestoneTargets = []models.Milestone{
	{Label: "Getting Started", SessionTarget: 5, PointTarget: 100},
	{Label: "Learning Enthusiast", SessionTarget: 10, PointTarget: 250},
	{Label: "Knowledge Seeker", SessionTarget: 25, PointTarget: 600},
}

// Generate builds the progress report for the child over the timeframe.
func (s *ProgressReportService) Generate(ctx context.Context, childID string, timeframe models.Timeframe) (*models.ProgressReport, error) {
	started := time.Now()
	now := s.now()
	from := now.AddDate(0, 0, -timeframe.WindowDays())

	sessions, err := s.sessions.ListByChild(ctx, models.SessionFilter{ChildID: childID, From: &from, To: &now})
	if err != nil {
		return nil, fmt.Errorf("progress report: %w", err)
	}
	quizzes, err := s.quizzes.ListByChild(ctx, models.QuizFilter{ChildID: childID, From: &from, To: &now})
	if err != nil {
		return nil, fmt.Errorf("progress report: %w", err)
	}
	dailyRows, err := s.daily.ListRange(ctx, models.DailyAnalyticsFilter{ChildID: childID, DateFrom: &from, DateTo: &now})
	if err != nil {
		return nil, fmt.Errorf("progress report: %w", err)
	}

	report := &models.ProgressReport{
		ChildID:     childID,
		Timeframe:   timeframe,
		GeneratedAt: now,
		Sessions:    buildSessionTracking(sessions),
		Time:        buildTimeAnalysis(sessions, dailyRows),
		Rewards:     s.buildAchievementSystem(sessions, quizzes, now),
		Timeline:    buildActivityTimeline(sessions, quizzes),
		Metrics:     buildProgressMetrics(sessions, quizzes, dailyRows),
	}

	if s.metrics != nil {
		s.metrics.ObserveReportGeneration("progress", time.Since(started))
	}
	return report, nil
}

func buildSessionTracking(sessions []models.LearningSession) models.SessionTracking {
	tracking := models.SessionTracking{Total: len(sessions)}
	for _, session := range sessions {
		switch {
		case session.CompletionPercentage >= 80:
			tracking.Completed++
		case session.CompletionPercentage >= 50:
			tracking.Partial++
		default:
			tracking.Incomplete++
		}
	}
	if tracking.Total > 0 {
		tracking.CompletionRate = round1(float64(tracking.Completed) / float64(tracking.Total) * 100)
	}
	return tracking
}

func buildTimeAnalysis(sessions []models.LearningSession, dailyRows []models.DailyAnalytics) models.TimeAnalysis {
	analysis := models.TimeAnalysis{
		BySubject: make(map[string]int),
		ByDay:     make(map[string]int),
	}

	var completedMinutes []float64
	for _, session := range sessions {
		analysis.TotalMinutes += session.DurationMinutes
		analysis.BySubject[session.Subject] += session.DurationMinutes
		analysis.ByDay[session.CreatedAt.Format("2006-01-02")] += session.DurationMinutes
		if session.CompletionPercentage >= 80 {
			completedMinutes = append(completedMinutes, float64(session.DurationMinutes))
		}
	}
	if len(sessions) > 0 {
		analysis.AverageSessionMinutes = round1(float64(analysis.TotalMinutes) / float64(len(sessions)))
	}

	var dailyTotals []float64
	for _, row := range dailyRows {
		dailyTotals = append(dailyTotals, float64(row.TotalSessionTimeMinutes))
	}
	analysis.DailyAverageMinutes = round1(mean(dailyTotals))
	analysis.OptimalSessionMinutes = round1(mean(completedMinutes))
	return analysis
}

func (s *ProgressReportService) buildAchievementSystem(sessions []models.LearningSession, quizzes []models.QuizResult, now time.Time) models.AchievementSystem {
	system := models.AchievementSystem{Badges: []models.Badge{}}
	for _, session := range sessions {
		system.TotalPoints += session.PointsEarned
	}

	sessionCount := len(sessions)
	for _, target := range milestoneTargets {
		if sessionCount >= target.SessionTarget {
			system.Badges = append(system.Badges, models.Badge{Name: target.Label, Category: "milestone"})
		}
	}

	perfect := 0
	for _, quiz := range quizzes {
		if quiz.ScorePercentage == 100 {
			perfect++
		}
	}
	if perfect >= 1 {
		system.Badges = append(system.Badges, models.Badge{Name: "Quiz Ace", Category: "quiz"})
	}
	if perfect >= 5 {
		system.Badges = append(system.Badges, models.Badge{Name: "Quiz Master", Category: "quiz"})
	}

	system.CurrentStreakDays = s.currentStreak(sessions, now)
	if system.CurrentStreakDays >= 3 {
		system.Badges = append(system.Badges, models.Badge{Name: "3-Day Streak", Category: "streak"})
	}
	if system.CurrentStreakDays >= 7 {
		system.Badges = append(system.Badges, models.Badge{Name: "7-Day Streak", Category: "streak"})
	}

	for _, target := range milestoneTargets {
		if sessionCount < target.SessionTarget || system.TotalPoints < target.PointTarget {
			next := target
			next.SessionsRemaining = target.SessionTarget - sessionCount
			if next.SessionsRemaining < 0 {
				next.SessionsRemaining = 0
			}
			next.PointsRemaining = target.PointTarget - system.TotalPoints
			if next.PointsRemaining < 0 {
				next.PointsRemaining = 0
			}
			system.NextMilestone = &next
			break
		}
	}
	return system
}

// currentStreak counts consecutive calendar days with at least one session,
// walking backward from today up to the configured lookback.
func (s *ProgressReportService) currentStreak(sessions []models.LearningSession, now time.Time) int {
	days := make(map[string]bool, len(sessions))
	for _, session := range sessions {
		days[session.CreatedAt.Format("2006-01-02")] = true
	}

	streak := 0
	for i := 0; i < s.streakLookback; i++ {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		if !days[day] {
			break
		}
		streak++
	}
	return streak
}

func buildActivityTimeline(sessions []models.LearningSession, quizzes []models.QuizResult) []models.ActivityEvent {
	events := make([]models.ActivityEvent, 0, len(sessions)+len(quizzes))
	for _, session := range sessions {
		events = append(events, models.ActivityEvent{
			Type:            "session",
			Subject:         session.Subject,
			Title:           session.Topic,
			Score:           session.CompletionPercentage,
			DurationMinutes: session.DurationMinutes,
			Points:          session.PointsEarned,
			OccurredAt:      session.CreatedAt,
		})
	}
	for _, quiz := range quizzes {
		events = append(events, models.ActivityEvent{
			Type:       "quiz",
			Subject:    quiz.Subject,
			Title:      fmt.Sprintf("%s quiz", quiz.Subject),
			Score:      quiz.ScorePercentage,
			OccurredAt: quiz.CreatedAt,
		})
	}

	sort.Slice(events, func(i, j int) bool { return events[i].OccurredAt.After(events[j].OccurredAt) })
	if len(events) > 20 {
		events = events[:20]
	}
	return events
}

func buildProgressMetrics(sessions []models.LearningSession, quizzes []models.QuizResult, dailyRows []models.DailyAnalytics) models.ProgressMetrics {
	metrics := models.ProgressMetrics{
		SubjectProgress:  make(map[string]models.SubjectProgress),
		SkillDevelopment: models.SkillDevelopment{Status: models.StatusNotComputed},
	}

	weekly := models.WeeklyProgress{Subjects: models.StringList{}}
	var dailyScores []float64
	for _, row := range dailyRows {
		weekly.TotalTimeMinutes += row.TotalSessionTimeMinutes
		weekly.SessionsCompleted += row.SessionsCompleted
		if row.SessionsCompleted > 0 {
			dailyScores = append(dailyScores, row.AverageScorePercentage)
		}
		for _, subject := range row.SubjectsStudied {
			if !weekly.Subjects.Contains(subject) {
				weekly.Subjects = append(weekly.Subjects, subject)
			}
		}
	}
	weekly.AverageScore = round1(mean(dailyScores))
	metrics.WeeklySummary = weekly

	bySubject := make(map[string][]models.LearningSession)
	for _, session := range sessions {
		bySubject[session.Subject] = append(bySubject[session.Subject], session)
	}
	var totalMinutes int
	for subject, group := range bySubject {
		var minutes int
		completions := make([]float64, 0, len(group))
		for _, session := range group {
			minutes += session.DurationMinutes
			completions = append(completions, session.CompletionPercentage)
		}
		totalMinutes += minutes
		metrics.SubjectProgress[subject] = models.SubjectProgress{
			Sessions:          len(group),
			AverageCompletion: round1(mean(completions)),
			TotalTimeMinutes:  minutes,
		}
	}

	if totalMinutes > 0 {
		metrics.LearningVelocity = round1(float64(len(sessions)) / (float64(totalMinutes) / 60))
	}
	metrics.ConsistencyScore = round1(clamp(100-stddev(dailyScores), 0, 100))
	metrics.ImprovementTrend = improvementTrend(quizzes)
	return metrics
}

// improvementTrend buckets the first-half vs second-half quiz average
// comparison at +-10%.
func improvementTrend(quizzes []models.QuizResult) string {
	if len(quizzes) < 2 {
		return models.TrendStable
	}
	change := improvementRate(quizzes)
	switch {
	case change > 10:
		return models.TrendImproving
	case change < -10:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

package models

import "time"

// ProgressReport tracks completion, time, points and streaks for one child.
type ProgressReport struct {
	ChildID     string            `json:"child_id"`
	Timeframe   Timeframe         `json:"timeframe"`
	GeneratedAt time.Time         `json:"generated_at"`
	Sessions    SessionTracking   `json:"session_tracking"`
	Time        TimeAnalysis      `json:"time_analysis"`
	Rewards     AchievementSystem `json:"achievement_system"`
	Timeline    []ActivityEvent   `json:"activity_timeline"`
	Metrics     ProgressMetrics   `json:"progress_metrics"`
}

// SessionTracking buckets sessions by completion level.
type SessionTracking struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Partial        int     `json:"partial"`
	Incomplete     int     `json:"incomplete"`
	CompletionRate float64 `json:"completion_rate"`
}

// TimeAnalysis breaks down time spent across the window.
type TimeAnalysis struct {
	TotalMinutes          int                `json:"total_minutes"`
	AverageSessionMinutes float64            `json:"average_session_minutes"`
	DailyAverageMinutes   float64            `json:"daily_average_minutes"`
	BySubject             map[string]int     `json:"by_subject"`
	ByDay                 map[string]int     `json:"by_day"`
	OptimalSessionMinutes float64            `json:"optimal_session_minutes"`
}

// AchievementSystem carries point totals, badges and streak state.
type AchievementSystem struct {
	TotalPoints       int        `json:"total_points"`
	Badges            []Badge    `json:"badges"`
	CurrentStreakDays int        `json:"current_streak_days"`
	NextMilestone     *Milestone `json:"next_milestone,omitempty"`
}

// Badge is a named reward in a category (milestone, quiz, streak).
type Badge struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Milestone is the next unmet session/point target.
type Milestone struct {
	Label             string `json:"label"`
	SessionTarget     int    `json:"session_target"`
	PointTarget       int    `json:"point_target"`
	SessionsRemaining int    `json:"sessions_remaining"`
	PointsRemaining   int    `json:"points_remaining"`
}

// ActivityEvent is one entry in the merged session/quiz timeline.
type ActivityEvent struct {
	Type            string    `json:"type"`
	Subject         string    `json:"subject"`
	Title           string    `json:"title"`
	Score           float64   `json:"score"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	Points          int       `json:"points,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// ProgressMetrics holds derived velocity/consistency figures.
type ProgressMetrics struct {
	WeeklySummary    WeeklyProgress             `json:"weekly_summary"`
	SubjectProgress  map[string]SubjectProgress `json:"subject_progress"`
	SkillDevelopment SkillDevelopment           `json:"skill_development"`
	LearningVelocity float64                    `json:"learning_velocity"`
	ConsistencyScore float64                    `json:"consistency_score"`
	ImprovementTrend string                     `json:"improvement_trend"`
}

// SubjectProgress reports per-subject completion progress.
type SubjectProgress struct {
	Sessions          int     `json:"sessions"`
	AverageCompletion float64 `json:"average_completion"`
	TotalTimeMinutes  int     `json:"total_time_minutes"`
}

// SkillDevelopment is intentionally a sentinel: no real skill inference rule
// has been specified, so the section reports not_computed rather than a
// fabricated score.
type SkillDevelopment struct {
	Status string `json:"status"`
}

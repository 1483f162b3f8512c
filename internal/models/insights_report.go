package models

import "time"

// InsightsReport is the fixed-window behavioural insight bundle for one child:
// 7 days for the weekly section, 30 days for trends and engagement.
type InsightsReport struct {
	ChildID         string                 `json:"child_id"`
	GeneratedAt     time.Time              `json:"generated_at"`
	Weekly          WeeklyAnalytics        `json:"weekly_analytics"`
	Trends          PerformanceTrendReport `json:"performance_trends"`
	Engagement      EngagementAnalysis     `json:"engagement_analysis"`
	Subjects        SubjectOverview        `json:"subject_overview"`
	Summary         []Insight              `json:"insights_summary"`
	Recommendations []string               `json:"recommendations"`
}

// LearningPattern classifies when and how steadily the child learns.
type LearningPattern struct {
	PreferredTime string `json:"preferred_time"`
	Consistency   string `json:"consistency"`
	Trend         string `json:"trend"`
}

// WeeklyAnalytics rolls up the trailing seven daily aggregates.
type WeeklyAnalytics struct {
	Status              string          `json:"status"`
	TotalTimeMinutes    int             `json:"total_time_minutes,omitempty"`
	SessionsCompleted   int             `json:"sessions_completed,omitempty"`
	AverageScore        float64         `json:"average_score,omitempty"`
	DailyAverageMinutes float64         `json:"daily_average_minutes,omitempty"`
	Pattern             LearningPattern `json:"learning_pattern,omitempty"`
	PeakDay             string          `json:"peak_day,omitempty"`
	ConsistencyRating   float64         `json:"consistency_rating,omitempty"`
}

// WeeklyBucket is one seven-day chunk of the 30-day trend window.
type WeeklyBucket struct {
	Index             int       `json:"index"`
	StartDate         time.Time `json:"start_date"`
	AverageScore      float64   `json:"average_score"`
	TotalTimeMinutes  int       `json:"total_time_minutes"`
	Sessions          int       `json:"sessions"`
	AverageEngagement float64   `json:"average_engagement"`
}

// ScorePrediction is the naive next-week projection.
type ScorePrediction struct {
	NextWeekScore float64 `json:"next_week_score"`
	Confidence    string  `json:"confidence"`
}

// PerformanceTrendReport derives direction, strength and volatility over the
// 30-day window bucketed into weeks.
type PerformanceTrendReport struct {
	Status          string           `json:"status"`
	Weeks           []WeeklyBucket   `json:"weeks,omitempty"`
	TrendDirection  string           `json:"trend_direction,omitempty"`
	TrendStrength   float64          `json:"trend_strength,omitempty"`
	VolatilityScore float64          `json:"volatility_score,omitempty"`
	Stability       string           `json:"performance_stability,omitempty"`
	Prediction      *ScorePrediction `json:"prediction,omitempty"`
}

// TimeOfDayEngagement aggregates sessions in one part of the day.
type TimeOfDayEngagement struct {
	Sessions          int     `json:"sessions"`
	AverageEngagement float64 `json:"average_engagement"`
}

// SessionLengthStats describes the distribution of session durations.
type SessionLengthStats struct {
	MedianMinutes  float64 `json:"median_minutes"`
	MeanMinutes    float64 `json:"mean_minutes"`
	MinMinutes     int     `json:"min_minutes"`
	MaxMinutes     int     `json:"max_minutes"`
	OptimalMinutes float64 `json:"optimal_minutes"`
}

// EngagementAnalysis breaks engagement down by time of day and subject.
type EngagementAnalysis struct {
	Status        string                         `json:"status"`
	ByTimeOfDay   map[string]TimeOfDayEngagement `json:"by_time_of_day,omitempty"`
	BySubject     map[string]float64             `json:"by_subject,omitempty"`
	SessionLength SessionLengthStats             `json:"session_length,omitempty"`
	Trend         string                         `json:"engagement_trend,omitempty"`
}

// SubjectInsight summarises one subject inside the overview.
type SubjectInsight struct {
	AverageCompletion float64 `json:"average_completion"`
	AverageQuizScore  float64 `json:"average_quiz_score"`
	Proficiency       string  `json:"proficiency"`
	ProgressRate      float64 `json:"progress_rate"`
	TotalTimeMinutes  int     `json:"total_time_minutes"`
}

// SubjectOverview covers proficiency, extremes and balance across subjects.
type SubjectOverview struct {
	Status   string                    `json:"status"`
	Subjects map[string]SubjectInsight `json:"subjects,omitempty"`
	Strongest string                   `json:"strongest_subject,omitempty"`
	Weakest   string                   `json:"weakest_subject,omitempty"`
	Balance   string                   `json:"balance_assessment,omitempty"`
}

// Insight is one natural-language takeaway with a sentiment kind.
type Insight struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

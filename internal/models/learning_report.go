package models

import "time"

// Performance level buckets derived from the mean of quiz score and completion.
const (
	PerformanceExcellent        = "excellent"
	PerformanceVeryGood         = "very_good"
	PerformanceGood             = "good"
	PerformanceFair             = "fair"
	PerformanceNeedsImprovement = "needs_improvement"
)

// Trend labels shared by learning trends and insight trend sections.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"

	TrendStrengthStrong   = "strong"
	TrendStrengthModerate = "moderate"
	TrendStrengthWeak     = "weak"
)

// LearningReport is the full analytical report for one child and timeframe.
// It is derived on demand and never persisted.
type LearningReport struct {
	ChildID         string                     `json:"child_id"`
	ChildName       string                     `json:"child_name"`
	Timeframe       Timeframe                  `json:"timeframe"`
	GeneratedAt     time.Time                  `json:"generated_at"`
	Performance     PerformanceAnalysis        `json:"performance_analysis"`
	Trends          LearningTrends             `json:"learning_trends"`
	Subjects        map[string]SubjectAnalysis `json:"subject_analysis"`
	Recommendations []Recommendation           `json:"recommendations"`
	Achievements    []Achievement              `json:"achievements"`
	Improvements    []ImprovementArea          `json:"areas_for_improvement"`
	Engagement      EngagementMetrics          `json:"engagement_metrics"`
}

// PerformanceAnalysis summarises raw performance over the window.
type PerformanceAnalysis struct {
	TotalTimeMinutes    int     `json:"total_time_minutes"`
	AverageCompletion   float64 `json:"average_completion"`
	AverageQuizScore    float64 `json:"average_quiz_score"`
	LearningConsistency float64 `json:"learning_consistency"`
	ImprovementRate     float64 `json:"improvement_rate"`
	PerformanceLevel    string  `json:"performance_level"`
}

// LearningTrends compares recent daily averages against the earlier window.
type LearningTrends struct {
	Status           string  `json:"status"`
	Trend            string  `json:"trend,omitempty"`
	Strength         string  `json:"strength,omitempty"`
	ChangePercentage float64 `json:"change_percentage,omitempty"`
}

// SubjectAnalysis aggregates per-subject performance.
type SubjectAnalysis struct {
	Sessions          int     `json:"sessions"`
	TotalTimeMinutes  int     `json:"total_time_minutes"`
	AverageCompletion float64 `json:"average_completion"`
	AverageQuizScore  float64 `json:"average_quiz_score"`
	TimePerSession    float64 `json:"time_per_session_minutes"`
	StrengthLevel     string  `json:"strength_level"`
}

// RecommendationSource tags where a recommendation came from.
type RecommendationSource string

const (
	RecommendationSourceAI    RecommendationSource = "ai"
	RecommendationSourceRules RecommendationSource = "rules"
)

// Recommendation is a suggested next step for the child.
type Recommendation struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Priority    string               `json:"priority"`
	Source      RecommendationSource `json:"source"`
}

// Achievement is a rule-derived accolade earned in the window.
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Count       int    `json:"count,omitempty"`
}

// ImprovementArea flags a pattern that needs attention.
type ImprovementArea struct {
	Area       string `json:"area"`
	Priority   string `json:"priority"`
	Suggestion string `json:"suggestion"`
}

// EngagementMetrics summarises time-on-task and attention distribution.
type EngagementMetrics struct {
	TotalTimeMinutes       int                `json:"total_time_minutes"`
	AverageSessionMinutes  float64            `json:"average_session_minutes"`
	AverageEngagementScore float64            `json:"average_engagement_score"`
	Level                  string             `json:"level"`
	SubjectDistribution    map[string]float64 `json:"subject_distribution"`
}

package models

import "time"

// SessionType enumerates the kinds of learning activities tracked.
type SessionType string

const (
	SessionTypeLesson   SessionType = "lesson"
	SessionTypePractice SessionType = "practice"
	SessionTypeGame     SessionType = "game"
	SessionTypeStory    SessionType = "story"
)

// LearningSession records one child's attempt at a topic or lesson.
// Rows are immutable once written except for completion updates and are never
// deleted by this service.
type LearningSession struct {
	ID                   string      `db:"id" json:"id"`
	ChildID              string      `db:"child_id" json:"child_id"`
	Subject              string      `db:"subject" json:"subject"`
	Topic                string      `db:"topic" json:"topic"`
	SessionType          SessionType `db:"session_type" json:"session_type"`
	DurationMinutes      int         `db:"duration_minutes" json:"duration_minutes"`
	CompletionPercentage float64     `db:"completion_percentage" json:"completion_percentage"`
	PointsEarned         int         `db:"points_earned" json:"points_earned"`
	CreatedAt            time.Time   `db:"created_at" json:"created_at"`
}

// SessionFilter scopes session queries by child and time range.
type SessionFilter struct {
	ChildID string
	From    *time.Time
	To      *time.Time
}

package models

import "time"

// Child is the learner profile referenced by sessions, quizzes and analytics.
// Account management lives in the platform auth service; this API only reads
// the profile fields needed for report personalisation.
type Child struct {
	ID         string     `db:"id" json:"id"`
	ParentID   string     `db:"parent_id" json:"parent_id"`
	Name       string     `db:"name" json:"name"`
	Age        int        `db:"age" json:"age"`
	GradeLevel string     `db:"grade_level" json:"grade_level"`
	Interests  StringList `db:"interests" json:"interests"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

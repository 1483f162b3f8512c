package models

import "time"

// QuizResult captures the outcome of one quiz attempt. Immutable once written.
// ScorePercentage is stored as round(correct/total*100) at insert time.
type QuizResult struct {
	ID              string    `db:"id" json:"id"`
	ChildID         string    `db:"child_id" json:"child_id"`
	Subject         string    `db:"subject" json:"subject"`
	TotalQuestions  int       `db:"total_questions" json:"total_questions"`
	CorrectAnswers  int       `db:"correct_answers" json:"correct_answers"`
	ScorePercentage float64   `db:"score_percentage" json:"score_percentage"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// QuizFilter scopes quiz result queries by child and time range.
type QuizFilter struct {
	ChildID string
	From    *time.Time
	To      *time.Time
}

package dto

import "github.com/lumalearn/analytics-api/internal/models"

// ProcessSessionRequest is the payload for folding a new learning session.
type ProcessSessionRequest struct {
	ChildID              string  `json:"child_id" binding:"required"`
	Subject              string  `json:"subject" binding:"required"`
	Topic                string  `json:"topic" binding:"required"`
	SessionType          string  `json:"session_type" binding:"required,oneof=lesson practice game story"`
	DurationMinutes      int     `json:"duration_minutes" binding:"min=0"`
	CompletionPercentage float64 `json:"completion_percentage" binding:"min=0,max=100"`
	PointsEarned         int     `json:"points_earned" binding:"min=0"`
}

// ToModel converts the request into a session model.
func (r ProcessSessionRequest) ToModel() *models.LearningSession {
	return &models.LearningSession{
		ChildID:              r.ChildID,
		Subject:              r.Subject,
		Topic:                r.Topic,
		SessionType:          models.SessionType(r.SessionType),
		DurationMinutes:      r.DurationMinutes,
		CompletionPercentage: r.CompletionPercentage,
		PointsEarned:         r.PointsEarned,
	}
}

// RecordQuizRequest is the payload for recording a quiz attempt.
type RecordQuizRequest struct {
	ChildID        string `json:"child_id" binding:"required"`
	Subject        string `json:"subject" binding:"required"`
	TotalQuestions int    `json:"total_questions" binding:"required,min=1"`
	CorrectAnswers int    `json:"correct_answers" binding:"min=0"`
}

// ToModel converts the request into a quiz result model.
func (r RecordQuizRequest) ToModel() *models.QuizResult {
	return &models.QuizResult{
		ChildID:        r.ChildID,
		Subject:        r.Subject,
		TotalQuestions: r.TotalQuestions,
		CorrectAnswers: r.CorrectAnswers,
	}
}

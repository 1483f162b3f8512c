package repository

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lumalearn/analytics-api/internal/models"
)

// QuizResultRepository persists quiz attempt outcomes.
type QuizResultRepository struct {
	db *sqlx.DB
}

// NewQuizResultRepository constructs the repository.
func NewQuizResultRepository(db *sqlx.DB) *QuizResultRepository {
	return &QuizResultRepository{db: db}
}

// Insert stores a quiz result, deriving the score percentage from the raw
// correct/total counts when it is not already set.
func (r *QuizResultRepository) Insert(ctx context.Context, result *models.QuizResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	if result.ScorePercentage == 0 && result.TotalQuestions > 0 {
		result.ScorePercentage = math.Round(float64(result.CorrectAnswers) / float64(result.TotalQuestions) * 100)
	}
	const query = `INSERT INTO quiz_results (id, child_id, subject, total_questions, correct_answers, score_percentage, created_at)
VALUES (:id, :child_id, :subject, :total_questions, :correct_answers, :score_percentage, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("insert quiz result: %w", err)
	}
	return nil
}

// ListByChild returns quiz results for a child ordered by creation time
// ascending, optionally bounded to a time range.
func (r *QuizResultRepository) ListByChild(ctx context.Context, filter models.QuizFilter) ([]models.QuizResult, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT id, child_id, subject, total_questions, correct_answers, score_percentage, created_at
FROM quiz_results WHERE child_id = $1`)
	args := []interface{}{filter.ChildID}
	if filter.From != nil {
		args = append(args, *filter.From)
		builder.WriteString(fmt.Sprintf(" AND created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		builder.WriteString(fmt.Sprintf(" AND created_at <= $%d", len(args)))
	}
	builder.WriteString(" ORDER BY created_at ASC")

	var results []models.QuizResult
	if err := r.db.SelectContext(ctx, &results, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	return results, nil
}

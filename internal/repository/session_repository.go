package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lumalearn/analytics-api/internal/models"
)

// SessionRepository persists learning session records.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert stores a new learning session with generated defaults.
func (r *SessionRepository) Insert(ctx context.Context, session *models.LearningSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO learning_sessions (id, child_id, subject, topic, session_type, duration_minutes, completion_percentage, points_earned, created_at)
VALUES (:id, :child_id, :subject, :topic, :session_type, :duration_minutes, :completion_percentage, :points_earned, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("insert learning session: %w", err)
	}
	return nil
}

// ListByChild returns sessions for a child ordered by creation time ascending,
// optionally bounded to a time range.
func (r *SessionRepository) ListByChild(ctx context.Context, filter models.SessionFilter) ([]models.LearningSession, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT id, child_id, subject, topic, session_type, duration_minutes, completion_percentage, points_earned, created_at
FROM learning_sessions WHERE child_id = $1`)
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

	var sessions []models.LearningSession
	if err := r.db.SelectContext(ctx, &sessions, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list learning sessions: %w", err)
	}
	return sessions, nil
}

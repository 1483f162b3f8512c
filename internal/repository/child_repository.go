package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lumalearn/analytics-api/internal/models"
	appErrors "github.com/lumalearn/analytics-api/pkg/errors"
)

// ChildRepository reads learner profiles. Profile writes happen in the
// platform account service, never here.
type ChildRepository struct {
	db *sqlx.DB
}

// NewChildRepository constructs the repository.
func NewChildRepository(db *sqlx.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// GetByID returns the child profile.
func (r *ChildRepository) GetByID(ctx context.Context, id string) (*models.Child, error) {
	const query = `SELECT id, parent_id, name, age, grade_level, interests, created_at FROM children WHERE id = $1`
	var child models.Child
	if err := r.db.GetContext(ctx, &child, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrChildNotFound
		}
		return nil, fmt.Errorf("get child: %w", err)
	}
	return &child, nil
}

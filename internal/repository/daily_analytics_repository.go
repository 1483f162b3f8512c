package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lumalearn/analytics-api/internal/models"
)

// DailyAnalyticsRepository persists per-child per-day rolling aggregates.
type DailyAnalyticsRepository struct {
	db *sqlx.DB
}

// NewDailyAnalyticsRepository constructs the repository.
func NewDailyAnalyticsRepository(db *sqlx.DB) *DailyAnalyticsRepository {
	return &DailyAnalyticsRepository{db: db}
}

const dailyAnalyticsColumns = `id, child_id, date, total_session_time_minutes, sessions_completed, average_score_percentage, subjects_studied, engagement_score, performance_trends, weekly_progress, updated_at`

// GetByChildAndDate returns the aggregate row for one child and calendar day,
// or nil when no row exists yet.
func (r *DailyAnalyticsRepository) GetByChildAndDate(ctx context.Context, childID string, date time.Time) (*models.DailyAnalytics, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_analytics WHERE child_id = $1 AND date = $2`, dailyAnalyticsColumns)
	var row models.DailyAnalytics
	if err := r.db.GetContext(ctx, &row, query, childID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get daily analytics: %w", err)
	}
	return &row, nil
}

// ListRange returns aggregate rows ordered by date ascending, optionally
// bounded to a date range.
func (r *DailyAnalyticsRepository) ListRange(ctx context.Context, filter models.DailyAnalyticsFilter) ([]models.DailyAnalytics, error) {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM daily_analytics WHERE child_id = $1`, dailyAnalyticsColumns))
	args := []interface{}{filter.ChildID}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		builder.WriteString(fmt.Sprintf(" AND date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		builder.WriteString(fmt.Sprintf(" AND date <= $%d", len(args)))
	}
	builder.WriteString(" ORDER BY date ASC")

	var rows []models.DailyAnalytics
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list daily analytics: %w", err)
	}
	return rows, nil
}

// Upsert writes the aggregate row, replacing all running fields on conflict.
// The write is a single statement so the collaborator boundary stays atomic;
// serialising concurrent read-modify-write cycles is the caller's concern.
func (r *DailyAnalyticsRepository) Upsert(ctx context.Context, row *models.DailyAnalytics) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	row.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO daily_analytics (id, child_id, date, total_session_time_minutes, sessions_completed, average_score_percentage, subjects_studied, engagement_score, performance_trends, weekly_progress, updated_at)
VALUES (:id, :child_id, :date, :total_session_time_minutes, :sessions_completed, :average_score_percentage, :subjects_studied, :engagement_score, :performance_trends, :weekly_progress, :updated_at)
ON CONFLICT (child_id, date) DO UPDATE SET
	total_session_time_minutes = EXCLUDED.total_session_time_minutes,
	sessions_completed = EXCLUDED.sessions_completed,
	average_score_percentage = EXCLUDED.average_score_percentage,
	subjects_studied = EXCLUDED.subjects_studied,
	engagement_score = EXCLUDED.engagement_score,
	performance_trends = EXCLUDED.performance_trends,
	weekly_progress = EXCLUDED.weekly_progress,
	updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upsert daily analytics: %w", err)
	}
	return nil
}

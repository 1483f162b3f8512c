package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/lumalearn/analytics-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestDailyAnalyticsRepositoryGetReturnsNilWhenAbsent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDailyAnalyticsRepository(db)
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, child_id, date")).
		WithArgs("child-1", day).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	row, err := repo.GetByChildAndDate(context.Background(), "child-1", day)
	require.NoError(t, err)
	require.Nil(t, row)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyAnalyticsRepositoryGetByChildAndDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDailyAnalyticsRepository(db)
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "child_id", "date", "total_session_time_minutes", "sessions_completed",
		"average_score_percentage", "subjects_studied", "engagement_score",
		"performance_trends", "weekly_progress", "updated_at",
	}).AddRow(
		"da-1", "child-1", day, 45, 3, 81.5,
		`["math","reading"]`, 72.0,
		`{"2026-08-29":{"completion":80,"time":45,"points":30}}`,
		`{"total_time_minutes":45,"sessions_completed":3,"average_score":81.5,"subjects":["math","reading"]}`,
		time.Now(),
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, child_id, date")).
		WithArgs("child-1", day).
		WillReturnRows(rows)

	row, err := repo.GetByChildAndDate(context.Background(), "child-1", day)
	require.NoError(t, err)
	require.Equal(t, 3, row.SessionsCompleted)
	require.Equal(t, models.StringList{"math", "reading"}, row.SubjectsStudied)
	require.Contains(t, row.PerformanceTrends, "2026-08-29")
	require.Equal(t, 45, row.WeeklyProgress.TotalTimeMinutes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyAnalyticsRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDailyAnalyticsRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO daily_analytics")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	row := &models.DailyAnalytics{
		ChildID:                 "child-1",
		Date:                    time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
		TotalSessionTimeMinutes: 30,
		SessionsCompleted:       1,
		AverageScorePercentage:  90,
		SubjectsStudied:         models.StringList{"math"},
		EngagementScore:         66,
		PerformanceTrends:       models.TrendMap{"2026-08-29": {Completion: 90, TimeMinutes: 30, Points: 20}},
	}
	require.NoError(t, repo.Upsert(context.Background(), row))
	require.NotEmpty(t, row.ID)
	require.False(t, row.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyAnalyticsRepositoryListRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDailyAnalyticsRepository(db)
	from := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "child_id", "date", "total_session_time_minutes", "sessions_completed",
		"average_score_percentage", "subjects_studied", "engagement_score",
		"performance_trends", "weekly_progress", "updated_at",
	}).
		AddRow("da-1", "child-1", from, 20, 1, 70.0, `["math"]`, 60.0, `{}`, `{}`, time.Now()).
		AddRow("da-2", "child-1", to, 40, 2, 85.0, `["reading"]`, 75.0, `{}`, `{}`, time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, child_id, date")).
		WithArgs("child-1", from, to).
		WillReturnRows(rows)

	result, err := repo.ListRange(context.Background(), models.DailyAnalyticsFilter{
		ChildID:  "child-1",
		DateFrom: &from,
		DateTo:   &to,
	})
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, "da-1", result[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

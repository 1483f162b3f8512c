package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Timeframe selects the reporting window for report generation.
type Timeframe string

const (
	TimeframeWeek    Timeframe = "week"
	TimeframeMonth   Timeframe = "month"
	TimeframeQuarter Timeframe = "quarter"
)

// WindowDays maps a timeframe to its look-back window. Anything other than
// week or month falls back to the quarter window.
func (t Timeframe) WindowDays() int {
	switch t {
	case TimeframeWeek:
		return 7
	case TimeframeMonth:
		return 30
	default:
		return 90
	}
}

// StringList is a JSONB-persisted list of strings.
type StringList []string

// Value marshals the list for persistence.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the list.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	data, err := jsonbBytes(value)
	if err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	if err := json.Unmarshal(data, l); err != nil {
		return fmt.Errorf("unmarshal string list: %w", err)
	}
	return nil
}

// Contains reports whether the list holds the given value.
func (l StringList) Contains(v string) bool {
	for _, item := range l {
		if item == v {
			return true
		}
	}
	return false
}

// DailyTrendPoint is one day's entry in the rolling performance trend buffer.
type DailyTrendPoint struct {
	Completion  float64 `json:"completion"`
	TimeMinutes int     `json:"time"`
	Points      int     `json:"points"`
}

// TrendMap maps ISO dates (2006-01-02) to trend points, persisted as JSONB.
type TrendMap map[string]DailyTrendPoint

// Value marshals the trend map for persistence.
func (m TrendMap) Value() (driver.Value, error) {
	if m == nil {
		m = TrendMap{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal trend map: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the trend map.
func (m *TrendMap) Scan(value interface{}) error {
	if value == nil {
		*m = TrendMap{}
		return nil
	}
	data, err := jsonbBytes(value)
	if err != nil {
		return fmt.Errorf("trend map: %w", err)
	}
	if len(data) == 0 {
		*m = TrendMap{}
		return nil
	}
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("unmarshal trend map: %w", err)
	}
	return nil
}

// WeeklyProgress summarises the trailing seven daily rows, recomputed on each
// aggregation and persisted alongside the daily row as JSONB.
type WeeklyProgress struct {
	TotalTimeMinutes  int        `json:"total_time_minutes"`
	SessionsCompleted int        `json:"sessions_completed"`
	AverageScore      float64    `json:"average_score"`
	Subjects          StringList `json:"subjects"`
}

// Value marshals weekly progress for persistence.
func (w WeeklyProgress) Value() (driver.Value, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshal weekly progress: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the struct.
func (w *WeeklyProgress) Scan(value interface{}) error {
	if value == nil {
		*w = WeeklyProgress{}
		return nil
	}
	data, err := jsonbBytes(value)
	if err != nil {
		return fmt.Errorf("weekly progress: %w", err)
	}
	if len(data) == 0 {
		*w = WeeklyProgress{}
		return nil
	}
	if err := json.Unmarshal(data, w); err != nil {
		return fmt.Errorf("unmarshal weekly progress: %w", err)
	}
	return nil
}

// DailyAnalytics is the per-child per-calendar-day rolling aggregate, upserted
// as sessions are processed. Averages are online means: each new session is
// folded in weighted by the prior session count rather than replaying history,
// so re-processing the same session twice biases the value.
type DailyAnalytics struct {
	ID                      string         `db:"id" json:"id"`
	ChildID                 string         `db:"child_id" json:"child_id"`
	Date                    time.Time      `db:"date" json:"date"`
	TotalSessionTimeMinutes int            `db:"total_session_time_minutes" json:"total_session_time_minutes"`
	SessionsCompleted       int            `db:"sessions_completed" json:"sessions_completed"`
	AverageScorePercentage  float64        `db:"average_score_percentage" json:"average_score_percentage"`
	SubjectsStudied         StringList     `db:"subjects_studied" json:"subjects_studied"`
	EngagementScore         float64        `db:"engagement_score" json:"engagement_score"`
	PerformanceTrends       TrendMap       `db:"performance_trends" json:"performance_trends"`
	WeeklyProgress          WeeklyProgress `db:"weekly_progress" json:"weekly_progress"`
	UpdatedAt               time.Time      `db:"updated_at" json:"updated_at"`
}

// DailyAnalyticsFilter scopes daily aggregate queries.
type DailyAnalyticsFilter struct {
	ChildID  string
	DateFrom *time.Time
	DateTo   *time.Time
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	SessionsProcessed        uint64    `json:"sessions_processed"`
	ReportsGenerated         uint64    `json:"reports_generated"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

func jsonbBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb type %T", value)
	}
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumalearn/analytics-api/internal/models"
	"github.com/lumalearn/analytics-api/pkg/events"
)

func newAggregator(sessions *fakeSessionRepo, daily *fakeDailyRepo, bus *events.Bus) *AggregatorService {
	svc := NewAggregatorService(sessions, &fakeQuizRepo{}, daily, bus, nil, 30, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestProcessSessionCreatesFirstDailyRow(t *testing.T) {
	sessions := &fakeSessionRepo{}
	daily := &fakeDailyRepo{}
	svc := newAggregator(sessions, daily, nil)

	session := sessionAt(day(0), "math", 80, 30, 50)
	row, err := svc.ProcessSession(context.Background(), &session)
	require.NoError(t, err)
	require.Len(t, daily.upserted, 1)

	assert.Equal(t, 30, row.TotalSessionTimeMinutes)
	assert.Equal(t, 1, row.SessionsCompleted)
	assert.InDelta(t, 80, row.AverageScorePercentage, 0.0001)
	// 0.4*80 + 0.3*100 + 0.3*50
	assert.InDelta(t, 77, row.EngagementScore, 0.0001)
	assert.Equal(t, models.StringList{"math"}, row.SubjectsStudied)
	assert.Contains(t, row.PerformanceTrends, "2026-08-29")
}

func TestProcessSessionFoldsOnlineMean(t *testing.T) {
	existing := &models.DailyAnalytics{
		ChildID:                 "child-1",
		Date:                    day(0),
		TotalSessionTimeMinutes: 20,
		SessionsCompleted:       2,
		AverageScorePercentage:  60,
		EngagementScore:         50,
		SubjectsStudied:         models.StringList{"math"},
		PerformanceTrends:       models.TrendMap{},
	}
	daily := &fakeDailyRepo{byDate: map[string]*models.DailyAnalytics{"2026-08-29": existing}}
	svc := newAggregator(&fakeSessionRepo{}, daily, nil)

	session := sessionAt(day(0), "reading", 90, 10, 0)
	row, err := svc.ProcessSession(context.Background(), &session)
	require.NoError(t, err)

	assert.Equal(t, 30, row.TotalSessionTimeMinutes)
	assert.Equal(t, 3, row.SessionsCompleted)
	// (60*2 + 90) / 3
	assert.InDelta(t, 70, row.AverageScorePercentage, 0.0001)
	assert.ElementsMatch(t, []string{"math", "reading"}, row.SubjectsStudied)
}

func TestEngagementScoreStaysBounded(t *testing.T) {
	extreme := sessionAt(day(0), "math", 100, 100000, 100000)
	assert.LessOrEqual(t, engagementScore(extreme), 100.0)
	assert.GreaterOrEqual(t, engagementScore(extreme), 0.0)

	zero := sessionAt(day(0), "math", 0, 0, 0)
	assert.Zero(t, engagementScore(zero))
}

func TestAverageScoreStaysBoundedOverManyFolds(t *testing.T) {
	daily := &fakeDailyRepo{byDate: map[string]*models.DailyAnalytics{}}
	svc := newAggregator(&fakeSessionRepo{}, daily, nil)

	completions := []float64{0, 100, 37.5, 99.9, 12, 88}
	for _, completion := range completions {
		session := sessionAt(day(0), "math", completion, 15, 10)
		row, err := svc.ProcessSession(context.Background(), &session)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, row.AverageScorePercentage, 0.0)
		assert.LessOrEqual(t, row.AverageScorePercentage, 100.0)
	}
}

func TestProcessSessionPrunesOldTrendEntries(t *testing.T) {
	stale := day(-40).Format("2006-01-02")
	existing := &models.DailyAnalytics{
		ChildID:           "child-1",
		Date:              day(0),
		SessionsCompleted: 1,
		PerformanceTrends: models.TrendMap{stale: {Completion: 50, TimeMinutes: 10, Points: 5}},
	}
	daily := &fakeDailyRepo{byDate: map[string]*models.DailyAnalytics{"2026-08-29": existing}}
	svc := newAggregator(&fakeSessionRepo{}, daily, nil)

	session := sessionAt(day(0), "math", 80, 20, 10)
	row, err := svc.ProcessSession(context.Background(), &session)
	require.NoError(t, err)
	assert.NotContains(t, row.PerformanceTrends, stale)
	assert.Contains(t, row.PerformanceTrends, "2026-08-29")
}

func TestProcessSessionRecomputesWeeklyProgress(t *testing.T) {
	daily := &fakeDailyRepo{
		rows: []models.DailyAnalytics{
			{ChildID: "child-1", Date: day(-2), TotalSessionTimeMinutes: 40, SessionsCompleted: 2, AverageScorePercentage: 70, SubjectsStudied: models.StringList{"science"}},
		},
	}
	svc := newAggregator(&fakeSessionRepo{}, daily, nil)

	session := sessionAt(day(0), "math", 90, 20, 10)
	row, err := svc.ProcessSession(context.Background(), &session)
	require.NoError(t, err)

	assert.Equal(t, 60, row.WeeklyProgress.TotalTimeMinutes)
	assert.Equal(t, 3, row.WeeklyProgress.SessionsCompleted)
	assert.ElementsMatch(t, []string{"science", "math"}, row.WeeklyProgress.Subjects)
}

func TestProcessSessionPublishesEvent(t *testing.T) {
	bus := events.NewBus(zap.NewNop())
	var mu sync.Mutex
	var received []events.Event
	bus.Subscribe(events.EventSessionProcessed, func(e events.Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	})

	svc := newAggregator(&fakeSessionRepo{}, &fakeDailyRepo{}, bus)
	session := sessionAt(day(0), "math", 80, 30, 50)
	_, err := svc.ProcessSession(context.Background(), &session)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	payload, ok := received[0].Payload.(events.SessionProcessedPayload)
	require.True(t, ok)
	assert.Equal(t, "child-1", payload.ChildID)
}

func TestProcessSessionPropagatesUpsertError(t *testing.T) {
	daily := &fakeDailyRepo{upsertErr: assert.AnError}
	svc := newAggregator(&fakeSessionRepo{}, daily, nil)

	session := sessionAt(day(0), "math", 80, 30, 50)
	_, err := svc.ProcessSession(context.Background(), &session)
	require.Error(t, err)
}

func TestConcurrentFoldsDoNotLoseSessions(t *testing.T) {
	daily := &fakeDailyRepo{byDate: map[string]*models.DailyAnalytics{}}
	svc := newAggregator(&fakeSessionRepo{}, daily, nil)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := sessionAt(day(0), "math", 50, 10, 5)
			_, err := svc.ProcessSession(context.Background(), &session)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final := daily.stored("2026-08-29")
	require.NotNil(t, final)
	assert.Equal(t, n, final.SessionsCompleted)
	assert.Equal(t, n*10, final.TotalSessionTimeMinutes)
}

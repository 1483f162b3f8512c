package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lumalearn/analytics-api/internal/models"
)

// InsightsService derives behavioural insights over fixed look-back windows:
// 7 days for weekly analytics, 30 days for trends and engagement.
type InsightsService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	daily    DailyAnalyticsRepository
	metrics  *MetricsService
	now      func() time.Time
}

// NewInsightsService constructs the generator.
func NewInsightsService(sessions SessionRepository, quizzes QuizRepository, daily DailyAnalyticsRepository, metrics *MetricsService) *InsightsService {
	return &InsightsService{
		sessions: sessions,
		quizzes:  quizzes,
		daily:    daily,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Generate builds the insights report for the child.
func (s *InsightsService) Generate(ctx context.Context, childID string) (*models.InsightsReport, error) {
	started := time.Now()
	now := s.now()
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)

	weekRows, err := s.daily.ListRange(ctx, models.DailyAnalyticsFilter{ChildID: childID, DateFrom: &weekAgo, DateTo: &now})
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}
	monthRows, err := s.daily.ListRange(ctx, models.DailyAnalyticsFilter{ChildID: childID, DateFrom: &monthAgo, DateTo: &now})
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}
	sessions, err := s.sessions.ListByChild(ctx, models.SessionFilter{ChildID: childID, From: &monthAgo, To: &now})
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}
	quizzes, err := s.quizzes.ListByChild(ctx, models.QuizFilter{ChildID: childID, From: &monthAgo, To: &now})
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}

	report := &models.InsightsReport{
		ChildID:     childID,
		GeneratedAt: now,
		Weekly:      buildWeeklyAnalytics(weekRows),
		Trends:      buildPerformanceTrends(monthRows),
		Engagement:  buildEngagementAnalysis(sessions),
		Subjects:    buildSubjectOverview(sessions, quizzes),
	}
	report.Summary = buildInsightsSummary(report)
	report.Recommendations = buildInsightRecommendations(report)

	if s.metrics != nil {
		s.metrics.ObserveReportGeneration("insights", time.Since(started))
	}
	return report, nil
}

func buildWeeklyAnalytics(rows []models.DailyAnalytics) models.WeeklyAnalytics {
	if len(rows) == 0 {
		return models.WeeklyAnalytics{Status: models.StatusInsufficientData}
	}

	sorted := make([]models.DailyAnalytics, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	weekly := models.WeeklyAnalytics{Status: models.StatusOK}
	var scores, times []float64
	var peakDay string
	var peakScore float64
	for _, row := range sorted {
		weekly.TotalTimeMinutes += row.TotalSessionTimeMinutes
		weekly.SessionsCompleted += row.SessionsCompleted
		times = append(times, float64(row.TotalSessionTimeMinutes))
		if row.SessionsCompleted > 0 {
			scores = append(scores, row.AverageScorePercentage)
			if row.AverageScorePercentage > peakScore {
				peakScore = row.AverageScorePercentage
				peakDay = row.Date.Format("2006-01-02")
			}
		}
	}
	weekly.AverageScore = round1(mean(scores))
	weekly.DailyAverageMinutes = round1(mean(times))
	weekly.PeakDay = peakDay
	weekly.ConsistencyRating = round1(clamp(100-2*stddev(scores), 0, 100))
	weekly.Pattern = classifyLearningPattern(sorted, scores, times)
	return weekly
}

// classifyLearningPattern compares time spent in the first and second half of
// the week, the spread of daily time, and early vs late scores.
func classifyLearningPattern(sorted []models.DailyAnalytics, scores, times []float64) models.LearningPattern {
	half := len(sorted) / 2
	var firstHalf, secondHalf int
	for i, row := range sorted {
		if i < half {
			firstHalf += row.TotalSessionTimeMinutes
		} else {
			secondHalf += row.TotalSessionTimeMinutes
		}
	}
	preferred := "early_week"
	if secondHalf > firstHalf {
		preferred = "late_week"
	}

	consistency := "variable"
	if len(times) > 0 {
		minTime, maxTime := times[0], times[0]
		for _, t := range times {
			if t < minTime {
				minTime = t
			}
			if t > maxTime {
				maxTime = t
			}
		}
		if maxTime-minTime < 30 {
			consistency = "steady"
		}
	}

	trend := models.TrendStable
	if len(scores) >= 4 {
		take := 3
		if take > len(scores)/2 {
			take = len(scores) / 2
		}
		early := mean(scores[:take])
		late := mean(scores[len(scores)-take:])
		if late > early {
			trend = models.TrendImproving
		} else if late < early {
			trend = models.TrendDeclining
		}
	}

	return models.LearningPattern{PreferredTime: preferred, Consistency: consistency, Trend: trend}
}

func buildPerformanceTrends(rows []models.DailyAnalytics) models.PerformanceTrendReport {
	active := make([]models.DailyAnalytics, 0, len(rows))
	for _, row := range rows {
		if row.SessionsCompleted > 0 {
			active = append(active, row)
		}
	}
	if len(active) < 7 {
		return models.PerformanceTrendReport{Status: models.StatusInsufficientData}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Date.Before(active[j].Date) })

	// Weekly chunks anchored at the first record's date.
	firstDate := active[0].Date
	buckets := make(map[int][]models.DailyAnalytics)
	for _, row := range active {
		index := int(row.Date.Sub(firstDate).Hours() / 24 / 7)
		buckets[index] = append(buckets[index], row)
	}

	indices := make([]int, 0, len(buckets))
	for index := range buckets {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	weeks := make([]models.WeeklyBucket, 0, len(indices))
	for _, index := range indices {
		group := buckets[index]
		var scores, engagements []float64
		bucket := models.WeeklyBucket{Index: index, StartDate: firstDate.AddDate(0, 0, index*7)}
		for _, row := range group {
			bucket.TotalTimeMinutes += row.TotalSessionTimeMinutes
			bucket.Sessions += row.SessionsCompleted
			scores = append(scores, row.AverageScorePercentage)
			engagements = append(engagements, row.EngagementScore)
		}
		bucket.AverageScore = round1(mean(scores))
		bucket.AverageEngagement = round1(mean(engagements))
		weeks = append(weeks, bucket)
	}

	weekScores := make([]float64, 0, len(weeks))
	for _, week := range weeks {
		weekScores = append(weekScores, week.AverageScore)
	}
	half := len(weekScores) / 2
	var direction string
	if half == 0 {
		direction = models.TrendStable
	} else {
		firstAvg := mean(weekScores[:half])
		secondAvg := mean(weekScores[half:])
		change := percentChange(firstAvg, secondAvg)
		switch {
		case change > 5:
			direction = models.TrendImproving
		case change < -5:
			direction = models.TrendDeclining
		default:
			direction = models.TrendStable
		}
	}

	var deltaSum float64
	for i := 1; i < len(weekScores); i++ {
		deltaSum += math.Abs(weekScores[i] - weekScores[i-1])
	}
	var strength float64
	if len(weekScores) > 1 {
		strength = deltaSum / float64(len(weekScores)-1)
	}

	dailyScores := make([]float64, 0, len(active))
	for _, row := range active {
		dailyScores = append(dailyScores, row.AverageScorePercentage)
	}
	volatility := stddev(dailyScores)
	stability := "volatile"
	if volatility < 15 {
		stability = "stable"
	} else if volatility < 30 {
		stability = "moderate"
	}

	return models.PerformanceTrendReport{
		Status:          models.StatusOK,
		Weeks:           weeks,
		TrendDirection:  direction,
		TrendStrength:   round1(strength),
		VolatilityScore: round1(volatility),
		Stability:       stability,
		Prediction:      predictNextWeek(weekScores, stability),
	}
}

// predictNextWeek projects next week's score as the last week plus the mean
// of the last three week-over-week deltas, clipped to [0,100].
func predictNextWeek(weekScores []float64, stability string) *models.ScorePrediction {
	if len(weekScores) < 2 {
		return nil
	}
	deltas := make([]float64, 0, len(weekScores)-1)
	for i := 1; i < len(weekScores); i++ {
		deltas = append(deltas, weekScores[i]-weekScores[i-1])
	}
	if len(deltas) > 3 {
		deltas = deltas[len(deltas)-3:]
	}

	predicted := clamp(weekScores[len(weekScores)-1]+mean(deltas), 0, 100)

	confidence := "low"
	switch stability {
	case "stable":
		confidence = "high"
	case "moderate":
		confidence = "medium"
	}
	return &models.ScorePrediction{NextWeekScore: round1(predicted), Confidence: confidence}
}

// sessionEngagement is the raw per-session engagement used by the analysis
// section: completion plus a points bonus.
func sessionEngagement(session models.LearningSession) float64 {
	return session.CompletionPercentage + float64(session.PointsEarned)/10
}

func buildEngagementAnalysis(sessions []models.LearningSession) models.EngagementAnalysis {
	if len(sessions) == 0 {
		return models.EngagementAnalysis{Status: models.StatusNoSessions}
	}

	byTime := map[string][]float64{}
	bySubject := map[string][]float64{}
	durations := make([]float64, 0, len(sessions))
	minDuration, maxDuration := sessions[0].DurationMinutes, sessions[0].DurationMinutes

	ordered := make([]models.LearningSession, len(sessions))
	copy(ordered, sessions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].CreatedAt.Before(ordered[j].CreatedAt) })

	engagements := make([]float64, 0, len(ordered))
	for _, session := range ordered {
		engagement := sessionEngagement(session)
		engagements = append(engagements, engagement)

		slot := "evening"
		hour := session.CreatedAt.Hour()
		if hour < 12 {
			slot = "morning"
		} else if hour < 17 {
			slot = "afternoon"
		}
		byTime[slot] = append(byTime[slot], engagement)
		bySubject[session.Subject] = append(bySubject[session.Subject], engagement)

		durations = append(durations, float64(session.DurationMinutes))
		if session.DurationMinutes < minDuration {
			minDuration = session.DurationMinutes
		}
		if session.DurationMinutes > maxDuration {
			maxDuration = session.DurationMinutes
		}
	}

	byTimeOfDay := make(map[string]models.TimeOfDayEngagement, len(byTime))
	for slot, values := range byTime {
		byTimeOfDay[slot] = models.TimeOfDayEngagement{
			Sessions:          len(values),
			AverageEngagement: round1(mean(values)),
		}
	}
	subjectAverages := make(map[string]float64, len(bySubject))
	for subject, values := range bySubject {
		subjectAverages[subject] = round1(mean(values))
	}

	med := median(durations)
	avg := mean(durations)

	half := len(engagements) / 2
	trend := models.TrendStable
	if half > 0 {
		change := percentChange(mean(engagements[:half]), mean(engagements[half:]))
		if change > 10 {
			trend = models.TrendImproving
		} else if change < -10 {
			trend = models.TrendDeclining
		}
	}

	return models.EngagementAnalysis{
		Status:      models.StatusOK,
		ByTimeOfDay: byTimeOfDay,
		BySubject:   subjectAverages,
		SessionLength: models.SessionLengthStats{
			MedianMinutes:  round1(med),
			MeanMinutes:    round1(avg),
			MinMinutes:     minDuration,
			MaxMinutes:     maxDuration,
			OptimalMinutes: round1((med + avg) / 2),
		},
		Trend: trend,
	}
}

func buildSubjectOverview(sessions []models.LearningSession, quizzes []models.QuizResult) models.SubjectOverview {
	if len(sessions) == 0 {
		return models.SubjectOverview{Status: models.StatusNoSessions}
	}

	bySubject := make(map[string][]models.LearningSession)
	for _, session := range sessions {
		bySubject[session.Subject] = append(bySubject[session.Subject], session)
	}
	quizBySubject := make(map[string][]float64)
	for _, quiz := range quizzes {
		quizBySubject[quiz.Subject] = append(quizBySubject[quiz.Subject], quiz.ScorePercentage)
	}

	overview := models.SubjectOverview{
		Status:   models.StatusOK,
		Subjects: make(map[string]models.SubjectInsight, len(bySubject)),
	}

	var strongest, weakest string
	var bestScore, worstScore float64
	var minTime, maxTime int
	first := true

	for subject, group := range bySubject {
		ordered := make([]models.LearningSession, len(group))
		copy(ordered, group)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].CreatedAt.Before(ordered[j].CreatedAt) })

		var totalMinutes int
		completions := make([]float64, 0, len(ordered))
		for _, session := range ordered {
			totalMinutes += session.DurationMinutes
			completions = append(completions, session.CompletionPercentage)
		}
		avgCompletion := mean(completions)
		avgQuiz := mean(quizBySubject[subject])
		composite := (avgCompletion + avgQuiz) / 2

		// Progress rate: recent 3 sessions vs everything earlier.
		var progressRate float64
		if len(completions) >= 4 {
			recent := completions[len(completions)-3:]
			earlier := completions[:len(completions)-3]
			progressRate = percentChange(mean(earlier), mean(recent))
		}

		overview.Subjects[subject] = models.SubjectInsight{
			AverageCompletion: round1(avgCompletion),
			AverageQuizScore:  round1(avgQuiz),
			Proficiency:       proficiencyLevel(composite),
			ProgressRate:      round1(progressRate),
			TotalTimeMinutes:  totalMinutes,
		}

		if first || composite > bestScore {
			bestScore = composite
			strongest = subject
		}
		if first || composite < worstScore {
			worstScore = composite
			weakest = subject
		}
		if first || totalMinutes < minTime {
			minTime = totalMinutes
		}
		if first || totalMinutes > maxTime {
			maxTime = totalMinutes
		}
		first = false
	}

	overview.Strongest = strongest
	overview.Weakest = weakest
	if maxTime > 0 {
		ratio := float64(minTime) / float64(maxTime)
		switch {
		case ratio >= 0.6:
			overview.Balance = "well_balanced"
		case ratio >= 0.4:
			overview.Balance = "slight_rebalancing"
		default:
			overview.Balance = "focus_needed"
		}
	}
	return overview
}

func proficiencyLevel(score float64) string {
	switch {
	case score >= 90:
		return "expert"
	case score >= 80:
		return "proficient"
	case score >= 70:
		return "developing"
	case score >= 60:
		return "beginner"
	default:
		return "needs_support"
	}
}

func buildInsightsSummary(report *models.InsightsReport) []models.Insight {
	insights := make([]models.Insight, 0, 4)

	if report.Weekly.Status == models.StatusOK {
		if report.Weekly.AverageScore >= 80 {
			insights = append(insights, models.Insight{
				Kind:    "positive",
				Message: fmt.Sprintf("Great week: scores averaged %.1f%%.", report.Weekly.AverageScore),
			})
		}
		if report.Weekly.TotalTimeMinutes < 60 {
			insights = append(insights, models.Insight{
				Kind:    "attention",
				Message: "Less than an hour of learning this week.",
			})
		}
	}
	if report.Trends.Status == models.StatusOK {
		switch report.Trends.TrendDirection {
		case models.TrendImproving:
			insights = append(insights, models.Insight{
				Kind:    "positive",
				Message: "Scores are trending upward over the last month.",
			})
		case models.TrendDeclining:
			insights = append(insights, models.Insight{
				Kind:    "concern",
				Message: "Scores have been slipping over the last month.",
			})
		}
	}
	if report.Subjects.Status == models.StatusOK && report.Subjects.Strongest != "" {
		insights = append(insights, models.Insight{
			Kind:    "positive",
			Message: fmt.Sprintf("Strongest subject right now: %s.", report.Subjects.Strongest),
		})
	}
	return insights
}

func buildInsightRecommendations(report *models.InsightsReport) []string {
	recs := make([]string, 0, 3)
	if report.Weekly.Status == models.StatusOK && report.Weekly.TotalTimeMinutes < 60 {
		recs = append(recs, "Increase learning time to at least one hour per week.")
	}
	if report.Trends.Status == models.StatusOK && report.Trends.TrendDirection == models.TrendDeclining {
		recs = append(recs, "Revisit recent topics where scores dropped before starting new material.")
	}
	if report.Subjects.Status == models.StatusOK && report.Subjects.Balance == "focus_needed" && report.Subjects.Weakest != "" {
		recs = append(recs, fmt.Sprintf("Spend more time on %s to balance out the week.", report.Subjects.Weakest))
	}
	if report.Engagement.Status == models.StatusOK && report.Engagement.Trend == models.TrendDeclining {
		recs = append(recs, "Try shorter, more playful sessions to bring engagement back up.")
	}
	return recs
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumalearn/analytics-api/internal/models"
)

// QuizRepository reads quiz attempt outcomes.
type QuizRepository interface {
	ListByChild(ctx context.Context, filter models.QuizFilter) ([]models.QuizResult, error)
}

// ChildRepository resolves child profiles.
type ChildRepository interface {
	GetByID(ctx context.Context, id string) (*models.Child, error)
}

// RecommendationGenerator produces free-form text from a prompt. Failures are
// never fatal to report generation.
type RecommendationGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// JSONExtractor pulls a JSON payload out of generated text. The bool result
// tags whether a valid payload was found; malformed output is not an error.
type JSONExtractor func(raw string) (string, bool)

// LearningReportService derives the full learning report for a child.
type LearningReportService struct {
	children    ChildRepository
	sessions    SessionRepository
	quizzes     QuizRepository
	daily       DailyAnalyticsRepository
	generator   RecommendationGenerator
	extractJSON JSONExtractor
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// NewLearningReportService constructs the generator. The recommendation
// generator may be nil, in which case rule-based recommendations are used.
func NewLearningReportService(children ChildRepository, sessions SessionRepository, quizzes QuizRepository, daily DailyAnalyticsRepository, generator RecommendationGenerator, extractJSON JSONExtractor, metrics *MetricsService, logger *zap.Logger) *LearningReportService {
	return &LearningReportService{
		children:    children,
		sessions:    sessions,
		quizzes:     quizzes,
		daily:       daily,
		generator:   generator,
		extractJSON: extractJSON,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Generate builds the learning report for the child over the timeframe.
// Persistence failures abort the report; recommendation failures fall back
// to deterministic rules.
func (s *LearningReportService) Generate(ctx context.Context, childID string, timeframe models.Timeframe) (*models.LearningReport, error) {
	started := time.Now()
	now := s.now()
	from := now.AddDate(0, 0, -timeframe.WindowDays())

	child, err := s.children.GetByID(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("learning report: %w", err)
	}
	sessions, err := s.sessions.ListByChild(ctx, models.SessionFilter{ChildID: childID, From: &from, To: &now})
	if err != nil {
		return nil, fmt.Errorf("learning report: %w", err)
	}
	quizzes, err := s.quizzes.ListByChild(ctx, models.QuizFilter{ChildID: childID, From: &from, To: &now})
	if err != nil {
		return nil, fmt.Errorf("learning report: %w", err)
	}
	dailyRows, err := s.daily.ListRange(ctx, models.DailyAnalyticsFilter{ChildID: childID, DateFrom: &from, DateTo: &now})
	if err != nil {
		return nil, fmt.Errorf("learning report: %w", err)
	}

	performance := buildPerformanceAnalysis(sessions, quizzes, dailyRows)
	report := &models.LearningReport{
		ChildID:         childID,
		ChildName:       child.Name,
		Timeframe:       timeframe,
		GeneratedAt:     now,
		Performance:     performance,
		Trends:          buildLearningTrends(dailyRows),
		Subjects:        buildSubjectAnalysis(sessions, quizzes),
		Recommendations: s.buildRecommendations(ctx, child, performance, len(sessions)),
		Achievements:    buildAchievements(sessions, quizzes),
		Improvements:    buildImprovementAreas(sessions, quizzes),
		Engagement:      buildEngagementMetrics(sessions, dailyRows),
	}

	if s.metrics != nil {
		s.metrics.ObserveReportGeneration("learning", time.Since(started))
	}
	return report, nil
}

func buildPerformanceAnalysis(sessions []models.LearningSession, quizzes []models.QuizResult, dailyRows []models.DailyAnalytics) models.PerformanceAnalysis {
	var totalMinutes int
	completions := make([]float64, 0, len(sessions))
	for _, session := range sessions {
		completions = append(completions, session.CompletionPercentage)
	}
	dailyScores := make([]float64, 0, len(dailyRows))
	for _, row := range dailyRows {
		totalMinutes += row.TotalSessionTimeMinutes
		if row.SessionsCompleted > 0 {
			dailyScores = append(dailyScores, row.AverageScorePercentage)
		}
	}
	quizScores := make([]float64, 0, len(quizzes))
	for _, quiz := range quizzes {
		quizScores = append(quizScores, quiz.ScorePercentage)
	}

	avgCompletion := mean(completions)
	avgQuiz := mean(quizScores)

	return models.PerformanceAnalysis{
		TotalTimeMinutes:    totalMinutes,
		AverageCompletion:   round1(avgCompletion),
		AverageQuizScore:    round1(avgQuiz),
		LearningConsistency: round1(clamp(100-stddev(dailyScores), 0, 100)),
		ImprovementRate:     round1(improvementRate(quizzes)),
		PerformanceLevel:    performanceLevel((avgQuiz + avgCompletion) / 2),
	}
}

// improvementRate compares the quiz score average of the first half of the
// window against the second half.
func improvementRate(quizzes []models.QuizResult) float64 {
	if len(quizzes) < 2 {
		return 0
	}
	ordered := make([]models.QuizResult, len(quizzes))
	copy(ordered, quizzes)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].CreatedAt.Before(ordered[j].CreatedAt) })

	half := len(ordered) / 2
	first := make([]float64, 0, half)
	second := make([]float64, 0, len(ordered)-half)
	for i, quiz := range ordered {
		if i < half {
			first = append(first, quiz.ScorePercentage)
		} else {
			second = append(second, quiz.ScorePercentage)
		}
	}
	return percentChange(mean(first), mean(second))
}

func performanceLevel(score float64) string {
	switch {
	case score >= 90:
		return models.PerformanceExcellent
	case score >= 80:
		return models.PerformanceVeryGood
	case score >= 70:
		return models.PerformanceGood
	case score >= 60:
		return models.PerformanceFair
	default:
		return models.PerformanceNeedsImprovement
	}
}

func buildLearningTrends(dailyRows []models.DailyAnalytics) models.LearningTrends {
	scores := make([]float64, 0, len(dailyRows))
	for _, row := range dailyRows {
		if row.SessionsCompleted > 0 {
			scores = append(scores, row.AverageScorePercentage)
		}
	}
	if len(scores) < 2 {
		return models.LearningTrends{Status: models.StatusInsufficientData}
	}

	recentStart := len(scores) - 3
	if recentStart < 1 {
		recentStart = 1
	}
	earlier := mean(scores[:recentStart])
	recent := mean(scores[recentStart:])
	diff := recent - earlier

	trend := models.TrendStable
	if diff > 0 {
		trend = models.TrendImproving
	} else if diff < 0 {
		trend = models.TrendDeclining
	}

	strength := models.TrendStrengthWeak
	abs := diff
	if abs < 0 {
		abs = -abs
	}
	if abs > 10 {
		strength = models.TrendStrengthStrong
	} else if abs > 5 {
		strength = models.TrendStrengthModerate
	}

	return models.LearningTrends{
		Status:           models.StatusOK,
		Trend:            trend,
		Strength:         strength,
		ChangePercentage: round1(percentChange(earlier, recent)),
	}
}

func buildSubjectAnalysis(sessions []models.LearningSession, quizzes []models.QuizResult) map[string]models.SubjectAnalysis {
	result := make(map[string]models.SubjectAnalysis)

	bySubject := make(map[string][]models.LearningSession)
	for _, session := range sessions {
		bySubject[session.Subject] = append(bySubject[session.Subject], session)
	}
	quizzesBySubject := make(map[string][]float64)
	for _, quiz := range quizzes {
		quizzesBySubject[quiz.Subject] = append(quizzesBySubject[quiz.Subject], quiz.ScorePercentage)
	}

	for subject, group := range bySubject {
		var totalMinutes int
		completions := make([]float64, 0, len(group))
		for _, session := range group {
			totalMinutes += session.DurationMinutes
			completions = append(completions, session.CompletionPercentage)
		}
		avgCompletion := mean(completions)
		avgQuiz := mean(quizzesBySubject[subject])

		result[subject] = models.SubjectAnalysis{
			Sessions:          len(group),
			TotalTimeMinutes:  totalMinutes,
			AverageCompletion: round1(avgCompletion),
			AverageQuizScore:  round1(avgQuiz),
			TimePerSession:    round1(float64(totalMinutes) / float64(len(group))),
			StrengthLevel:     strengthLevel((avgCompletion + avgQuiz) / 2),
		}
	}
	return result
}

func strengthLevel(score float64) string {
	switch {
	case score >= 85:
		return "strong"
	case score >= 70:
		return "moderate"
	case score >= 55:
		return "developing"
	default:
		return "needs_focus"
	}
}

// aiRecommendation is the payload shape requested from the text generator.
type aiRecommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

func (s *LearningReportService) buildRecommendations(ctx context.Context, child *models.Child, performance models.PerformanceAnalysis, sessionCount int) []models.Recommendation {
	if s.generator != nil && s.extractJSON != nil {
		if recs, ok := s.aiRecommendations(ctx, child, performance); ok {
			return recs
		}
	}
	return ruleRecommendations(performance, sessionCount)
}

func (s *LearningReportService) aiRecommendations(ctx context.Context, child *models.Child, performance models.PerformanceAnalysis) ([]models.Recommendation, bool) {
	prompt := buildRecommendationPrompt(child, performance)
	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("recommendation generation failed, using rules", zap.String("child_id", child.ID), zap.Error(err))
		}
		return nil, false
	}

	payload, ok := s.extractJSON(raw)
	if !ok {
		if s.logger != nil {
			s.logger.Warn("recommendation payload malformed, using rules", zap.String("child_id", child.ID))
		}
		return nil, false
	}

	var items []aiRecommendation
	if err := json.Unmarshal([]byte(payload), &items); err != nil || len(items) == 0 {
		return nil, false
	}
	if len(items) > 5 {
		items = items[:5]
	}

	recs := make([]models.Recommendation, 0, len(items))
	for _, item := range items {
		if item.Title == "" {
			continue
		}
		priority := item.Priority
		if priority == "" {
			priority = "medium"
		}
		recs = append(recs, models.Recommendation{
			Title:       item.Title,
			Description: item.Description,
			Priority:    priority,
			Source:      models.RecommendationSourceAI,
		})
	}
	if len(recs) < 3 {
		return nil, false
	}
	return recs, true
}

func buildRecommendationPrompt(child *models.Child, performance models.PerformanceAnalysis) string {
	var b strings.Builder
	b.WriteString("You are an educational advisor for young children. ")
	fmt.Fprintf(&b, "The learner is %d years old, grade level %q, interested in %s. ", child.Age, child.GradeLevel, strings.Join(child.Interests, ", "))
	fmt.Fprintf(&b, "Recent stats: average lesson completion %.1f%%, average quiz score %.1f%%, %d minutes of total learning time, performance level %q. ",
		performance.AverageCompletion, performance.AverageQuizScore, performance.TotalTimeMinutes, performance.PerformanceLevel)
	b.WriteString("Respond with a JSON array of 3 to 5 objects, each with \"title\", \"description\" and \"priority\" (high, medium or low) fields, and no other text.")
	return b.String()
}

func ruleRecommendations(performance models.PerformanceAnalysis, sessionCount int) []models.Recommendation {
	recs := make([]models.Recommendation, 0, 4)
	if sessionCount < 5 {
		recs = append(recs, models.Recommendation{
			Title:       "Build a learning routine",
			Description: "Try to complete at least one short lesson every day to build momentum.",
			Priority:    "high",
			Source:      models.RecommendationSourceRules,
		})
	}
	if performance.AverageCompletion < 70 {
		recs = append(recs, models.Recommendation{
			Title:       "Focus on fundamentals",
			Description: "Revisit shorter lessons and finish them fully before moving on to new topics.",
			Priority:    "high",
			Source:      models.RecommendationSourceRules,
		})
	}
	if performance.AverageQuizScore < 70 && performance.AverageQuizScore > 0 {
		recs = append(recs, models.Recommendation{
			Title:       "Review before quizzes",
			Description: "A quick recap of the lesson before each quiz helps scores climb.",
			Priority:    "medium",
			Source:      models.RecommendationSourceRules,
		})
	}
	recs = append(recs, models.Recommendation{
		Title:       "Celebrate progress",
		Description: "Look back at finished lessons together and celebrate what was learned.",
		Priority:    "low",
		Source:      models.RecommendationSourceRules,
	})
	return recs
}

func buildAchievements(sessions []models.LearningSession, quizzes []models.QuizResult) []models.Achievement {
	achievements := make([]models.Achievement, 0, 3)
	if len(sessions) >= 10 {
		achievements = append(achievements, models.Achievement{
			Name:        "Learning Champion",
			Description: "Completed 10 or more learning sessions",
			Count:       len(sessions),
		})
	}

	perfect := 0
	for _, quiz := range quizzes {
		if quiz.ScorePercentage == 100 {
			perfect++
		}
	}
	if perfect > 0 {
		achievements = append(achievements, models.Achievement{
			Name:        "Perfect Score",
			Description: "Scored 100% on a quiz",
			Count:       perfect,
		})
	}

	if weekWarrior(sessions) {
		achievements = append(achievements, models.Achievement{
			Name:        "Week Warrior",
			Description: "Learned every day for the last 7 days",
		})
	}
	return achievements
}

// weekWarrior reports whether the most recent 7 calendar days each have at
// least one session.
func weekWarrior(sessions []models.LearningSession) bool {
	if len(sessions) < 7 {
		return false
	}
	days := make(map[string]bool, len(sessions))
	var latest time.Time
	for _, session := range sessions {
		days[session.CreatedAt.Format("2006-01-02")] = true
		if session.CreatedAt.After(latest) {
			latest = session.CreatedAt
		}
	}
	for i := 0; i < 7; i++ {
		if !days[latest.AddDate(0, 0, -i).Format("2006-01-02")] {
			return false
		}
	}
	return true
}

func buildImprovementAreas(sessions []models.LearningSession, quizzes []models.QuizResult) []models.ImprovementArea {
	areas := make([]models.ImprovementArea, 0, 2)

	if len(sessions) > 0 {
		low := 0
		for _, session := range sessions {
			if session.CompletionPercentage < 60 {
				low++
			}
		}
		if float64(low)/float64(len(sessions)) > 0.3 {
			areas = append(areas, models.ImprovementArea{
				Area:       "Session Completion",
				Priority:   "high",
				Suggestion: "Many lessons stop before completion. Shorter sessions may help finish what is started.",
			})
		}
	}

	if len(quizzes) > 0 {
		low := 0
		for _, quiz := range quizzes {
			if quiz.ScorePercentage < 70 {
				low++
			}
		}
		if float64(low)/float64(len(quizzes)) > 0.4 {
			areas = append(areas, models.ImprovementArea{
				Area:       "Quiz Performance",
				Priority:   "medium",
				Suggestion: "Quiz scores are trailing lesson completion. Reviewing lessons before quizzes should help.",
			})
		}
	}
	return areas
}

func buildEngagementMetrics(sessions []models.LearningSession, dailyRows []models.DailyAnalytics) models.EngagementMetrics {
	var totalMinutes int
	subjectMinutes := make(map[string]int)
	for _, session := range sessions {
		totalMinutes += session.DurationMinutes
		subjectMinutes[session.Subject] += session.DurationMinutes
	}

	engagementScores := make([]float64, 0, len(dailyRows))
	for _, row := range dailyRows {
		if row.SessionsCompleted > 0 {
			engagementScores = append(engagementScores, row.EngagementScore)
		}
	}
	avgEngagement := mean(engagementScores)

	level := "low"
	if avgEngagement >= 80 {
		level = "high"
	} else if avgEngagement >= 60 {
		level = "medium"
	}

	distribution := make(map[string]float64, len(subjectMinutes))
	for subject, minutes := range subjectMinutes {
		if totalMinutes > 0 {
			distribution[subject] = round1(float64(minutes) / float64(totalMinutes) * 100)
		} else {
			distribution[subject] = 0
		}
	}

	var avgSession float64
	if len(sessions) > 0 {
		avgSession = float64(totalMinutes) / float64(len(sessions))
	}

	return models.EngagementMetrics{
		TotalTimeMinutes:       totalMinutes,
		AverageSessionMinutes:  round1(avgSession),
		AverageEngagementScore: round1(avgEngagement),
		Level:                  level,
		SubjectDistribution:    distribution,
	}
}

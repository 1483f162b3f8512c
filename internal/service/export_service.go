package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumalearn/analytics-api/internal/models"
	"github.com/lumalearn/analytics-api/pkg/export"
	"github.com/lumalearn/analytics-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders generated reports into downloadable files.
type ExportService struct {
	learning *LearningReportService
	progress *ProgressReportService
	insights *InsightsService
	storage  fileStorage
	csv      datasetRenderer
	pdf      datasetRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(learning *LearningReportService, progress *ProgressReportService, insights *InsightsService, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		learning: learning,
		progress: progress,
		insights: insights,
		storage:  store,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate builds the dataset for the job's report kind and stores the rendered file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	childPart := sanitizeFilename(job.Params.ChildID)
	return fmt.Sprintf("%s_%s_%s.%s", job.Kind, childPart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, error) {
	timeframe := models.Timeframe(job.Params.Timeframe)
	switch job.Kind {
	case models.ReportKindLearning:
		report, err := s.learning.Generate(ctx, job.Params.ChildID, timeframe)
		if err != nil {
			return export.Dataset{}, err
		}
		return learningDataset(report), nil
	case models.ReportKindProgress:
		report, err := s.progress.Generate(ctx, job.Params.ChildID, timeframe)
		if err != nil {
			return export.Dataset{}, err
		}
		return progressDataset(report), nil
	case models.ReportKindInsights:
		report, err := s.insights.Generate(ctx, job.Params.ChildID)
		if err != nil {
			return export.Dataset{}, err
		}
		return insightsDataset(report), nil
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report kind %s", job.Kind)
	}
}

func learningDataset(report *models.LearningReport) export.Dataset {
	dataset := export.Dataset{
		Title: fmt.Sprintf("Learning Report - %s (%s)", report.ChildName, report.Timeframe),
		Summary: []export.SummaryItem{
			{Label: "Total Time (min)", Value: fmt.Sprintf("%d", report.Performance.TotalTimeMinutes)},
			{Label: "Average Completion", Value: fmt.Sprintf("%.1f%%", report.Performance.AverageCompletion)},
			{Label: "Average Quiz Score", Value: fmt.Sprintf("%.1f%%", report.Performance.AverageQuizScore)},
			{Label: "Consistency", Value: fmt.Sprintf("%.1f", report.Performance.LearningConsistency)},
			{Label: "Performance Level", Value: report.Performance.PerformanceLevel},
		},
	}

	subjects := export.Table{
		Name:    "Subjects",
		Headers: []string{"Subject", "Sessions", "Time (min)", "Avg Completion", "Avg Quiz", "Strength"},
	}
	names := make([]string, 0, len(report.Subjects))
	for name := range report.Subjects {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		subject := report.Subjects[name]
		subjects.Rows = append(subjects.Rows, map[string]string{
			"Subject":        name,
			"Sessions":       fmt.Sprintf("%d", subject.Sessions),
			"Time (min)":     fmt.Sprintf("%d", subject.TotalTimeMinutes),
			"Avg Completion": fmt.Sprintf("%.1f%%", subject.AverageCompletion),
			"Avg Quiz":       fmt.Sprintf("%.1f%%", subject.AverageQuizScore),
			"Strength":       subject.StrengthLevel,
		})
	}
	dataset.Tables = append(dataset.Tables, subjects)

	recs := export.Table{Name: "Recommendations", Headers: []string{"Title", "Priority", "Description"}}
	for _, rec := range report.Recommendations {
		recs.Rows = append(recs.Rows, map[string]string{
			"Title":       rec.Title,
			"Priority":    rec.Priority,
			"Description": rec.Description,
		})
	}
	dataset.Tables = append(dataset.Tables, recs)
	return dataset
}

func progressDataset(report *models.ProgressReport) export.Dataset {
	dataset := export.Dataset{
		Title: fmt.Sprintf("Progress Report (%s)", report.Timeframe),
		Summary: []export.SummaryItem{
			{Label: "Sessions", Value: fmt.Sprintf("%d", report.Sessions.Total)},
			{Label: "Completion Rate", Value: fmt.Sprintf("%.1f%%", report.Sessions.CompletionRate)},
			{Label: "Total Time (min)", Value: fmt.Sprintf("%d", report.Time.TotalMinutes)},
			{Label: "Total Points", Value: fmt.Sprintf("%d", report.Rewards.TotalPoints)},
			{Label: "Current Streak (days)", Value: fmt.Sprintf("%d", report.Rewards.CurrentStreakDays)},
		},
	}

	badges := export.Table{Name: "Badges", Headers: []string{"Badge", "Category"}}
	for _, badge := range report.Rewards.Badges {
		badges.Rows = append(badges.Rows, map[string]string{"Badge": badge.Name, "Category": badge.Category})
	}
	dataset.Tables = append(dataset.Tables, badges)

	timeline := export.Table{Name: "Recent Activity", Headers: []string{"When", "Type", "Subject", "Title", "Score"}}
	for _, event := range report.Timeline {
		timeline.Rows = append(timeline.Rows, map[string]string{
			"When":    event.OccurredAt.Format("2006-01-02 15:04"),
			"Type":    event.Type,
			"Subject": event.Subject,
			"Title":   event.Title,
			"Score":   fmt.Sprintf("%.1f", event.Score),
		})
	}
	dataset.Tables = append(dataset.Tables, timeline)
	return dataset
}

func insightsDataset(report *models.InsightsReport) export.Dataset {
	dataset := export.Dataset{
		Title: "Learning Insights",
		Summary: []export.SummaryItem{
			{Label: "Weekly Status", Value: report.Weekly.Status},
			{Label: "Weekly Avg Score", Value: fmt.Sprintf("%.1f%%", report.Weekly.AverageScore)},
			{Label: "Trend", Value: report.Trends.TrendDirection},
			{Label: "Stability", Value: report.Trends.Stability},
		},
	}

	weeks := export.Table{Name: "Weekly Buckets", Headers: []string{"Week", "Start", "Avg Score", "Time (min)", "Sessions"}}
	for _, week := range report.Trends.Weeks {
		weeks.Rows = append(weeks.Rows, map[string]string{
			"Week":       fmt.Sprintf("%d", week.Index+1),
			"Start":      week.StartDate.Format("2006-01-02"),
			"Avg Score":  fmt.Sprintf("%.1f", week.AverageScore),
			"Time (min)": fmt.Sprintf("%d", week.TotalTimeMinutes),
			"Sessions":   fmt.Sprintf("%d", week.Sessions),
		})
	}
	dataset.Tables = append(dataset.Tables, weeks)

	summary := export.Table{Name: "Insights", Headers: []string{"Kind", "Message"}}
	for _, insight := range report.Summary {
		summary.Rows = append(summary.Rows, map[string]string{"Kind": insight.Kind, "Message": insight.Message})
	}
	dataset.Tables = append(dataset.Tables, summary)
	return dataset
}

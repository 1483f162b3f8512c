package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lumalearn/analytics-api/internal/models"
)

// ReportBundle is the combined result of generating all three reports. Each
// section is present when its generator succeeded; Errors lists per-section
// failures by name.
type ReportBundle struct {
	ChildID     string                  `json:"child_id"`
	Timeframe   models.Timeframe        `json:"timeframe"`
	GeneratedAt time.Time               `json:"generated_at"`
	Learning    *models.LearningReport  `json:"learning_report,omitempty"`
	Progress    *models.ProgressReport  `json:"progress_report,omitempty"`
	Insights    *models.InsightsReport  `json:"insights_report,omitempty"`
	Errors      map[string]string       `json:"errors,omitempty"`
}

// BundleService assembles the three sub-reports concurrently. One section's
// failure never prevents the others from returning.
type BundleService struct {
	learning *LearningReportService
	progress *ProgressReportService
	insights *InsightsService
	logger   *zap.Logger
}

// NewBundleService constructs the assembler.
func NewBundleService(learning *LearningReportService, progress *ProgressReportService, insights *InsightsService, logger *zap.Logger) *BundleService {
	return &BundleService{learning: learning, progress: progress, insights: insights, logger: logger}
}

// Generate runs all three generators concurrently and collects every result,
// successful or not.
func (s *BundleService) Generate(ctx context.Context, childID string, timeframe models.Timeframe) *ReportBundle {
	bundle := &ReportBundle{
		ChildID:     childID,
		Timeframe:   timeframe,
		GeneratedAt: time.Now().UTC(),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	fail := func(section string, err error) {
		mu.Lock()
		if bundle.Errors == nil {
			bundle.Errors = make(map[string]string)
		}
		bundle.Errors[section] = err.Error()
		mu.Unlock()
		if s.logger != nil {
			s.logger.Warn("bundle section failed", zap.String("section", section), zap.String("child_id", childID), zap.Error(err))
		}
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		report, err := s.learning.Generate(ctx, childID, timeframe)
		if err != nil {
			fail("learning", err)
			return
		}
		mu.Lock()
		bundle.Learning = report
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		report, err := s.progress.Generate(ctx, childID, timeframe)
		if err != nil {
			fail("progress", err)
			return
		}
		mu.Lock()
		bundle.Progress = report
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		report, err := s.insights.Generate(ctx, childID)
		if err != nil {
			fail("insights", err)
			return
		}
		mu.Lock()
		bundle.Insights = report
		mu.Unlock()
	}()
	wg.Wait()

	return bundle
}

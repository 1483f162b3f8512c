package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/lumalearn/analytics-api/api/swagger"
	"github.com/lumalearn/analytics-api/internal/handler"
	"github.com/lumalearn/analytics-api/internal/middleware"
	"github.com/lumalearn/analytics-api/internal/repository"
	"github.com/lumalearn/analytics-api/internal/service"
	"github.com/lumalearn/analytics-api/pkg/cache"
	"github.com/lumalearn/analytics-api/pkg/config"
	"github.com/lumalearn/analytics-api/pkg/database"
	"github.com/lumalearn/analytics-api/pkg/events"
	"github.com/lumalearn/analytics-api/pkg/genai"
	"github.com/lumalearn/analytics-api/pkg/jobs"
	"github.com/lumalearn/analytics-api/pkg/logger"
	corsmiddleware "github.com/lumalearn/analytics-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lumalearn/analytics-api/pkg/middleware/requestid"
	"github.com/lumalearn/analytics-api/pkg/storage"
)

// @title LumaLearn Analytics API
// @version 1.0.0
// @description Learning analytics and reporting service for the LumaLearn platform
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	ctx := context.Background()

	sessionRepo := repository.NewSessionRepository(db)
	quizRepo := repository.NewQuizResultRepository(db)
	dailyRepo := repository.NewDailyAnalyticsRepository(db)
	childRepo := repository.NewChildRepository(db)

	metrics := service.NewMetricsService()
	bus := events.NewBus(logr)

	cacheSvc := buildCacheService(cfg, metrics, logr)
	defer bus.Subscribe(events.EventSessionProcessed, func(e events.Event) {
		payload, ok := e.Payload.(events.SessionProcessedPayload)
		if !ok {
			return
		}
		invCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cacheSvc.Invalidate(invCtx, service.ChildReportPattern(payload.ChildID)); err != nil {
			logr.Sugar().Warnw("report cache invalidation failed", "child_id", payload.ChildID, "error", err)
		}
	})()

	aggregator := service.NewAggregatorService(sessionRepo, quizRepo, dailyRepo, bus, metrics, cfg.Analytics.TrendRetention, logr)

	var generator service.RecommendationGenerator
	if cfg.AI.Enabled {
		generator = genai.NewClient(genai.Config{
			BaseURL: cfg.AI.BaseURL,
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		})
	}

	learning := service.NewLearningReportService(childRepo, sessionRepo, quizRepo, dailyRepo, generator, genai.ExtractJSON, metrics, logr)
	progress := service.NewProgressReportService(sessionRepo, quizRepo, dailyRepo, metrics, cfg.Analytics.StreakLookback)
	insights := service.NewInsightsService(sessionRepo, quizRepo, dailyRepo, metrics)
	bundle := service.NewBundleService(learning, progress, insights, logr)

	var exportHandler *handler.ExportHandler
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exporter := service.NewExportService(learning, progress, insights, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr)

		jobRepo := repository.NewExportJobRepository(db)

		var jobSvc *service.ExportJobService
		queue := jobs.NewQueue("exports", func(ctx context.Context, job jobs.Job) error {
			return jobSvc.ProcessJob(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		jobSvc = service.NewExportJobService(jobRepo, queue, exporter, logr, service.ExportJobConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})

		queue.Start(ctx)
		defer queue.Stop()
		jobSvc.RecoverPendingJobs(ctx)
		jobSvc.StartCleanup(ctx)

		exportHandler = handler.NewExportHandler(jobSvc)
	}

	analyticsHandler := handler.NewAnalyticsHandler(aggregator, metrics)
	reportHandler := handler.NewReportHandler(learning, progress, insights, bundle, cacheSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Download links carry their own signed token so they stay outside the
	// JWT middleware.
	if exportHandler != nil {
		api.GET("/exports/download/:token", exportHandler.Download)
	}

	protected := api.Group("", middleware.JWT(cfg.JWT.Secret))
	{
		analytics := protected.Group("/analytics")
		analytics.POST("/sessions", analyticsHandler.ProcessSession)
		analytics.POST("/quizzes", analyticsHandler.RecordQuiz)
		analytics.GET("/system", analyticsHandler.SystemMetrics)

		reports := protected.Group("/reports")
		reports.GET("/learning/:childId", reportHandler.Learning)
		reports.GET("/progress/:childId", reportHandler.Progress)
		reports.GET("/insights/:childId", reportHandler.Insights)
		reports.GET("/bundle/:childId", reportHandler.Bundle)

		if exportHandler != nil {
			exports := protected.Group("/exports")
			exports.POST("", exportHandler.Create)
			exports.GET("/:id", exportHandler.Status)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// buildCacheService wires the Redis-backed report cache, degrading to a
// disabled cache when Redis is unreachable so report generation keeps working.
func buildCacheService(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) *service.CacheService {
	if !cfg.Analytics.CacheEnabled {
		return service.NewCacheService(nil, metrics, cfg.Analytics.CacheTTL, logr, false)
	}

	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report cache disabled", "error", err)
		return service.NewCacheService(nil, metrics, cfg.Analytics.CacheTTL, logr, false)
	}

	return service.NewCacheService(repository.NewCacheRepository(client, logr), metrics, cfg.Analytics.CacheTTL, logr, true)
}

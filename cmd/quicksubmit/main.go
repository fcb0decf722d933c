package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/haryzobo/quickSubmit/api/swagger"
	"github.com/haryzobo/quickSubmit/internal/handler"
	"github.com/haryzobo/quickSubmit/internal/middleware"
	"github.com/haryzobo/quickSubmit/internal/models"
	"github.com/haryzobo/quickSubmit/internal/repository"
	"github.com/haryzobo/quickSubmit/internal/service"
	"github.com/haryzobo/quickSubmit/pkg/cache"
	"github.com/haryzobo/quickSubmit/pkg/config"
	"github.com/haryzobo/quickSubmit/pkg/database"
	"github.com/haryzobo/quickSubmit/pkg/jobs"
	"github.com/haryzobo/quickSubmit/pkg/logger"
	corsmiddleware "github.com/haryzobo/quickSubmit/pkg/middleware/cors"
	reqidmiddleware "github.com/haryzobo/quickSubmit/pkg/middleware/requestid"
	"github.com/haryzobo/quickSubmit/pkg/storage"
)

// @title Quick Submit API
// @version 1.0.0
// @description Editorial quick-submission service for journal managers
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	fileStore, err := storage.NewLocalStorage(cfg.Files.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init file storage", "error", err)
	}

	// Repositories.
	journals := repository.NewJournalRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	publications := repository.NewPublicationRepository(db)
	sections := repository.NewSectionRepository(db)
	issues := repository.NewIssueRepository(db)
	published := repository.NewPublishedArticleRepository(db)
	assignments := repository.NewStageAssignmentRepository(db)
	userGroups := repository.NewUserGroupRepository(db)
	submissionFiles := repository.NewSubmissionFileRepository(db)
	users := repository.NewUserRepository(db)

	// Services.
	metricsService := service.NewMetricsService()

	authService := service.NewAuthService(users, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "quick-submit",
	})

	sequenceService := service.NewSequenceService(published, sections, metricsService, logr)
	searchService := service.NewSearchIndexService(redisClient, publications, submissionFiles, cfg.Search, logr)
	optionsService := service.NewIssueOptionsService(issues, logr)

	intakeService := service.NewIntakeService(service.IntakeDeps{
		Journals:     journals,
		Submissions:  submissions,
		Publications: publications,
		Sections:     sections,
		Issues:       issues,
		Published:    published,
		Assignments:  assignments,
		Groups:       userGroups,
		Files:        submissionFiles,
		Storage:      fileStore,
		Sequences:    sequenceService,
		Search:       searchService,
		Options:      optionsService,
	}, cfg.Intake, nil, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	submissionHandler := handler.NewSubmissionHandler(intakeService, metricsService)
	issueHandler := handler.NewIssueHandler(optionsService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authService), authHandler.Me)

	editorial := api.Group("")
	editorial.Use(middleware.JWT(authService))
	editorial.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleManager))

	editorial.POST("/submissions/drafts", submissionHandler.CreateDraft)
	editorial.GET("/submissions/form-support", submissionHandler.FormSupport)
	editorial.PUT("/submissions/:id", submissionHandler.Execute)
	editorial.DELETE("/submissions/:id", submissionHandler.Cancel)
	editorial.GET("/issues/options", issueHandler.Options)

	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportJobs := repository.NewExportJobRepository(db)

		var exportService *service.ExportService
		queue := jobs.NewQueue("issue-toc-exports", func(ctx context.Context, job jobs.Job) error {
			return exportService.Handle(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportService = service.NewExportService(exportJobs, issues, published, queue, exportStore, signer, metricsService, logr, service.ExportServiceConfig{
			APIPrefix:  cfg.APIPrefix,
			ResultTTL:  cfg.Exports.SignedURLTTL,
			MaxRetries: cfg.Exports.WorkerRetries,
		})

		queue.Start(ctx)
		defer queue.Stop()
		exportService.StartCleanup(ctx, time.Hour)

		exportHandler := handler.NewExportHandler(exportService)
		editorial.POST("/exports/issues/:id/toc", exportHandler.Create)
		editorial.GET("/exports/jobs/:id", exportHandler.Status)
		// The signed token authorises the download on its own; claims, when
		// present, only enrich the request log.
		api.GET("/exports/download/:token", middleware.OptionalJWT(authService), exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}

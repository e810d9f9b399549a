// Package main provides the entry point for the lingotext PDF worker service.
// It drains the textbook update queue and serves a small status API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lingotext/internal/config"
	"lingotext/internal/database"
	"lingotext/internal/observability"
	"lingotext/internal/services"
	"lingotext/internal/version"
	"lingotext/internal/worker"

	"github.com/gin-gonic/gin"
)

// fatalIfErr logs the error with context and panics with a consistent message
func fatalIfErr(ctx context.Context, logger *observability.Logger, msg string, err error, fields map[string]interface{}) {
	logger.Error(ctx, msg, err, fields)
	panic(msg + ": " + err.Error())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.NewConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "lingotext-worker")
	if err != nil {
		panic("Failed to initialize observability: " + err.Error())
	}
	defer func() {
		if shutdowner, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
			if err := shutdowner.Shutdown(context.TODO()); err != nil {
				logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error()})
			}
		}
		if mp != nil {
			if err := mp.Shutdown(context.TODO()); err != nil {
				logger.Warn(ctx, "Error shutting down meter provider", map[string]interface{}{"error": err.Error()})
			}
		}
	}()

	logger.Info(ctx, "Starting lingotext worker service", map[string]interface{}{
		"port":     cfg.Server.WorkerPort,
		"logLevel": cfg.Server.LogLevel,
		"debug":    cfg.Server.Debug,
	})

	// Migrations are managed by the backend and the adm tool
	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDBWithoutMigrations(cfg.Database)
	if err != nil {
		fatalIfErr(ctx, logger, "Failed to initialize database", err, map[string]interface{}{"db_url": cfg.Database.URL})
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn(ctx, "Warning: failed to close database", map[string]interface{}{"error": err.Error()})
		}
	}()

	userService := services.NewUserService(db, logger)
	paragraphService := services.NewParagraphService(db, logger)
	attemptService := services.NewAttemptService(db, logger)
	jobService := services.NewPDFJobService(db, logger)

	storageService, err := services.NewStorageService(&cfg.Storage, logger)
	if err != nil {
		fatalIfErr(ctx, logger, "Failed to initialize storage service", err, nil)
	}
	if storageService.IsConfigured() {
		if err := storageService.EnsureBucket(ctx); err != nil {
			fatalIfErr(ctx, logger, "Failed to ensure storage bucket", err, nil)
		}
	}

	rasterizer := services.NewChromeRasterizer(logger)
	pdfService := services.NewPDFService(userService, paragraphService, attemptService, storageService, rasterizer, logger)

	workerInstance := worker.NewWorker(jobService, pdfService, logger)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		workerInstance.Run(ctx)
	}()

	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.GinMiddlewareWithErrorHandling("lingotext-worker"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "worker"})
	})
	router.GET("/v1/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "worker",
			"version":   version.Version,
			"commit":    version.Commit,
			"buildTime": version.BuildTime,
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.WorkerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "Worker server starting", map[string]interface{}{"port": cfg.Server.WorkerPort})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatalIfErr(ctx, logger, "Failed to start worker server", err, map[string]interface{}{"port": cfg.Server.WorkerPort})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Worker shutting down", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.WorkerShutdownTimeout)
	defer shutdownCancel()

	// Stop the queue loop first so no merge is interrupted mid-upload
	cancel()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn(context.Background(), "Timed out waiting for worker loop to stop", nil)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(context.Background(), "Worker server forced to shutdown", err, nil)
	}

	logger.Info(context.Background(), "Worker exited", nil)
}

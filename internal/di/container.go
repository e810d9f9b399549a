// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"sync"

	"lingotext/internal/config"
	"lingotext/internal/database"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	"lingotext/internal/services"
	contextutils "lingotext/internal/utils"
	"lingotext/internal/worker"
)

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	dbManager     *database.Manager
	db            *sql.DB
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize sets up all services and their dependencies
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Initialize database
	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.InitDBWithConfig(sc.cfg.Database)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to initialize database")
	}
	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return db.Close()
	})

	if err := sc.initializeServices(ctx); err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapErrorf(err, "failed to initialize services")
	}

	return nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetUserService returns the user service
func (sc *ServiceContainer) GetUserService() (*services.UserService, error) {
	return GetServiceAs[*services.UserService](sc, "user")
}

// GetParagraphService returns the paragraph service
func (sc *ServiceContainer) GetParagraphService() (serviceinterfaces.ParagraphStore, error) {
	return GetServiceAs[serviceinterfaces.ParagraphStore](sc, "paragraph")
}

// GetAttemptService returns the exercise attempt service
func (sc *ServiceContainer) GetAttemptService() (serviceinterfaces.AttemptStore, error) {
	return GetServiceAs[serviceinterfaces.AttemptStore](sc, "attempt")
}

// GetPDFJobService returns the PDF job queue service
func (sc *ServiceContainer) GetPDFJobService() (serviceinterfaces.PDFJobStore, error) {
	return GetServiceAs[serviceinterfaces.PDFJobStore](sc, "pdf_job")
}

// GetFeedbackService returns the AI feedback service
func (sc *ServiceContainer) GetFeedbackService() (serviceinterfaces.FeedbackService, error) {
	return GetServiceAs[serviceinterfaces.FeedbackService](sc, "ai")
}

// GetStorageService returns the object storage service
func (sc *ServiceContainer) GetStorageService() (serviceinterfaces.StorageProvider, error) {
	return GetServiceAs[serviceinterfaces.StorageProvider](sc, "storage")
}

// GetPDFGenerator returns the textbook PDF generator
func (sc *ServiceContainer) GetPDFGenerator() (serviceinterfaces.PDFGenerator, error) {
	return GetServiceAs[serviceinterfaces.PDFGenerator](sc, "pdf")
}

// GetSubmissionService returns the submission service
func (sc *ServiceContainer) GetSubmissionService() (*services.SubmissionService, error) {
	return GetServiceAs[*services.SubmissionService](sc, "submission")
}

// GetWorker returns the PDF queue worker
func (sc *ServiceContainer) GetWorker() (*worker.Worker, error) {
	return GetServiceAs[*worker.Worker](sc, "worker")
}

// GetDatabase returns the database instance
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	return sc.db
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup handles shutdown of all services in reverse order of initialization
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errs []error

	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errs)
	}
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(ctx context.Context) error {
	// Store services that only depend on the database
	userService := services.NewUserService(sc.db, sc.logger)
	sc.services["user"] = userService

	paragraphService := services.NewParagraphService(sc.db, sc.logger)
	sc.services["paragraph"] = paragraphService

	attemptService := services.NewAttemptService(sc.db, sc.logger)
	sc.services["attempt"] = attemptService

	jobService := services.NewPDFJobService(sc.db, sc.logger)
	sc.services["pdf_job"] = jobService

	// AI feedback service
	aiService := services.NewAIService(sc.cfg, sc.logger)
	sc.services["ai"] = aiService

	// Object storage; runs unconfigured when credentials are absent
	storageService, err := services.NewStorageService(&sc.cfg.Storage, sc.logger)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to initialize storage service")
	}
	if storageService.IsConfigured() {
		if err := storageService.EnsureBucket(ctx); err != nil {
			return contextutils.WrapErrorf(err, "failed to ensure storage bucket")
		}
	}
	sc.services["storage"] = storageService

	// Rendering pipeline
	rasterizer := services.NewChromeRasterizer(sc.logger)
	sc.services["rasterizer"] = rasterizer

	pdfService := services.NewPDFService(userService, paragraphService, attemptService, storageService, rasterizer, sc.logger)
	sc.services["pdf"] = pdfService

	// Submission pipeline depends on the stores and the AI service
	submissionService := services.NewSubmissionService(userService, paragraphService, attemptService, jobService, aiService, sc.logger)
	sc.services["submission"] = submissionService

	// Queue worker
	sc.services["worker"] = worker.NewWorker(jobService, pdfService, sc.logger)

	return nil
}

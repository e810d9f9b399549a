package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"lingotext/internal/config"
	"lingotext/internal/middleware"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	"lingotext/internal/services"
	"lingotext/internal/version"
)

// NewRouter creates the API router with all middleware and routes
func NewRouter(
	cfg *config.Config,
	userService *services.UserService,
	paragraphStore serviceinterfaces.ParagraphStore,
	attemptStore serviceinterfaces.AttemptStore,
	submissionService *services.SubmissionService,
	pdfGenerator serviceinterfaces.PDFGenerator,
	storage serviceinterfaces.StorageProvider,
	logger *observability.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// HTTP request logging through the observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "backend"})
	})

	router.Use(observability.GinMiddlewareWithErrorHandling("lingotext-backend"))

	router.RedirectTrailingSlash = false

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	// Initialize handlers
	authHandler := NewAuthHandler(userService, logger)
	exerciseHandler := NewExerciseHandler(submissionService, paragraphStore, attemptStore, logger)
	pdfHandler := NewPDFHandler(pdfGenerator, storage, userService, logger)

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   "backend",
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.Me)
		}

		exercises := v1.Group("/exercises")
		exercises.Use(middleware.RequireAuth(), middleware.RequireActiveSubscription(userService))
		{
			exercises.POST("/submit", exerciseHandler.SubmitExercise)
			exercises.GET("/history", exerciseHandler.GetHistory)
			exercises.GET("/:id", exerciseHandler.GetParagraph)
		}

		pdf := v1.Group("/pdf")
		{
			// Internal trigger endpoint: validates its own body
			pdf.POST("/generate", pdfHandler.GeneratePDF)
			pdf.GET("/download", middleware.RequireAuth(), middleware.RequireActiveSubscription(userService), pdfHandler.DownloadPDF)
		}
	}

	return router
}

package handlers

import (
	"net/http"

	"lingotext/internal/config"
	"lingotext/internal/middleware"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GeneratePDFRequest is the body of POST /v1/pdf/generate
type GeneratePDFRequest struct {
	UserID    int    `json:"user_id" binding:"required"`
	AttemptID string `json:"attempt_id" binding:"required"`
}

// DownloadPDFResponse is the body of GET /v1/pdf/download
type DownloadPDFResponse struct {
	URL         string `json:"url"`
	LessonCount int    `json:"lesson_count"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// PDFHandler serves textbook generation and download endpoints
type PDFHandler struct {
	generator serviceinterfaces.PDFGenerator
	storage   serviceinterfaces.StorageProvider
	users     serviceinterfaces.UserStore
	logger    *observability.Logger
}

// NewPDFHandler creates a new PDF handler
func NewPDFHandler(
	generator serviceinterfaces.PDFGenerator,
	storage serviceinterfaces.StorageProvider,
	users serviceinterfaces.UserStore,
	logger *observability.Logger,
) *PDFHandler {
	return &PDFHandler{
		generator: generator,
		storage:   storage,
		users:     users,
		logger:    logger,
	}
}

// GeneratePDF handles POST /v1/pdf/generate. It runs the generator
// synchronously; the queue normally calls the same path asynchronously.
func (h *PDFHandler) GeneratePDF(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "generate_pdf")
	defer span.End()

	var req GeneratePDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	attemptID, err := uuid.Parse(req.AttemptID)
	if err != nil {
		HandleValidationError(c, "attempt_id", req.AttemptID, "must be a valid UUID")
		return
	}

	if err := h.generator.GenerateForAttempt(ctx, req.UserID, attemptID); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DownloadPDF handles GET /v1/pdf/download
func (h *PDFHandler) DownloadPDF(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "download_pdf")
	defer span.End()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		StandardizeAppError(c, contextutils.ErrUnauthorized)
		return
	}

	if !h.storage.IsConfigured() {
		StandardizeAppError(c, contextutils.ErrStorageNotConfigured)
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	if user.PDFLessonCount == 0 || !user.PDFURL.Valid {
		StandardizeAppError(c, contextutils.ErrPDFNotFound)
		return
	}

	signedURL, err := h.storage.SignedURL(ctx, userID, config.SignedURLTTL)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	resp := DownloadPDFResponse{
		URL:         signedURL,
		LessonCount: user.PDFLessonCount,
	}
	if user.PDFUpdatedAt.Valid {
		resp.UpdatedAt = user.PDFUpdatedAt.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	c.JSON(http.StatusOK, resp)
}

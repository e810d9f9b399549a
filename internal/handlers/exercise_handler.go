package handlers

import (
	"net/http"
	"strconv"

	"lingotext/internal/middleware"
	"lingotext/internal/models"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	"lingotext/internal/services"
	contextutils "lingotext/internal/utils"

	"github.com/gin-gonic/gin"
)

// SubmitExerciseRequest is the body of POST /v1/exercises/submit
type SubmitExerciseRequest struct {
	ParagraphID      int    `json:"paragraph_id" binding:"required"`
	ExerciseType     string `json:"exercise_type" binding:"required"`
	Answer           string `json:"answer"`
	CorrectAnswer    string `json:"correct_answer,omitempty"`
	TimeSpentSeconds *int   `json:"time_spent_seconds,omitempty"`
}

// SubmitExerciseResponse is the body returned for a processed submission
type SubmitExerciseResponse struct {
	Success   bool              `json:"success"`
	AttemptID string            `json:"attempt_id"`
	Score     int               `json:"score"`
	Feedback  string            `json:"feedback"`
	Analysis  models.AIAnalysis `json:"analysis"`
	Completed bool              `json:"completed"`
}

// ExerciseHandler serves exercise submission and retrieval endpoints
type ExerciseHandler struct {
	submissions *services.SubmissionService
	paragraphs  serviceinterfaces.ParagraphStore
	attempts    serviceinterfaces.AttemptStore
	logger      *observability.Logger
}

// NewExerciseHandler creates a new exercise handler
func NewExerciseHandler(
	submissions *services.SubmissionService,
	paragraphs serviceinterfaces.ParagraphStore,
	attempts serviceinterfaces.AttemptStore,
	logger *observability.Logger,
) *ExerciseHandler {
	return &ExerciseHandler{
		submissions: submissions,
		paragraphs:  paragraphs,
		attempts:    attempts,
		logger:      logger,
	}
}

// SubmitExercise handles POST /v1/exercises/submit
func (h *ExerciseHandler) SubmitExercise(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_exercise")
	defer span.End()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		StandardizeAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req SubmitExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	result, err := h.submissions.Submit(ctx, &services.SubmissionRequest{
		UserID:           userID,
		ParagraphID:      req.ParagraphID,
		ExerciseType:     models.ExerciseType(req.ExerciseType),
		Answer:           req.Answer,
		CorrectAnswer:    req.CorrectAnswer,
		TimeSpentSeconds: req.TimeSpentSeconds,
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, SubmitExerciseResponse{
		Success:   true,
		AttemptID: result.Attempt.ID.String(),
		Score:     result.Attempt.Score,
		Feedback:  result.Attempt.Feedback,
		Analysis:  result.Attempt.Analysis,
		Completed: result.Completed,
	})
}

// GetParagraph handles GET /v1/exercises/:id
func (h *ExerciseHandler) GetParagraph(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_paragraph")
	defer span.End()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		HandleValidationError(c, "paragraph id", c.Param("id"), "must be a positive integer")
		return
	}

	paragraph, err := h.paragraphs.GetParagraphByID(ctx, id)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, paragraph)
}

// GetHistory handles GET /v1/exercises/history
func (h *ExerciseHandler) GetHistory(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_history")
	defer span.End()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		StandardizeAppError(c, contextutils.ErrUnauthorized)
		return
	}

	limit := 20
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			HandleValidationError(c, "limit", limitParam, "must be a positive integer")
			return
		}
		limit = parsed
	}

	attempts, err := h.attempts.GetRecentAttempts(ctx, userID, limit)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": attempts,
		"count":    len(attempts),
	})
}

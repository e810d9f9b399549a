package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"lingotext/internal/config"
	"lingotext/internal/models"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// SubmissionRequest is a validated exercise submission
type SubmissionRequest struct {
	UserID           int
	ParagraphID      int
	ExerciseType     models.ExerciseType
	Answer           string
	CorrectAnswer    string
	TimeSpentSeconds *int
}

// SubmissionResult is the outcome of processing one submission
type SubmissionResult struct {
	Attempt   *models.ExerciseAttempt
	Completed bool
	Fallback  bool
}

// SubmissionService orchestrates the submit pipeline: validate, grade with
// fallback, persist, update stats best-effort, and enqueue the textbook
// update. Once the input validates, the submission always succeeds —
// AI or queue trouble degrades the result, it never fails the request.
type SubmissionService struct {
	users      serviceinterfaces.UserStore
	paragraphs serviceinterfaces.ParagraphStore
	attempts   serviceinterfaces.AttemptStore
	jobs       serviceinterfaces.PDFJobStore
	feedback   serviceinterfaces.FeedbackService
	logger     *observability.Logger
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	users serviceinterfaces.UserStore,
	paragraphs serviceinterfaces.ParagraphStore,
	attempts serviceinterfaces.AttemptStore,
	jobs serviceinterfaces.PDFJobStore,
	feedback serviceinterfaces.FeedbackService,
	logger *observability.Logger,
) *SubmissionService {
	return &SubmissionService{
		users:      users,
		paragraphs: paragraphs,
		attempts:   attempts,
		jobs:       jobs,
		feedback:   feedback,
		logger:     logger,
	}
}

// Submit processes one exercise submission end to end
func (s *SubmissionService) Submit(ctx context.Context, req *SubmissionRequest) (result0 *SubmissionResult, err error) {
	ctx, span := observability.TraceSubmissionFunction(ctx, "submit",
		observability.AttributeUserID(req.UserID),
		observability.AttributeParagraphID(req.ParagraphID),
		observability.AttributeExerciseType(req.ExerciseType),
	)
	defer observability.FinishSpan(span, &err)

	answer := strings.TrimSpace(req.Answer)
	if answer == "" {
		return nil, contextutils.WrapError(contextutils.ErrEmptyAnswer, "submission rejected")
	}

	if !req.ExerciseType.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown exercise type %q", req.ExerciseType)
	}

	paragraph, err := s.paragraphs.GetParagraphByID(ctx, req.ParagraphID)
	if err != nil {
		return nil, err
	}
	if !paragraph.Active {
		// Archived paragraphs are indistinguishable from missing ones
		return nil, contextutils.WrapErrorf(contextutils.ErrParagraphNotFound, "paragraph %d is not active", req.ParagraphID)
	}

	user, err := s.users.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	grading := s.grade(ctx, user, paragraph, req, answer)

	attempt := &models.ExerciseAttempt{
		ID:           uuid.New(),
		UserID:       req.UserID,
		ParagraphID:  req.ParagraphID,
		ExerciseType: req.ExerciseType,
		UserAnswer:   answer,
		Score:        ClampScore(grading.Score),
		Feedback:     grading.Feedback,
		Analysis:     grading.Analysis,
		CompletedAt:  time.Now(),
	}
	if req.CorrectAnswer != "" {
		attempt.CorrectAnswer = sql.NullString{String: req.CorrectAnswer, Valid: true}
	}
	if req.TimeSpentSeconds != nil {
		attempt.TimeSpentSeconds = sql.NullInt32{Int32: int32(*req.TimeSpentSeconds), Valid: true}
	}

	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	// Best-effort stats update: never fails the submission
	if err := s.users.UpdateLastExerciseAt(ctx, req.UserID, attempt.CompletedAt); err != nil {
		s.logger.Warn(ctx, "Failed to update exercise stats", map[string]interface{}{
			"user_id": req.UserID,
			"error":   err.Error(),
		})
	}

	s.enqueueTextbookUpdate(ctx, attempt)

	observability.RecordSubmissionGraded(ctx, string(req.ExerciseType), grading.Fallback)
	span.SetAttributes(
		observability.AttributeScore(attempt.Score),
		attribute.Bool("grading.fallback", grading.Fallback),
	)

	return &SubmissionResult{
		Attempt:   attempt,
		Completed: attempt.Score >= config.MasteryThreshold,
		Fallback:  grading.Fallback,
	}, nil
}

// grade calls the feedback model and falls back to the deterministic result
// on any failure. Grading problems degrade the response, never fail it.
func (s *SubmissionService) grade(ctx context.Context, user *models.User, paragraph *models.Paragraph, req *SubmissionRequest, answer string) *serviceinterfaces.GradingResult {
	gradingReq := &serviceinterfaces.GradingRequest{
		ExerciseType:  req.ExerciseType,
		OriginalText:  paragraph.Content,
		UserAnswer:    answer,
		CorrectAnswer: req.CorrectAnswer,
	}
	if user.NativeLanguage.Valid {
		gradingReq.NativeLanguage = user.NativeLanguage.String
	}
	if user.TargetLanguage.Valid {
		gradingReq.TargetLanguage = user.TargetLanguage.String
	}

	result, err := s.feedback.AnalyzeExercise(ctx, gradingReq)
	if err != nil {
		s.logger.Warn(ctx, "AI grading unavailable, using fallback", map[string]interface{}{
			"user_id": req.UserID,
			"error":   err.Error(),
		})
		return FallbackGradingResult()
	}
	return result
}

// enqueueTextbookUpdate queues the PDF job. Queue trouble is logged and
// swallowed; the attempt stays unincorporated and can be requeued later.
func (s *SubmissionService) enqueueTextbookUpdate(ctx context.Context, attempt *models.ExerciseAttempt) {
	job := &models.PDFJob{
		ID:        uuid.New(),
		UserID:    attempt.UserID,
		AttemptID: attempt.ID,
		Status:    models.PDFJobPending,
	}

	if err := s.jobs.EnqueueJob(ctx, job); err != nil {
		s.logger.Error(ctx, "Failed to enqueue textbook update", err, map[string]interface{}{
			"user_id":    attempt.UserID,
			"attempt_id": attempt.ID.String(),
		})
		return
	}

	s.logger.Debug(ctx, "Queued textbook update", map[string]interface{}{
		"user_id": attempt.UserID,
		"job_id":  job.ID.String(),
	})
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"lingotext/internal/config"
	"lingotext/internal/models"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmissionFixture() (*SubmissionService, *mockUserStore, *mockAttemptStore, *mockPDFJobStore, *mockFeedbackService) {
	users := &mockUserStore{}
	paragraphs := &mockParagraphStore{}
	attempts := &mockAttemptStore{}
	jobs := &mockPDFJobStore{}
	feedback := &mockFeedbackService{}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})

	service := NewSubmissionService(users, paragraphs, attempts, jobs, feedback, logger)
	return service, users, attempts, jobs, feedback
}

func validRequest() *SubmissionRequest {
	return &SubmissionRequest{
		UserID:       1,
		ParagraphID:  10,
		ExerciseType: models.ExerciseTranslation,
		Answer:       "The dog sleeps.",
	}
}

func TestSubmit_EmptyAnswer(t *testing.T) {
	service, _, attempts, _, _ := newSubmissionFixture()

	for _, answer := range []string{"", "   ", "\n\t "} {
		req := validRequest()
		req.Answer = answer

		_, err := service.Submit(context.Background(), req)
		require.Error(t, err)
		assert.True(t, contextutils.IsError(err, contextutils.ErrEmptyAnswer))
	}
	assert.Empty(t, attempts.created)
}

func TestSubmit_InvalidExerciseType(t *testing.T) {
	service, _, _, _, _ := newSubmissionFixture()

	req := validRequest()
	req.ExerciseType = "dictation"

	_, err := service.Submit(context.Background(), req)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}

func TestSubmit_UnknownParagraph(t *testing.T) {
	service, _, _, _, _ := newSubmissionFixture()
	service.paragraphs = &mockParagraphStore{
		getParagraphByID: func(_ context.Context, _ int) (*models.Paragraph, error) {
			return nil, contextutils.ErrParagraphNotFound
		},
	}

	_, err := service.Submit(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrParagraphNotFound))
}

func TestSubmit_InactiveParagraph(t *testing.T) {
	service, _, attempts, jobs, _ := newSubmissionFixture()
	service.paragraphs = &mockParagraphStore{
		getParagraphByID: func(_ context.Context, id int) (*models.Paragraph, error) {
			return &models.Paragraph{ID: id, Title: "Archived", Content: "Der Hund schläft.", Active: false}, nil
		},
	}

	_, err := service.Submit(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrParagraphNotFound))
	assert.Empty(t, attempts.created)
	assert.Empty(t, jobs.enqueued)
}

func TestSubmit_Success(t *testing.T) {
	service, _, attempts, jobs, feedback := newSubmissionFixture()
	feedback.analyzeExercise = func(_ context.Context, req *serviceinterfaces.GradingRequest) (*serviceinterfaces.GradingResult, error) {
		assert.Equal(t, "The dog sleeps.", req.UserAnswer)
		assert.Equal(t, "Der Hund schläft.", req.OriginalText)
		return &serviceinterfaces.GradingResult{Score: 85, Feedback: "Nice work"}, nil
	}

	result, err := service.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, 85, result.Attempt.Score)
	assert.True(t, result.Completed)
	assert.False(t, result.Fallback)
	require.Len(t, attempts.created, 1)
	require.Len(t, jobs.enqueued, 1)
	assert.Equal(t, attempts.created[0].ID, jobs.enqueued[0].AttemptID)
	assert.Equal(t, models.PDFJobPending, jobs.enqueued[0].Status)
}

func TestSubmit_BelowMasteryThresholdNotCompleted(t *testing.T) {
	service, _, _, _, feedback := newSubmissionFixture()
	feedback.analyzeExercise = func(_ context.Context, _ *serviceinterfaces.GradingRequest) (*serviceinterfaces.GradingResult, error) {
		return &serviceinterfaces.GradingResult{Score: config.MasteryThreshold - 1, Feedback: "Keep practicing"}, nil
	}

	result, err := service.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, result.Completed)
}

func TestSubmit_GradingFailureFallsBack(t *testing.T) {
	service, _, attempts, jobs, feedback := newSubmissionFixture()
	feedback.analyzeExercise = func(_ context.Context, _ *serviceinterfaces.GradingRequest) (*serviceinterfaces.GradingResult, error) {
		return nil, contextutils.WrapError(contextutils.ErrAIRequestFailed, "provider down")
	}

	result, err := service.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, result.Fallback)
	assert.Equal(t, config.FallbackScore, result.Attempt.Score)
	assert.False(t, result.Completed)
	// The attempt is still persisted and the textbook update still queued
	assert.Len(t, attempts.created, 1)
	assert.Len(t, jobs.enqueued, 1)
}

func TestSubmit_PersistFailureFailsSubmission(t *testing.T) {
	service, _, attempts, jobs, _ := newSubmissionFixture()
	attempts.createAttempt = func(_ context.Context, _ *models.ExerciseAttempt) error {
		return contextutils.ErrDatabaseQuery
	}

	_, err := service.Submit(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrDatabaseQuery))
	assert.Empty(t, jobs.enqueued)
}

func TestSubmit_StatsFailureTolerated(t *testing.T) {
	service, users, _, jobs, _ := newSubmissionFixture()
	users.updateLastExerciseAt = func(_ context.Context, _ int, _ time.Time) error {
		return errors.New("stats table locked")
	}

	result, err := service.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotNil(t, result.Attempt)
	assert.Len(t, jobs.enqueued, 1)
}

func TestSubmit_EnqueueFailureTolerated(t *testing.T) {
	service, _, attempts, jobs, _ := newSubmissionFixture()
	jobs.enqueueJob = func(_ context.Context, _ *models.PDFJob) error {
		return errors.New("queue unavailable")
	}

	result, err := service.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotNil(t, result.Attempt)
	assert.Len(t, attempts.created, 1)
}

func TestSubmit_ScoreClamped(t *testing.T) {
	service, _, _, _, feedback := newSubmissionFixture()
	feedback.analyzeExercise = func(_ context.Context, _ *serviceinterfaces.GradingRequest) (*serviceinterfaces.GradingResult, error) {
		return &serviceinterfaces.GradingResult{Score: 130, Feedback: "overenthusiastic"}, nil
	}

	result, err := service.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 100, result.Attempt.Score)
}

package serviceinterfaces

import (
	"context"
	"time"

	"lingotext/internal/models"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users
type UserStore interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateLastExerciseAt(ctx context.Context, userID int, at time.Time) error
	UpdatePDFPointer(ctx context.Context, userID int, url string, lessonCount int, updatedAt time.Time) error
}

// ParagraphStore defines persistence operations for exercise paragraphs
type ParagraphStore interface {
	GetParagraphByID(ctx context.Context, id int) (*models.Paragraph, error)
	ListActiveParagraphs(ctx context.Context, difficulty models.DifficultyLevel, limit int) ([]models.Paragraph, error)
	CreateParagraph(ctx context.Context, p *models.Paragraph) (*models.Paragraph, error)
}

// AttemptStore defines persistence operations for exercise attempts
type AttemptStore interface {
	CreateAttempt(ctx context.Context, attempt *models.ExerciseAttempt) error
	GetAttemptByID(ctx context.Context, id uuid.UUID) (*models.ExerciseAttempt, error)
	GetRecentAttempts(ctx context.Context, userID, limit int) ([]models.ExerciseAttempt, error)
	// MarkPDFGenerated flips the incorporated flag; returns
	// ErrAttemptNotFound when no row matched.
	MarkPDFGenerated(ctx context.Context, id uuid.UUID) error
	CountAttempts(ctx context.Context, userID int) (int, error)
}

// PDFJobStore defines persistence operations for the PDF work queue
type PDFJobStore interface {
	EnqueueJob(ctx context.Context, job *models.PDFJob) error
	// ClaimNextPending atomically moves the oldest pending job to
	// processing and returns it, or nil when the queue is empty.
	ClaimNextPending(ctx context.Context) (*models.PDFJob, error)
	MarkJobDone(ctx context.Context, id uuid.UUID) error
	// MarkJobFailed records the failure and either requeues the job or
	// marks it failed permanently once maxAttempts is reached.
	MarkJobFailed(ctx context.Context, id uuid.UUID, jobErr string, maxAttempts int) error
	RequeueFailedJobs(ctx context.Context) (int, error)
}

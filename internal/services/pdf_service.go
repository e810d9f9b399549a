package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"lingotext/internal/models"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFService folds graded attempts into each user's cumulative textbook PDF.
//
// The generator is idempotent per attempt: an attempt whose incorporated
// flag is already set is skipped, so duplicate jobs in the queue are
// harmless. The flag only flips after a successful upload and pointer
// update, so a failed run leaves the attempt eligible for a clean retry.
type PDFService struct {
	users      serviceinterfaces.UserStore
	paragraphs serviceinterfaces.ParagraphStore
	attempts   serviceinterfaces.AttemptStore
	storage    serviceinterfaces.StorageProvider
	rasterizer serviceinterfaces.HTMLRasterizer
	logger     *observability.Logger
}

var _ serviceinterfaces.PDFGenerator = (*PDFService)(nil)

// NewPDFService creates a new PDF generator
func NewPDFService(
	users serviceinterfaces.UserStore,
	paragraphs serviceinterfaces.ParagraphStore,
	attempts serviceinterfaces.AttemptStore,
	storage serviceinterfaces.StorageProvider,
	rasterizer serviceinterfaces.HTMLRasterizer,
	logger *observability.Logger,
) *PDFService {
	return &PDFService{
		users:      users,
		paragraphs: paragraphs,
		attempts:   attempts,
		storage:    storage,
		rasterizer: rasterizer,
		logger:     logger,
	}
}

// GenerateForAttempt renders the attempt as a lesson, merges it with the
// user's existing textbook, uploads the result and marks the attempt
// incorporated.
func (s *PDFService) GenerateForAttempt(ctx context.Context, userID int, attemptID uuid.UUID) (err error) {
	ctx, span := observability.TracePDFFunction(ctx, "generate_for_attempt",
		observability.AttributeUserID(userID),
		observability.AttributeAttemptID(attemptID.String()),
	)
	defer observability.FinishSpan(span, &err)

	if !s.storage.IsConfigured() {
		return contextutils.WrapError(contextutils.ErrStorageNotConfigured, "cannot generate textbook")
	}

	attempt, err := s.attempts.GetAttemptByID(ctx, attemptID)
	if err != nil {
		return err
	}
	if attempt.UserID != userID {
		return contextutils.WrapErrorf(contextutils.ErrAttemptNotFound, "attempt %s does not belong to user %d", attemptID, userID)
	}

	// Idempotence guard: already folded into the textbook
	if attempt.PDFGenerated {
		s.logger.Info(ctx, "Attempt already incorporated, skipping", map[string]interface{}{
			"user_id":    userID,
			"attempt_id": attemptID.String(),
		})
		return nil
	}

	start := time.Now()

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	paragraph, err := s.paragraphs.GetParagraphByID(ctx, attempt.ParagraphID)
	if err != nil {
		return err
	}

	lessonNumber := user.PDFLessonCount + 1
	lesson := LessonFromAttempt(lessonNumber, attempt, paragraph)

	html, err := RenderLessonHTML(lesson)
	if err != nil {
		return err
	}

	lessonPDF, err := s.rasterizer.RenderHTML(ctx, html)
	if err != nil {
		return err
	}

	existingPDF, err := s.loadExistingTextbook(ctx, user)
	if err != nil {
		return err
	}

	merged, err := MergePDFs(existingPDF, lessonPDF)
	if err != nil {
		return err
	}

	objectURL, err := s.storage.UploadUserPDF(ctx, userID, merged)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePDFPointer(ctx, userID, objectURL, lessonNumber, time.Now()); err != nil {
		return err
	}

	if err := s.attempts.MarkPDFGenerated(ctx, attemptID); err != nil {
		return err
	}

	observability.RecordPDFMergeDuration(ctx, time.Since(start))
	span.SetAttributes(observability.AttributeLessonCount(lessonNumber))
	s.logger.Info(ctx, "Textbook updated", map[string]interface{}{
		"user_id":      userID,
		"attempt_id":   attemptID.String(),
		"lesson_count": lessonNumber,
		"size_bytes":   len(merged),
	})

	return nil
}

// loadExistingTextbook fetches the user's current textbook. A user with no
// lessons yet, or a stale pointer to a missing object, starts fresh.
func (s *PDFService) loadExistingTextbook(ctx context.Context, user *models.User) ([]byte, error) {
	if user.PDFLessonCount == 0 && !user.PDFURL.Valid {
		return nil, nil
	}

	data, err := s.storage.DownloadUserPDF(ctx, user.ID)
	if err != nil {
		if errors.Is(err, contextutils.ErrPDFNotFound) {
			s.logger.Warn(ctx, "Textbook pointer set but object missing, starting fresh", map[string]interface{}{
				"user_id": user.ID,
			})
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// MergePDFs appends the new page set after the existing one. A nil existing
// document returns the new one unchanged.
func MergePDFs(existing, newPages []byte) (result0 []byte, err error) {
	if len(existing) == 0 {
		return newPages, nil
	}

	readers := []io.ReadSeeker{
		bytes.NewReader(existing),
		bytes.NewReader(newPages),
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, nil); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrPDFMergeFailed, "failed to merge page sets: %w", err)
	}

	return buf.Bytes(), nil
}

package services

import (
	"context"
	"database/sql"

	"lingotext/internal/models"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"github.com/google/uuid"
)

// AttemptService provides persistence for graded exercise attempts
type AttemptService struct {
	db     *sql.DB
	logger *observability.Logger
}

var _ serviceinterfaces.AttemptStore = (*AttemptService)(nil)

// NewAttemptService creates a new attempt service
func NewAttemptService(db *sql.DB, logger *observability.Logger) *AttemptService {
	return &AttemptService{db: db, logger: logger}
}

const attemptColumns = `id, user_id, paragraph_id, exercise_type, user_answer, correct_answer,
	score, feedback, analysis, time_spent_seconds, completed_at, pdf_generated`

// CreateAttempt inserts a graded attempt row
func (s *AttemptService) CreateAttempt(ctx context.Context, attempt *models.ExerciseAttempt) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "create_attempt",
		observability.AttributeUserID(attempt.UserID),
		observability.AttributeAttemptID(attempt.ID.String()),
	)
	defer observability.FinishSpan(span, &err)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exercise_attempts (id, user_id, paragraph_id, exercise_type, user_answer,
			correct_answer, score, feedback, analysis, time_spent_seconds, completed_at, pdf_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		attempt.ID, attempt.UserID, attempt.ParagraphID, string(attempt.ExerciseType),
		attempt.UserAnswer, attempt.CorrectAnswer, attempt.Score, attempt.Feedback,
		attempt.Analysis, attempt.TimeSpentSeconds, attempt.CompletedAt, attempt.PDFGenerated,
	)
	if err != nil {
		return contextutils.WrapError(err, "failed to insert attempt")
	}
	return nil
}

func scanAttempt(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.ExerciseAttempt, error) {
	var a models.ExerciseAttempt
	var exerciseType string
	err := scanner.Scan(
		&a.ID, &a.UserID, &a.ParagraphID, &exerciseType, &a.UserAnswer, &a.CorrectAnswer,
		&a.Score, &a.Feedback, &a.Analysis, &a.TimeSpentSeconds, &a.CompletedAt, &a.PDFGenerated,
	)
	if err != nil {
		return nil, err
	}
	a.ExerciseType = models.ExerciseType(exerciseType)
	return &a, nil
}

// GetAttemptByID retrieves an attempt by its opaque ID
func (s *AttemptService) GetAttemptByID(ctx context.Context, id uuid.UUID) (result0 *models.ExerciseAttempt, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "get_attempt_by_id",
		observability.AttributeAttemptID(id.String()),
	)
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM exercise_attempts WHERE id = $1`, id)
	attempt, err := scanAttempt(row)
	if err == sql.ErrNoRows {
		return nil, contextutils.WrapErrorf(contextutils.ErrAttemptNotFound, "attempt %s not found", id)
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query attempt")
	}
	return attempt, nil
}

// GetRecentAttempts returns the user's most recent attempts, newest first
func (s *AttemptService) GetRecentAttempts(ctx context.Context, userID, limit int) (result0 []models.ExerciseAttempt, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "get_recent_attempts",
		observability.AttributeUserID(userID),
		observability.AttributeLimit(limit),
	)
	defer observability.FinishSpan(span, &err)

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+attemptColumns+` FROM exercise_attempts
		WHERE user_id = $1 ORDER BY completed_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query attempts")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var attempts []models.ExerciseAttempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, contextutils.WrapError(err, "failed to scan attempt row")
		}
		attempts = append(attempts, *attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "attempt row iteration failed")
	}

	return attempts, nil
}

// MarkPDFGenerated flips the incorporated flag on an attempt
func (s *AttemptService) MarkPDFGenerated(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "mark_pdf_generated",
		observability.AttributeAttemptID(id.String()),
	)
	defer observability.FinishSpan(span, &err)

	result, err := s.db.ExecContext(ctx, `
		UPDATE exercise_attempts SET pdf_generated = TRUE WHERE id = $1`, id)
	if err != nil {
		return contextutils.WrapError(err, "failed to mark attempt incorporated")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to read rows affected")
	}
	if rows == 0 {
		return contextutils.WrapErrorf(contextutils.ErrAttemptNotFound, "attempt %s not found", id)
	}
	return nil
}

// CountAttempts returns how many attempts the user has made
func (s *AttemptService) CountAttempts(ctx context.Context, userID int) (result0 int, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "count_attempts",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	var count int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exercise_attempts WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, contextutils.WrapError(err, "failed to count attempts")
	}
	return count, nil
}

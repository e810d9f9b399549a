package services

import (
	"context"
	"database/sql"
	"time"

	"lingotext/internal/models"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// UserService provides user persistence and credential checks
type UserService struct {
	db     *sql.DB
	logger *observability.Logger
}

var _ serviceinterfaces.UserStore = (*UserService)(nil)

// NewUserService creates a new user service
func NewUserService(db *sql.DB, logger *observability.Logger) *UserService {
	return &UserService{db: db, logger: logger}
}

const userColumns = `id, username, email, password_hash, subscription_status, subscription_expiry,
	native_language, target_language, pdf_url, pdf_lesson_count, pdf_updated_at,
	last_exercise_at, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var status string
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &status, &u.SubscriptionExpiry,
		&u.NativeLanguage, &u.TargetLanguage, &u.PDFURL, &u.PDFLessonCount, &u.PDFUpdatedAt,
		&u.LastExerciseAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.SubscriptionStatus = models.SubscriptionStatus(status)
	return &u, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id int) (result0 *models.User, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "get_user_by_id",
		observability.AttributeUserID(id),
	)
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %d not found", id)
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query user")
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (result0 *models.User, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "get_user_by_username",
		attribute.String("username", username),
	)
	defer observability.FinishSpan(span, &err)

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %q not found", username)
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query user")
	}
	return user, nil
}

// CreateUser inserts a new user row
func (s *UserService) CreateUser(ctx context.Context, user *models.User) (result0 *models.User, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "create_user",
		attribute.String("username", user.Username),
	)
	defer observability.FinishSpan(span, &err)

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, subscription_status, native_language, target_language)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		user.Username, user.Email, user.PasswordHash, string(user.SubscriptionStatus),
		user.NativeLanguage, user.TargetLanguage,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert user")
	}

	return user, nil
}

// AuthenticateUser verifies a username/password pair and returns the user
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (result0 *models.User, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "authenticate_user",
		attribute.String("username", username),
	)
	defer observability.FinishSpan(span, &err)

	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			return nil, contextutils.WrapError(contextutils.ErrUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	if !user.PasswordHash.Valid {
		return nil, contextutils.WrapError(contextutils.ErrUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(password)); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrUnauthorized, "invalid credentials")
	}

	return user, nil
}

// HashPassword hashes a plaintext password for storage
func HashPassword(password string) (result0 string, err error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to hash password")
	}
	return string(hash), nil
}

// UpdateLastExerciseAt records when the user last completed an exercise
func (s *UserService) UpdateLastExerciseAt(ctx context.Context, userID int, at time.Time) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "update_last_exercise_at",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET last_exercise_at = $1, updated_at = NOW() WHERE id = $2`,
		at, userID,
	)
	if err != nil {
		return contextutils.WrapError(err, "failed to update last exercise timestamp")
	}
	return nil
}

// UpdatePDFPointer atomically updates the textbook pointer fields
func (s *UserService) UpdatePDFPointer(ctx context.Context, userID int, url string, lessonCount int, updatedAt time.Time) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "update_pdf_pointer",
		observability.AttributeUserID(userID),
		observability.AttributeLessonCount(lessonCount),
	)
	defer observability.FinishSpan(span, &err)

	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET pdf_url = $1, pdf_lesson_count = $2, pdf_updated_at = $3, updated_at = NOW()
		WHERE id = $4`,
		url, lessonCount, updatedAt, userID,
	)
	if err != nil {
		return contextutils.WrapError(err, "failed to update PDF pointer")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to read rows affected")
	}
	if rows == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %d not found", userID)
	}
	return nil
}

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"lingotext/internal/middleware"
	"lingotext/internal/models"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type mockUserStore struct {
	getUserByID func(ctx context.Context, id int) (*models.User, error)
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	if m.getUserByID != nil {
		return m.getUserByID(ctx, id)
	}
	return &models.User{ID: id, Username: "tester", SubscriptionStatus: models.SubscriptionActive}, nil
}

func (m *mockUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return &models.User{ID: 1, Username: username}, nil
}

func (m *mockUserStore) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	return user, nil
}

func (m *mockUserStore) UpdateLastExerciseAt(_ context.Context, _ int, _ time.Time) error {
	return nil
}

func (m *mockUserStore) UpdatePDFPointer(_ context.Context, _ int, _ string, _ int, _ time.Time) error {
	return nil
}

type mockParagraphStore struct {
	getParagraphByID func(ctx context.Context, id int) (*models.Paragraph, error)
}

func (m *mockParagraphStore) GetParagraphByID(ctx context.Context, id int) (*models.Paragraph, error) {
	if m.getParagraphByID != nil {
		return m.getParagraphByID(ctx, id)
	}
	return &models.Paragraph{ID: id, Title: "Test", Content: "Der Hund schläft.", Active: true}, nil
}

func (m *mockParagraphStore) ListActiveParagraphs(_ context.Context, _ models.DifficultyLevel, _ int) ([]models.Paragraph, error) {
	return nil, nil
}

func (m *mockParagraphStore) CreateParagraph(_ context.Context, p *models.Paragraph) (*models.Paragraph, error) {
	return p, nil
}

type mockAttemptStore struct {
	getRecentAttempts func(ctx context.Context, userID, limit int) ([]models.ExerciseAttempt, error)
}

func (m *mockAttemptStore) CreateAttempt(_ context.Context, _ *models.ExerciseAttempt) error {
	return nil
}

func (m *mockAttemptStore) GetAttemptByID(_ context.Context, _ uuid.UUID) (*models.ExerciseAttempt, error) {
	return nil, contextutils.ErrAttemptNotFound
}

func (m *mockAttemptStore) GetRecentAttempts(ctx context.Context, userID, limit int) ([]models.ExerciseAttempt, error) {
	if m.getRecentAttempts != nil {
		return m.getRecentAttempts(ctx, userID, limit)
	}
	return []models.ExerciseAttempt{}, nil
}

func (m *mockAttemptStore) MarkPDFGenerated(_ context.Context, _ uuid.UUID) error {
	return nil
}

func (m *mockAttemptStore) CountAttempts(_ context.Context, _ int) (int, error) {
	return 0, nil
}

type mockPDFJobStore struct{}

func (m *mockPDFJobStore) EnqueueJob(_ context.Context, _ *models.PDFJob) error { return nil }
func (m *mockPDFJobStore) ClaimNextPending(_ context.Context) (*models.PDFJob, error) {
	return nil, nil
}
func (m *mockPDFJobStore) MarkJobDone(_ context.Context, _ uuid.UUID) error { return nil }
func (m *mockPDFJobStore) MarkJobFailed(_ context.Context, _ uuid.UUID, _ string, _ int) error {
	return nil
}
func (m *mockPDFJobStore) RequeueFailedJobs(_ context.Context) (int, error) { return 0, nil }

type mockFeedbackService struct {
	analyzeExercise func(ctx context.Context, req *serviceinterfaces.GradingRequest) (*serviceinterfaces.GradingResult, error)
}

func (m *mockFeedbackService) AnalyzeExercise(ctx context.Context, req *serviceinterfaces.GradingRequest) (*serviceinterfaces.GradingResult, error) {
	if m.analyzeExercise != nil {
		return m.analyzeExercise(ctx, req)
	}
	return &serviceinterfaces.GradingResult{Score: 80, Feedback: "solid"}, nil
}

func (m *mockFeedbackService) IsConfigured() bool { return true }

type mockPDFGenerator struct {
	generateForAttempt func(ctx context.Context, userID int, attemptID uuid.UUID) error

	calls []uuid.UUID
}

func (m *mockPDFGenerator) GenerateForAttempt(ctx context.Context, userID int, attemptID uuid.UUID) error {
	m.calls = append(m.calls, attemptID)
	if m.generateForAttempt != nil {
		return m.generateForAttempt(ctx, userID, attemptID)
	}
	return nil
}

type mockStorageProvider struct {
	configured bool
	signedURL  func(ctx context.Context, userID int, ttl time.Duration) (string, error)
}

func (m *mockStorageProvider) UploadUserPDF(_ context.Context, _ int, _ []byte) (string, error) {
	return "http://storage.local/object", nil
}

func (m *mockStorageProvider) DownloadUserPDF(_ context.Context, _ int) ([]byte, error) {
	return nil, contextutils.ErrPDFNotFound
}

func (m *mockStorageProvider) SignedURL(ctx context.Context, userID int, ttl time.Duration) (string, error) {
	if m.signedURL != nil {
		return m.signedURL(ctx, userID, ttl)
	}
	return "http://storage.local/signed?user=1", nil
}

func (m *mockStorageProvider) IsConfigured() bool { return m.configured }

// setupGinWithSessions builds a test engine with cookie sessions and a
// login helper used to obtain an authenticated session cookie
func setupGinWithSessions() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions("test-session", store))

	r.POST("/test/login", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(middleware.UserIDKey, 1)
		session.Set(middleware.UsernameKey, "tester")
		_ = session.Save()
		c.Status(http.StatusOK)
	})

	return r
}

// loginCookie performs the test login and returns the session cookie header
func loginCookie(r *gin.Engine) string {
	req := httptest.NewRequest(http.MethodPost, "/test/login", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr.Header().Get("Set-Cookie")
}

package services

import (
	"context"
	"time"

	"lingotext/internal/models"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"github.com/google/uuid"
)

// Hand-rolled mocks with overridable function fields. Calls without an
// override return zero values so tests only stub what they care about.

type mockUserStore struct {
	getUserByID          func(ctx context.Context, id int) (*models.User, error)
	updateLastExerciseAt func(ctx context.Context, userID int, at time.Time) error
	updatePDFPointer     func(ctx context.Context, userID int, url string, lessonCount int, updatedAt time.Time) error

	pointerUpdates int
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

func (m *mockUserStore) UpdateLastExerciseAt(ctx context.Context, userID int, at time.Time) error {
	if m.updateLastExerciseAt != nil {
		return m.updateLastExerciseAt(ctx, userID, at)
	}
	return nil
}

func (m *mockUserStore) UpdatePDFPointer(ctx context.Context, userID int, url string, lessonCount int, updatedAt time.Time) error {
	m.pointerUpdates++
	if m.updatePDFPointer != nil {
		return m.updatePDFPointer(ctx, userID, url, lessonCount, updatedAt)
	}
	return nil
}

type mockParagraphStore struct {
	getParagraphByID func(ctx context.Context, id int) (*models.Paragraph, error)
}

func (m *mockParagraphStore) GetParagraphByID(ctx context.Context, id int) (*models.Paragraph, error) {
	if m.getParagraphByID != nil {
		return m.getParagraphByID(ctx, id)
	}
	return &models.Paragraph{ID: id, Title: "Test Paragraph", Content: "Der Hund schläft.", Difficulty: models.DifficultyBeginner, Active: true}, nil
}

func (m *mockParagraphStore) ListActiveParagraphs(_ context.Context, _ models.DifficultyLevel, _ int) ([]models.Paragraph, error) {
	return nil, nil
}

func (m *mockParagraphStore) CreateParagraph(_ context.Context, p *models.Paragraph) (*models.Paragraph, error) {
	return p, nil
}

type mockAttemptStore struct {
	createAttempt    func(ctx context.Context, attempt *models.ExerciseAttempt) error
	getAttemptByID   func(ctx context.Context, id uuid.UUID) (*models.ExerciseAttempt, error)
	markPDFGenerated func(ctx context.Context, id uuid.UUID) error

	created      []*models.ExerciseAttempt
	markedPDFIDs []uuid.UUID
}

func (m *mockAttemptStore) CreateAttempt(ctx context.Context, attempt *models.ExerciseAttempt) error {
	if m.createAttempt != nil {
		return m.createAttempt(ctx, attempt)
	}
	m.created = append(m.created, attempt)
	return nil
}

func (m *mockAttemptStore) GetAttemptByID(ctx context.Context, id uuid.UUID) (*models.ExerciseAttempt, error) {
	if m.getAttemptByID != nil {
		return m.getAttemptByID(ctx, id)
	}
	return nil, contextutils.ErrAttemptNotFound
}

func (m *mockAttemptStore) GetRecentAttempts(_ context.Context, _, _ int) ([]models.ExerciseAttempt, error) {
	return nil, nil
}

func (m *mockAttemptStore) MarkPDFGenerated(ctx context.Context, id uuid.UUID) error {
	if m.markPDFGenerated != nil {
		return m.markPDFGenerated(ctx, id)
	}
	m.markedPDFIDs = append(m.markedPDFIDs, id)
	return nil
}

func (m *mockAttemptStore) CountAttempts(_ context.Context, _ int) (int, error) {
	return len(m.created), nil
}

type mockPDFJobStore struct {
	enqueueJob       func(ctx context.Context, job *models.PDFJob) error
	claimNextPending func(ctx context.Context) (*models.PDFJob, error)
	markJobDone      func(ctx context.Context, id uuid.UUID) error
	markJobFailed    func(ctx context.Context, id uuid.UUID, jobErr string, maxAttempts int) error

	enqueued []*models.PDFJob
}

func (m *mockPDFJobStore) EnqueueJob(ctx context.Context, job *models.PDFJob) error {
	if m.enqueueJob != nil {
		return m.enqueueJob(ctx, job)
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockPDFJobStore) ClaimNextPending(ctx context.Context) (*models.PDFJob, error) {
	if m.claimNextPending != nil {
		return m.claimNextPending(ctx)
	}
	return nil, nil
}

func (m *mockPDFJobStore) MarkJobDone(ctx context.Context, id uuid.UUID) error {
	if m.markJobDone != nil {
		return m.markJobDone(ctx, id)
	}
	return nil
}

func (m *mockPDFJobStore) MarkJobFailed(ctx context.Context, id uuid.UUID, jobErr string, maxAttempts int) error {
	if m.markJobFailed != nil {
		return m.markJobFailed(ctx, id, jobErr, maxAttempts)
	}
	return nil
}

func (m *mockPDFJobStore) RequeueFailedJobs(_ context.Context) (int, error) {
	return 0, nil
}

type mockFeedbackService struct {
	analyzeExercise func(ctx context.Context, req *serviceinterfaces.GradingRequest) (*serviceinterfaces.GradingResult, error)
}

func (m *mockFeedbackService) AnalyzeExercise(ctx context.Context, req *serviceinterfaces.GradingRequest) (*serviceinterfaces.GradingResult, error) {
	if m.analyzeExercise != nil {
		return m.analyzeExercise(ctx, req)
	}
	return &serviceinterfaces.GradingResult{Score: 80, Feedback: "solid"}, nil
}

func (m *mockFeedbackService) IsConfigured() bool {
	return true
}

type mockStorageProvider struct {
	configured      bool
	uploadUserPDF   func(ctx context.Context, userID int, data []byte) (string, error)
	downloadUserPDF func(ctx context.Context, userID int) ([]byte, error)

	uploads [][]byte
}

func (m *mockStorageProvider) UploadUserPDF(ctx context.Context, userID int, data []byte) (string, error) {
	if m.uploadUserPDF != nil {
		return m.uploadUserPDF(ctx, userID, data)
	}
	m.uploads = append(m.uploads, data)
	return "http://storage.local/pdfs/1/learning-textbook.pdf", nil
}

func (m *mockStorageProvider) DownloadUserPDF(ctx context.Context, userID int) ([]byte, error) {
	if m.downloadUserPDF != nil {
		return m.downloadUserPDF(ctx, userID)
	}
	return nil, contextutils.ErrPDFNotFound
}

func (m *mockStorageProvider) SignedURL(_ context.Context, _ int, _ time.Duration) (string, error) {
	return "http://storage.local/signed", nil
}

func (m *mockStorageProvider) IsConfigured() bool {
	return m.configured
}

type mockRasterizer struct {
	renderHTML func(ctx context.Context, html string) ([]byte, error)

	rendered []string
}

func (m *mockRasterizer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	m.rendered = append(m.rendered, html)
	if m.renderHTML != nil {
		return m.renderHTML(ctx, html)
	}
	return []byte("%PDF-1.4 fake"), nil
}

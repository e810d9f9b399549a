package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"lingotext/internal/config"
	"lingotext/internal/middleware"
	"lingotext/internal/models"
	"lingotext/internal/observability"
	contextutils "lingotext/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pdfHandlerFixture struct {
	users     *mockUserStore
	generator *mockPDFGenerator
	storage   *mockStorageProvider
}

func setupPDFRoutes(f *pdfHandlerFixture) *gin.Engine {
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	handler := NewPDFHandler(f.generator, f.storage, f.users, logger)

	r := setupGinWithSessions()
	group := r.Group("/v1/pdf")
	{
		group.POST("/generate", handler.GeneratePDF)
		group.GET("/download", middleware.RequireAuth(), middleware.RequireActiveSubscription(f.users), handler.DownloadPDF)
	}
	return r
}

func defaultPDFFixture() *pdfHandlerFixture {
	return &pdfHandlerFixture{
		users:     &mockUserStore{},
		generator: &mockPDFGenerator{},
		storage:   &mockStorageProvider{configured: true},
	}
}

func TestGeneratePDF_InvalidBody(t *testing.T) {
	r := setupPDFRoutes(defaultPDFFixture())

	rr := doJSON(r, http.MethodPost, "/v1/pdf/generate", `{"user_id":1}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGeneratePDF_InvalidAttemptID(t *testing.T) {
	r := setupPDFRoutes(defaultPDFFixture())

	rr := doJSON(r, http.MethodPost, "/v1/pdf/generate", `{"user_id":1,"attempt_id":"not-a-uuid"}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "attempt_id")
}

func TestGeneratePDF_Success(t *testing.T) {
	f := defaultPDFFixture()
	r := setupPDFRoutes(f)

	attemptID := uuid.New()
	body := fmt.Sprintf(`{"user_id":1,"attempt_id":"%s"}`, attemptID)

	rr := doJSON(r, http.MethodPost, "/v1/pdf/generate", body, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []uuid.UUID{attemptID}, f.generator.calls)
}

func TestGeneratePDF_AttemptNotFound(t *testing.T) {
	f := defaultPDFFixture()
	f.generator.generateForAttempt = func(_ context.Context, _ int, _ uuid.UUID) error {
		return contextutils.ErrAttemptNotFound
	}
	r := setupPDFRoutes(f)

	body := fmt.Sprintf(`{"user_id":1,"attempt_id":"%s"}`, uuid.New())
	rr := doJSON(r, http.MethodPost, "/v1/pdf/generate", body, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "ATTEMPT_NOT_FOUND")
}

func TestDownloadPDF_RequiresAuth(t *testing.T) {
	r := setupPDFRoutes(defaultPDFFixture())

	rr := doJSON(r, http.MethodGet, "/v1/pdf/download", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDownloadPDF_StorageNotConfigured(t *testing.T) {
	f := defaultPDFFixture()
	f.storage.configured = false
	r := setupPDFRoutes(f)
	cookie := loginCookie(r)

	rr := doJSON(r, http.MethodGet, "/v1/pdf/download", "", cookie)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "STORAGE_NOT_CONFIGURED")
}

func TestDownloadPDF_NoTextbookYet(t *testing.T) {
	r := setupPDFRoutes(defaultPDFFixture())
	cookie := loginCookie(r)

	// Default user has no lessons incorporated yet
	rr := doJSON(r, http.MethodGet, "/v1/pdf/download", "", cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "PDF_NOT_FOUND")
}

func TestDownloadPDF_Success(t *testing.T) {
	f := defaultPDFFixture()
	updatedAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	f.users.getUserByID = func(_ context.Context, id int) (*models.User, error) {
		return &models.User{
			ID:                 id,
			Username:           "tester",
			SubscriptionStatus: models.SubscriptionActive,
			PDFLessonCount:     7,
			PDFURL:             sql.NullString{String: "http://storage.local/pdfs/1/learning-textbook.pdf", Valid: true},
			PDFUpdatedAt:       sql.NullTime{Time: updatedAt, Valid: true},
		}, nil
	}
	var gotTTL time.Duration
	f.storage.signedURL = func(_ context.Context, _ int, ttl time.Duration) (string, error) {
		gotTTL = ttl
		return "http://storage.local/signed?user=1", nil
	}
	r := setupPDFRoutes(f)
	cookie := loginCookie(r)

	rr := doJSON(r, http.MethodGet, "/v1/pdf/download", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp DownloadPDFResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "http://storage.local/signed?user=1", resp.URL)
	assert.Equal(t, 7, resp.LessonCount)
	assert.Equal(t, "2025-03-14T09:30:00Z", resp.UpdatedAt)
	assert.Equal(t, config.SignedURLTTL, gotTTL)
}

func TestDownloadPDF_SignedURLFailure(t *testing.T) {
	f := defaultPDFFixture()
	f.users.getUserByID = func(_ context.Context, id int) (*models.User, error) {
		return &models.User{
			ID:                 id,
			Username:           "tester",
			SubscriptionStatus: models.SubscriptionActive,
			PDFLessonCount:     1,
			PDFURL:             sql.NullString{String: "http://storage.local/obj", Valid: true},
		}, nil
	}
	f.storage.signedURL = func(_ context.Context, _ int, _ time.Duration) (string, error) {
		return "", contextutils.ErrStorageDownloadFailed
	}
	r := setupPDFRoutes(f)
	cookie := loginCookie(r)

	rr := doJSON(r, http.MethodGet, "/v1/pdf/download", "", cookie)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lingotext/internal/config"
	"lingotext/internal/middleware"
	"lingotext/internal/models"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	"lingotext/internal/services"
	contextutils "lingotext/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exerciseTestDeps struct {
	users      *mockUserStore
	paragraphs *mockParagraphStore
	attempts   *mockAttemptStore
	feedback   *mockFeedbackService
}

func setupExerciseRoutes(deps *exerciseTestDeps) *gin.Engine {
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})

	submissions := services.NewSubmissionService(
		deps.users, deps.paragraphs, deps.attempts, &mockPDFJobStore{}, deps.feedback, logger,
	)
	handler := NewExerciseHandler(submissions, deps.paragraphs, deps.attempts, logger)

	r := setupGinWithSessions()
	group := r.Group("/v1/exercises")
	group.Use(middleware.RequireAuth(), middleware.RequireActiveSubscription(deps.users))
	{
		group.POST("/submit", handler.SubmitExercise)
		group.GET("/history", handler.GetHistory)
		group.GET("/:id", handler.GetParagraph)
	}
	return r
}

func defaultExerciseDeps() *exerciseTestDeps {
	return &exerciseTestDeps{
		users:      &mockUserStore{},
		paragraphs: &mockParagraphStore{},
		attempts:   &mockAttemptStore{},
		feedback:   &mockFeedbackService{},
	}
}

func doJSON(r *gin.Engine, method, path, body, cookie string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestSubmitExercise_RequiresAuth(t *testing.T) {
	r := setupExerciseRoutes(defaultExerciseDeps())

	rr := doJSON(r, http.MethodPost, "/v1/exercises/submit", `{"paragraph_id":1,"exercise_type":"translation","answer":"x"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "UNAUTHORIZED")
}

func TestSubmitExercise_RequiresActiveSubscription(t *testing.T) {
	deps := defaultExerciseDeps()
	deps.users.getUserByID = func(_ context.Context, id int) (*models.User, error) {
		return &models.User{ID: id, Username: "tester", SubscriptionStatus: models.SubscriptionInactive}, nil
	}
	r := setupExerciseRoutes(deps)
	cookie := loginCookie(r)

	rr := doJSON(r, http.MethodPost, "/v1/exercises/submit", `{"paragraph_id":1,"exercise_type":"translation","answer":"x"}`, cookie)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "SUBSCRIPTION_INACTIVE")
}

func TestSubmitExercise_InvalidBody(t *testing.T) {
	r := setupExerciseRoutes(defaultExerciseDeps())
	cookie := loginCookie(r)

	rr := doJSON(r, http.MethodPost, "/v1/exercises/submit", `{"answer":"x"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitExercise_EmptyAnswer(t *testing.T) {
	r := setupExerciseRoutes(defaultExerciseDeps())
	cookie := loginCookie(r)

	rr := doJSON(r, http.MethodPost, "/v1/exercises/submit", `{"paragraph_id":1,"exercise_type":"translation","answer":"   "}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "EMPTY_ANSWER")
}

func TestSubmitExercise_Success(t *testing.T) {
	deps := defaultExerciseDeps()
	deps.feedback.analyzeExercise = func(_ context.Context, _ *serviceinterfaces.GradingRequest) (*serviceinterfaces.GradingResult, error) {
		return &serviceinterfaces.GradingResult{Score: 91, Feedback: "Excellent"}, nil
	}
	r := setupExerciseRoutes(deps)
	cookie := loginCookie(r)

	rr := doJSON(r, http.MethodPost, "/v1/exercises/submit", `{"paragraph_id":1,"exercise_type":"translation","answer":"The dog sleeps."}`, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SubmitExerciseResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 91, resp.Score)
	assert.Equal(t, "Excellent", resp.Feedback)
	assert.True(t, resp.Completed)
	assert.NotEmpty(t, resp.AttemptID)
}

func TestSubmitExercise_GradingFailureStillSucceeds(t *testing.T) {
	deps := defaultExerciseDeps()
	deps.feedback.analyzeExercise = func(_ context.Context, _ *serviceinterfaces.GradingRequest) (*serviceinterfaces.GradingResult, error) {
		return nil, contextutils.ErrAIRequestFailed
	}
	r := setupExerciseRoutes(deps)
	cookie := loginCookie(r)

	rr := doJSON(r, http.MethodPost, "/v1/exercises/submit", `{"paragraph_id":1,"exercise_type":"translation","answer":"The dog sleeps."}`, cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SubmitExerciseResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, config.FallbackScore, resp.Score)
	assert.False(t, resp.Completed)
}

func TestGetParagraph(t *testing.T) {
	r := setupExerciseRoutes(defaultExerciseDeps())
	cookie := loginCookie(r)

	t.Run("invalid id", func(t *testing.T) {
		rr := doJSON(r, http.MethodGet, "/v1/exercises/abc", "", cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("found", func(t *testing.T) {
		rr := doJSON(r, http.MethodGet, "/v1/exercises/7", "", cookie)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Der Hund")
	})
}

func TestGetParagraph_NotFound(t *testing.T) {
	deps := defaultExerciseDeps()
	deps.paragraphs.getParagraphByID = func(_ context.Context, _ int) (*models.Paragraph, error) {
		return nil, contextutils.ErrParagraphNotFound
	}
	r := setupExerciseRoutes(deps)
	cookie := loginCookie(r)

	rr := doJSON(r, http.MethodGet, "/v1/exercises/7", "", cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "PARAGRAPH_NOT_FOUND")
}

func TestGetHistory(t *testing.T) {
	deps := defaultExerciseDeps()
	var gotLimit int
	deps.attempts.getRecentAttempts = func(_ context.Context, _, limit int) ([]models.ExerciseAttempt, error) {
		gotLimit = limit
		return []models.ExerciseAttempt{}, nil
	}
	r := setupExerciseRoutes(deps)
	cookie := loginCookie(r)

	t.Run("default limit", func(t *testing.T) {
		rr := doJSON(r, http.MethodGet, "/v1/exercises/history", "", cookie)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 20, gotLimit)
		assert.Contains(t, rr.Body.String(), `"count":0`)
	})

	t.Run("explicit limit", func(t *testing.T) {
		rr := doJSON(r, http.MethodGet, "/v1/exercises/history?limit=5", "", cookie)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 5, gotLimit)
	})

	t.Run("invalid limit", func(t *testing.T) {
		rr := doJSON(r, http.MethodGet, "/v1/exercises/history?limit=zero", "", cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

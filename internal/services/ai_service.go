// Package services contains the business logic for grading, translation,
// textbook generation and persistence.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lingotext/internal/config"
	"lingotext/internal/models"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Message represents a chat message in the OpenAI-compatible API
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIRequest is the request body for the chat completions endpoint
type OpenAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// OpenAIResponse is the response body from the chat completions endpoint
type OpenAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// AIService talks to an OpenAI-compatible chat API to grade exercises and
// translate text. It implements both serviceinterfaces.FeedbackService and
// serviceinterfaces.TranslationService.
type AIService struct {
	cfg             *config.Config
	logger          *observability.Logger
	httpClient      *http.Client
	templateManager *AITemplateManager

	// initialBackoff seeds the doubling retry delay; tests shrink it
	initialBackoff time.Duration
}

// Ensure AIService satisfies the service interfaces
var (
	_ serviceinterfaces.FeedbackService    = (*AIService)(nil)
	_ serviceinterfaces.TranslationService = (*AIService)(nil)
)

// NewAIService creates a new AI service with an instrumented HTTP client
func NewAIService(cfg *config.Config, logger *observability.Logger) *AIService {
	templateManager, err := NewAITemplateManager()
	if err != nil {
		logger.Error(context.Background(), "Failed to create template manager", err, map[string]interface{}{})
		panic(err)
	}

	httpClient := &http.Client{
		Timeout: config.DefaultHTTPTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}

	return &AIService{
		cfg:             cfg,
		logger:          logger,
		httpClient:      httpClient,
		templateManager: templateManager,
		initialBackoff:  config.AIInitialBackoff,
	}
}

// IsConfigured returns whether AI credentials are present
func (s *AIService) IsConfigured() bool {
	return s.cfg.AI.IsConfigured() && s.cfg.AI.URL != ""
}

// AnalyzeExercise grades an attempt and returns structured feedback.
//
// Transport failures (after retries) are returned to the caller. Unusable
// model output — no JSON object, schema violation — is not an error: the
// deterministic fallback result is returned so a submission never fails on
// account of a confused model.
func (s *AIService) AnalyzeExercise(ctx context.Context, req *serviceinterfaces.GradingRequest) (result0 *serviceinterfaces.GradingResult, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "analyze_exercise",
		observability.AttributeExerciseType(req.ExerciseType),
		attribute.Int("answer.length", len(req.UserAnswer)),
	)
	defer observability.FinishSpan(span, &err)

	if !s.IsConfigured() {
		return nil, contextutils.WrapError(contextutils.ErrAINotConfigured, "cannot grade exercise")
	}

	prompt, err := s.templateManager.RenderGradingPrompt(req)
	if err != nil {
		return nil, err
	}

	content, err := s.callChatWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result, parseErr := s.parseGradingResponse(content)
	if parseErr != nil {
		s.logger.Warn(ctx, "Unusable grading response, using fallback", map[string]interface{}{
			"error":          parseErr.Error(),
			"content_length": len(content),
		})
		span.SetAttributes(attribute.Bool("grading.fallback", true))
		return FallbackGradingResult(), nil
	}

	span.SetAttributes(observability.AttributeScore(result.Score))
	return result, nil
}

// Translate translates text between languages and returns the plain result
func (s *AIService) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (result0 string, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "translate",
		attribute.String("source_language", sourceLanguage),
		attribute.String("target_language", targetLanguage),
		attribute.Int("text.length", len(text)),
	)
	defer observability.FinishSpan(span, &err)

	if !s.IsConfigured() {
		return "", contextutils.WrapError(contextutils.ErrAINotConfigured, "cannot translate text")
	}

	prompt, err := s.templateManager.RenderTranslationPrompt(text, sourceLanguage, targetLanguage)
	if err != nil {
		return "", err
	}

	content, err := s.callChatWithRetry(ctx, prompt)
	if err != nil {
		return "", err
	}

	translated := strings.TrimSpace(stripCodeFences(content))
	if translated == "" {
		return "", contextutils.WrapError(contextutils.ErrEmptyTranslation, "model returned no translation")
	}

	return translated, nil
}

// callChatWithRetry calls the chat API, retrying with doubling backoff only
// when the failure is classified as a rate-limit or quota condition.
func (s *AIService) callChatWithRetry(ctx context.Context, prompt string) (result0 string, err error) {
	backoff := s.initialBackoff

	for attempt := 0; ; attempt++ {
		content, err := s.callChat(ctx, prompt)
		if err == nil {
			return content, nil
		}

		if !contextutils.IsRetryable(err) || attempt >= config.AIMaxRetries {
			return "", err
		}

		s.logger.Warn(ctx, "AI request throttled, backing off", map[string]interface{}{
			"attempt": attempt + 1,
			"backoff": backoff.String(),
			"error":   err.Error(),
		})

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", contextutils.WrapError(ctx.Err(), "context canceled during AI retry backoff")
		}
		backoff *= 2
	}
}

// callChat makes a single request to the OpenAI-compatible chat API
func (s *AIService) callChat(ctx context.Context, prompt string) (result0 string, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "call_chat",
		attribute.String("ai.model", s.cfg.AI.Model),
		attribute.Int("prompt.length", len(prompt)),
	)
	defer observability.FinishSpan(span, &err)

	reqCtx, cancel := context.WithTimeout(ctx, config.AIRequestTimeout)
	defer cancel()

	reqBody := OpenAIRequest{
		Model:       s.cfg.AI.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: 0.3,
		MaxTokens:   s.cfg.AI.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to marshal request body")
	}

	url := strings.TrimSuffix(s.cfg.AI.URL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", contextutils.WrapError(err, "failed to create HTTP request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "lingotext/1.0")
	req.Header.Set("Authorization", "Bearer "+s.cfg.AI.APIKey)

	startTime := time.Now()
	resp, err := s.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return "", contextutils.WrapErrorf(contextutils.ErrTimeout, "AI request timed out after %v", duration)
		}
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "HTTP request failed after %v: %w", duration, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to read response body")
	}

	span.SetAttributes(attribute.Int("status_code", resp.StatusCode), attribute.String("duration", duration.String()))

	if resp.StatusCode != http.StatusOK {
		return "", classifyUpstreamFailure(resp.StatusCode, string(body))
	}

	var openAIResp OpenAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to parse AI response as JSON: %w", err)
	}

	if openAIResp.Error != nil {
		return "", classifyUpstreamFailure(resp.StatusCode, openAIResp.Error.Message)
	}

	if len(openAIResp.Choices) == 0 || openAIResp.Choices[0].Message.Content == "" {
		return "", contextutils.WrapError(contextutils.ErrAIResponseInvalid, "AI returned no content")
	}

	return openAIResp.Choices[0].Message.Content, nil
}

// classifyUpstreamFailure maps an upstream HTTP failure onto the typed error
// taxonomy. This is the only place where upstream bodies are sniffed for
// capacity keywords; everything downstream branches on the error code alone.
// Unknown failures are non-retryable.
func classifyUpstreamFailure(statusCode int, body string) error {
	lower := strings.ToLower(body)
	switch {
	case statusCode == http.StatusTooManyRequests:
		return contextutils.WrapErrorf(contextutils.ErrRateLimit, "upstream returned 429: %s", body)
	case strings.Contains(lower, "quota"):
		return contextutils.WrapErrorf(contextutils.ErrQuotaExceeded, "upstream quota exhausted: %s", body)
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "429"):
		return contextutils.WrapErrorf(contextutils.ErrRateLimit, "upstream rate limited: %s", body)
	default:
		return contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "upstream request failed with status %d: %s", statusCode, body)
	}
}

// defaultFeedback stands in when the model omits the overall assessment.
const defaultFeedback = "Your answer has been graded. Review the original text and keep practicing."

// parseGradingResponse extracts and validates the grading JSON from model
// output. Only the score is mandatory: missing feedback gets a generic
// default and mistyped list fields collapse to empty, so a sparse payload
// still carries the model's real score instead of tripping the fallback.
func (s *AIService) parseGradingResponse(content string) (result0 *serviceinterfaces.GradingResult, err error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, "no JSON object found in model output")
	}

	validation, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(gradingSchema),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, "schema validation errored")
	}
	if !validation.Valid() {
		msgs := make([]string, 0, len(validation.Errors()))
		for _, e := range validation.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "grading payload failed schema validation: %s", strings.Join(msgs, "; "))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to unmarshal grading payload: %w", err)
	}

	var rawScore interface{}
	if err := json.Unmarshal(fields["score"], &rawScore); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, "score is not a number")
	}
	score, ok := coerceScore(rawScore)
	if !ok {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, "score is not a number")
	}

	feedback := decodeString(fields["feedback"])
	if strings.TrimSpace(feedback) == "" {
		feedback = defaultFeedback
	}

	return &serviceinterfaces.GradingResult{
		Score:    ClampScore(score),
		Feedback: feedback,
		Analysis: models.AIAnalysis{
			Strengths:        decodeList[string](fields["strengths"]),
			Improvements:     decodeList[string](fields["improvements"]),
			Suggestions:      decodeList[string](fields["suggestions"]),
			CorrectedVersion: decodeString(fields["corrected_version"]),
			GrammarMistakes:  decodeList[models.GrammarMistake](fields["grammar_mistakes"]),
			Tenses:           decodeList[string](fields["tenses"]),
			KeyVocabulary:    decodeList[models.VocabularyItem](fields["key_vocabulary"]),
		},
	}, nil
}

// decodeString returns "" when the field is absent or not a string
func decodeString(raw json.RawMessage) string {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// decodeList returns nil when the field is absent or not an array of the
// expected element shape
func decodeList[T any](raw json.RawMessage) []T {
	var list []T
	if raw == nil || json.Unmarshal(raw, &list) != nil {
		return nil
	}
	return list
}

// coerceScore accepts the number-or-string score shapes models produce
func coerceScore(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}

// ClampScore bounds a score to the valid [0, 100] range
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// FallbackGradingResult is the deterministic result used when AI grading is
// unavailable or its output is unusable. The submission still succeeds.
func FallbackGradingResult() *serviceinterfaces.GradingResult {
	return &serviceinterfaces.GradingResult{
		Score:    config.FallbackScore,
		Feedback: "Automatic feedback is temporarily unavailable. Your answer has been saved and will count toward your textbook.",
		Analysis: models.AIAnalysis{
			Strengths:    []string{"You completed the exercise"},
			Improvements: []string{"Detailed feedback could not be generated this time"},
			Suggestions:  []string{"Review your answer against the original text and try another exercise"},
		},
		Fallback: true,
	}
}

// extractJSONObject returns the first balanced top-level JSON object in s,
// tolerating surrounding prose and markdown fences. Returns "" when none.
func extractJSONObject(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if start == -1 {
			if r == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}

// stripCodeFences removes a surrounding markdown code fence, if any
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx != -1 {
		// Drop the language tag line
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

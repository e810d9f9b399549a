// Package serviceinterfaces defines service interfaces for dependency injection and testing.
package serviceinterfaces

import (
	"context"

	"lingotext/internal/models"
)

// GradingRequest carries everything the feedback model needs to grade an attempt
type GradingRequest struct {
	ExerciseType   models.ExerciseType `json:"exercise_type"`
	OriginalText   string              `json:"original_text"`
	UserAnswer     string              `json:"user_answer"`
	CorrectAnswer  string              `json:"correct_answer,omitempty"`
	NativeLanguage string              `json:"native_language,omitempty"`
	TargetLanguage string              `json:"target_language,omitempty"`
}

// GradingResult is the normalized outcome of grading one attempt
type GradingResult struct {
	Score    int               `json:"score"`
	Feedback string            `json:"feedback"`
	Analysis models.AIAnalysis `json:"analysis"`
	// Fallback is true when the result was synthesized locally because the
	// model was unavailable or returned unusable output.
	Fallback bool `json:"fallback"`
}

// FeedbackService defines the interface for AI grading of exercise attempts
type FeedbackService interface {
	// AnalyzeExercise grades an attempt and returns structured feedback.
	// Implementations must return ErrAINotConfigured when no credentials
	// are present; callers decide whether to fall back.
	AnalyzeExercise(ctx context.Context, req *GradingRequest) (*GradingResult, error)

	// IsConfigured returns whether AI credentials are present
	IsConfigured() bool
}

// TranslationService defines the interface for AI text translation
type TranslationService interface {
	// Translate translates text between the given languages and returns
	// the plain translated text. An empty translation is an error.
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error)
}

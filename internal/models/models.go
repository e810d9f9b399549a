// Package models defines data structures used throughout the lingotext application.
package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	contextutils "lingotext/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ExerciseType identifies the kind of exercise an attempt was made against
type ExerciseType string

// Supported exercise types
const (
	ExerciseTranslation   ExerciseType = "translation"
	ExerciseGapFill       ExerciseType = "gap_fill"
	ExerciseRewrite       ExerciseType = "rewrite"
	ExerciseComprehension ExerciseType = "comprehension"
)

// Valid reports whether t is one of the supported exercise types
func (t ExerciseType) Valid() bool {
	switch t {
	case ExerciseTranslation, ExerciseGapFill, ExerciseRewrite, ExerciseComprehension:
		return true
	}
	return false
}

// DifficultyLevel identifies a paragraph's difficulty
type DifficultyLevel string

// Supported difficulty levels
const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

// SubscriptionStatus identifies a user's subscription state
type SubscriptionStatus string

// Supported subscription states
const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// PDFJobStatus identifies the processing state of a queued PDF job
type PDFJobStatus string

// PDF job states
const (
	PDFJobPending    PDFJobStatus = "pending"
	PDFJobProcessing PDFJobStatus = "processing"
	PDFJobDone       PDFJobStatus = "done"
	PDFJobFailed     PDFJobStatus = "failed"
)

// User represents a user in the system
type User struct {
	ID                 int                `json:"id" yaml:"id"`
	Username           string             `json:"username" yaml:"username"`
	Email              sql.NullString     `json:"email" yaml:"email"`
	PasswordHash       sql.NullString     `json:"-" yaml:"-"` // Omit from JSON responses
	SubscriptionStatus SubscriptionStatus `json:"subscription_status" yaml:"subscription_status"`
	SubscriptionExpiry sql.NullTime       `json:"subscription_expiry" yaml:"subscription_expiry"`
	NativeLanguage     sql.NullString     `json:"native_language" yaml:"native_language"`
	TargetLanguage     sql.NullString     `json:"target_language" yaml:"target_language"`
	PDFURL             sql.NullString     `json:"pdf_url" yaml:"pdf_url"`
	PDFLessonCount     int                `json:"pdf_lesson_count" yaml:"pdf_lesson_count"`
	PDFUpdatedAt       sql.NullTime       `json:"pdf_updated_at" yaml:"pdf_updated_at"`
	LastExerciseAt     sql.NullTime       `json:"last_exercise_at" yaml:"last_exercise_at"`
	CreatedAt          time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" yaml:"updated_at"`
}

// HasActiveSubscription reports whether the user may use subscriber features
func (u *User) HasActiveSubscription(now time.Time) bool {
	if u.SubscriptionStatus != SubscriptionActive {
		return false
	}
	if u.SubscriptionExpiry.Valid && u.SubscriptionExpiry.Time.Before(now) {
		return false
	}
	return true
}

// MarshalJSON customizes JSON marshaling for User to handle sql.NullString and sql.NullTime properly
func (u User) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID                 int                `json:"id"`
		Username           string             `json:"username"`
		Email              *string            `json:"email"`
		SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
		SubscriptionExpiry *time.Time         `json:"subscription_expiry"`
		NativeLanguage     *string            `json:"native_language"`
		TargetLanguage     *string            `json:"target_language"`
		PDFURL             *string            `json:"pdf_url"`
		PDFLessonCount     int                `json:"pdf_lesson_count"`
		PDFUpdatedAt       *time.Time         `json:"pdf_updated_at"`
		LastExerciseAt     *time.Time         `json:"last_exercise_at"`
		CreatedAt          time.Time          `json:"created_at"`
		UpdatedAt          time.Time          `json:"updated_at"`
	}{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              nullStringToPointer(u.Email),
		SubscriptionStatus: u.SubscriptionStatus,
		SubscriptionExpiry: nullTimeToPointer(u.SubscriptionExpiry),
		NativeLanguage:     nullStringToPointer(u.NativeLanguage),
		TargetLanguage:     nullStringToPointer(u.TargetLanguage),
		PDFURL:             nullStringToPointer(u.PDFURL),
		PDFLessonCount:     u.PDFLessonCount,
		PDFUpdatedAt:       nullTimeToPointer(u.PDFUpdatedAt),
		LastExerciseAt:     nullTimeToPointer(u.LastExerciseAt),
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	})
}

// Helper functions for converting sql.Null types to pointers
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func nullTimeToPointer(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

func nullInt32ToPointer(ni sql.NullInt32) *int32 {
	if ni.Valid {
		return &ni.Int32
	}
	return nil
}

// Paragraph represents a source text users practice against
type Paragraph struct {
	ID         int             `json:"id" yaml:"id"`
	Title      string          `json:"title" yaml:"title"`
	Content    string          `json:"content" yaml:"content"`
	Difficulty DifficultyLevel `json:"difficulty" yaml:"difficulty"`
	Topics     pq.StringArray  `json:"topics" yaml:"topics"`
	Language   string          `json:"language" yaml:"language"`
	Active     bool            `json:"active" yaml:"active"`
	CreatedAt  time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" yaml:"updated_at"`
}

// GrammarMistake is a single identified mistake with its correction
type GrammarMistake struct {
	Mistake     string `json:"mistake"`
	Correction  string `json:"correction"`
	Explanation string `json:"explanation"`
}

// VocabularyItem is a key word or phrase extracted from the exercise
type VocabularyItem struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Example    string `json:"example,omitempty"`
}

// AIAnalysis is the structured feedback produced by the grading model
type AIAnalysis struct {
	Strengths        []string         `json:"strengths"`
	Improvements     []string         `json:"improvements"`
	Suggestions      []string         `json:"suggestions"`
	CorrectedVersion string           `json:"corrected_version,omitempty"`
	GrammarMistakes  []GrammarMistake `json:"grammar_mistakes,omitempty"`
	Tenses           []string         `json:"tenses,omitempty"`
	KeyVocabulary    []VocabularyItem `json:"key_vocabulary,omitempty"`
}

// Value implements driver.Valuer so AIAnalysis is stored as JSONB
func (a AIAnalysis) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for reading JSONB columns
func (a *AIAnalysis) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = AIAnalysis{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}
	return contextutils.ErrorWithContextf("unsupported scan type for AIAnalysis: %T", src)
}

// ExerciseAttempt represents one graded submission of an exercise
type ExerciseAttempt struct {
	ID               uuid.UUID      `json:"id" yaml:"id"`
	UserID           int            `json:"user_id" yaml:"user_id"`
	ParagraphID      int            `json:"paragraph_id" yaml:"paragraph_id"`
	ExerciseType     ExerciseType   `json:"exercise_type" yaml:"exercise_type"`
	UserAnswer       string         `json:"user_answer" yaml:"user_answer"`
	CorrectAnswer    sql.NullString `json:"correct_answer" yaml:"correct_answer"`
	Score            int            `json:"score" yaml:"score"`
	Feedback         string         `json:"feedback" yaml:"feedback"`
	Analysis         AIAnalysis     `json:"analysis" yaml:"analysis"`
	TimeSpentSeconds sql.NullInt32  `json:"time_spent_seconds" yaml:"time_spent_seconds"`
	CompletedAt      time.Time      `json:"completed_at" yaml:"completed_at"`
	PDFGenerated     bool           `json:"pdf_generated" yaml:"pdf_generated"`
}

// MarshalJSON customizes JSON marshaling for ExerciseAttempt to handle sql.Null types properly
func (ea ExerciseAttempt) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID               uuid.UUID    `json:"id"`
		UserID           int          `json:"user_id"`
		ParagraphID      int          `json:"paragraph_id"`
		ExerciseType     ExerciseType `json:"exercise_type"`
		UserAnswer       string       `json:"user_answer"`
		CorrectAnswer    *string      `json:"correct_answer"`
		Score            int          `json:"score"`
		Feedback         string       `json:"feedback"`
		Analysis         AIAnalysis   `json:"analysis"`
		TimeSpentSeconds *int32       `json:"time_spent_seconds"`
		CompletedAt      time.Time    `json:"completed_at"`
		PDFGenerated     bool         `json:"pdf_generated"`
	}{
		ID:               ea.ID,
		UserID:           ea.UserID,
		ParagraphID:      ea.ParagraphID,
		ExerciseType:     ea.ExerciseType,
		UserAnswer:       ea.UserAnswer,
		CorrectAnswer:    nullStringToPointer(ea.CorrectAnswer),
		Score:            ea.Score,
		Feedback:         ea.Feedback,
		Analysis:         ea.Analysis,
		TimeSpentSeconds: nullInt32ToPointer(ea.TimeSpentSeconds),
		CompletedAt:      ea.CompletedAt,
		PDFGenerated:     ea.PDFGenerated,
	})
}

// LessonData is the transient projection rendered into one textbook lesson
type LessonData struct {
	LessonNumber     int
	Title            string
	OriginalText     string
	UserTranslation  string
	CorrectedVersion string
	Score            int
	CompletedAt      time.Time
	Difficulty       DifficultyLevel
	Topics           []string
	Strengths        []string
	Improvements     []string
	Suggestions      []string
	GrammarMistakes  []GrammarMistake
	Tenses           []string
	KeyVocabulary    []VocabularyItem
}

// PDFJob is one queued request to fold an attempt into a user's textbook
type PDFJob struct {
	ID        uuid.UUID      `json:"id" yaml:"id"`
	UserID    int            `json:"user_id" yaml:"user_id"`
	AttemptID uuid.UUID      `json:"attempt_id" yaml:"attempt_id"`
	Status    PDFJobStatus   `json:"status" yaml:"status"`
	Attempts  int            `json:"attempts" yaml:"attempts"`
	LastError sql.NullString `json:"last_error" yaml:"last_error"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
}

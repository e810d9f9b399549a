package services

import (
	"testing"
	"time"

	"lingotext/internal/models"
	contextutils "lingotext/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLesson() *models.LessonData {
	return &models.LessonData{
		LessonNumber:     3,
		Title:            "A Morning in Berlin",
		OriginalText:     "Der Hund schläft.\nDie Katze spielt.",
		UserTranslation:  "The dog sleeps.\nThe cat plays.",
		CorrectedVersion: "The dog is sleeping.\nThe cat is playing.",
		Score:            85,
		CompletedAt:      time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC),
		Difficulty:       models.DifficultyIntermediate,
		Topics:           []string{"animals", "daily life"},
		Strengths:        []string{"Accurate vocabulary"},
		Improvements:     []string{"Use progressive tense"},
	}
}

func TestScoreColor(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{100, "#27ae60"},
		{90, "#27ae60"},
		{89, "#f39c12"},
		{70, "#f39c12"},
		{69, "#e67e22"},
		{50, "#e67e22"},
		{49, "#e74c3c"},
		{0, "#e74c3c"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ScoreColor(tt.score), "score %d", tt.score)
	}
}

func TestRenderLessonHTML(t *testing.T) {
	html, err := RenderLessonHTML(testLesson())
	require.NoError(t, err)

	assert.Contains(t, html, "Lesson 3")
	assert.Contains(t, html, "A Morning in Berlin")
	assert.Contains(t, html, "85 / 100")
	assert.Contains(t, html, "#f39c12")
	assert.Contains(t, html, "animals, daily life")
	assert.Contains(t, html, "June 12, 2025")
	assert.Contains(t, html, "Accurate vocabulary")
}

func TestRenderLessonHTML_NilLesson(t *testing.T) {
	_, err := RenderLessonHTML(nil)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}

func TestRenderLessonHTML_EscapesUserText(t *testing.T) {
	lesson := testLesson()
	lesson.UserTranslation = `<script>alert("xss")</script>`

	html, err := RenderLessonHTML(lesson)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRenderLessonHTML_NewlinesBecomeBreaks(t *testing.T) {
	html, err := RenderLessonHTML(testLesson())
	require.NoError(t, err)
	assert.Contains(t, html, "Der Hund schläft.<br>Die Katze spielt.")
}

func TestRenderLessonHTML_EmptySectionsOmitted(t *testing.T) {
	lesson := testLesson()
	lesson.Suggestions = nil
	lesson.GrammarMistakes = nil
	lesson.Tenses = nil
	lesson.KeyVocabulary = nil

	html, err := RenderLessonHTML(lesson)
	require.NoError(t, err)
	assert.NotContains(t, html, "Suggestions")
	assert.NotContains(t, html, "Grammar Notes")
	assert.NotContains(t, html, "Tenses Used")
	assert.NotContains(t, html, "Key Vocabulary")
	assert.Contains(t, html, "Strengths")
}

func TestRenderLessonHTML_CorrectedVersionFallback(t *testing.T) {
	lesson := testLesson()
	lesson.CorrectedVersion = "   "

	html, err := RenderLessonHTML(lesson)
	require.NoError(t, err)
	assert.Contains(t, html, "The dog sleeps.<br>The cat plays.")
	// The input itself must stay untouched
	assert.Equal(t, "   ", lesson.CorrectedVersion)
}

func TestLessonFromAttempt(t *testing.T) {
	attempt := &models.ExerciseAttempt{
		ID:           uuid.New(),
		UserAnswer:   "The dog sleeps.",
		Score:        91,
		CompletedAt:  time.Now(),
		ExerciseType: models.ExerciseTranslation,
		Analysis: models.AIAnalysis{
			CorrectedVersion: "The dog is sleeping.",
			Strengths:        []string{"good"},
			Tenses:           []string{"present simple"},
		},
	}
	paragraph := &models.Paragraph{
		Title:      "Pets",
		Content:    "Der Hund schläft.",
		Difficulty: models.DifficultyBeginner,
		Topics:     []string{"animals"},
	}

	lesson := LessonFromAttempt(7, attempt, paragraph)
	assert.Equal(t, 7, lesson.LessonNumber)
	assert.Equal(t, "Pets", lesson.Title)
	assert.Equal(t, "Der Hund schläft.", lesson.OriginalText)
	assert.Equal(t, "The dog sleeps.", lesson.UserTranslation)
	assert.Equal(t, "The dog is sleeping.", lesson.CorrectedVersion)
	assert.Equal(t, 91, lesson.Score)
	assert.Equal(t, []string{"animals"}, lesson.Topics)
	assert.Equal(t, []string{"present simple"}, lesson.Tenses)
}

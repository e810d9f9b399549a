package services

import (
	"html/template"
	"strings"

	"lingotext/internal/models"
	contextutils "lingotext/internal/utils"
)

// Score band colors used in the lesson header badge
const (
	scoreColorGreen  = "#27ae60"
	scoreColorAmber  = "#f39c12"
	scoreColorOrange = "#e67e22"
	scoreColorRed    = "#e74c3c"
)

// ScoreColor maps a score to its band color: >=90 green, >=70 amber,
// >=50 orange, below red.
func ScoreColor(score int) string {
	switch {
	case score >= 90:
		return scoreColorGreen
	case score >= 70:
		return scoreColorAmber
	case score >= 50:
		return scoreColorOrange
	default:
		return scoreColorRed
	}
}

var lessonFuncs = template.FuncMap{
	"scoreColor": ScoreColor,
	"nl2br": func(s string) template.HTML {
		escaped := template.HTMLEscapeString(s)
		return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	},
	"join": strings.Join,
}

var lessonTemplate = template.Must(template.New("lesson").Funcs(lessonFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  @page { size: A4; margin: 18mm 16mm; }
  body { font-family: Georgia, 'Times New Roman', serif; color: #2c3e50; line-height: 1.55; }
  .lesson-header { border-bottom: 3px solid #2c3e50; padding-bottom: 8px; margin-bottom: 16px; }
  .lesson-number { font-size: 11px; text-transform: uppercase; letter-spacing: 2px; color: #7f8c8d; }
  h1 { font-size: 22px; margin: 4px 0 0 0; }
  .meta { font-size: 12px; color: #7f8c8d; margin-top: 4px; }
  .score-badge { display: inline-block; padding: 3px 12px; border-radius: 12px; color: #fff; font-weight: bold; font-size: 13px; background: {{scoreColor .Score}}; }
  h2 { font-size: 15px; margin: 18px 0 6px 0; border-left: 4px solid #2c3e50; padding-left: 8px; }
  .text-block { background: #f8f9fa; border: 1px solid #e9ecef; border-radius: 4px; padding: 10px 12px; font-size: 13px; }
  .corrected { background: #f0f9f4; border-color: #c8e6d4; }
  ul { margin: 4px 0; padding-left: 20px; font-size: 13px; }
  table { width: 100%; border-collapse: collapse; font-size: 12px; }
  th, td { border: 1px solid #dee2e6; padding: 5px 8px; text-align: left; vertical-align: top; }
  th { background: #f1f3f5; }
</style>
</head>
<body>
<div class="lesson-header">
  <div class="lesson-number">Lesson {{.LessonNumber}}</div>
  <h1>{{.Title}}</h1>
  <div class="meta">
    <span class="score-badge">{{.Score}} / 100</span>
    &nbsp;{{.Difficulty}} &middot; {{.CompletedAt.Format "January 2, 2006"}}{{if .Topics}} &middot; {{join .Topics ", "}}{{end}}
  </div>
</div>

<h2>Original Text</h2>
<div class="text-block">{{nl2br .OriginalText}}</div>

<h2>Your Translation</h2>
<div class="text-block">{{nl2br .UserTranslation}}</div>

<h2>Corrected Version</h2>
<div class="text-block corrected">{{nl2br .CorrectedVersion}}</div>

{{if .Strengths}}
<h2>Strengths</h2>
<ul>{{range .Strengths}}<li>{{.}}</li>{{end}}</ul>
{{end}}

{{if .Improvements}}
<h2>Areas to Improve</h2>
<ul>{{range .Improvements}}<li>{{.}}</li>{{end}}</ul>
{{end}}

{{if .Suggestions}}
<h2>Suggestions</h2>
<ul>{{range .Suggestions}}<li>{{.}}</li>{{end}}</ul>
{{end}}

{{if .GrammarMistakes}}
<h2>Grammar Notes</h2>
<table>
<tr><th>Mistake</th><th>Correction</th><th>Explanation</th></tr>
{{range .GrammarMistakes}}<tr><td>{{.Mistake}}</td><td>{{.Correction}}</td><td>{{.Explanation}}</td></tr>
{{end}}</table>
{{end}}

{{if .Tenses}}
<h2>Tenses Used</h2>
<ul>{{range .Tenses}}<li>{{.}}</li>{{end}}</ul>
{{end}}

{{if .KeyVocabulary}}
<h2>Key Vocabulary</h2>
<table>
<tr><th>Word</th><th>Definition</th><th>Example</th></tr>
{{range .KeyVocabulary}}<tr><td>{{.Word}}</td><td>{{.Definition}}</td><td>{{.Example}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`))

// RenderLessonHTML renders one textbook lesson page from a graded attempt.
// It is a pure function of its input: all user and model provided text is
// HTML-escaped, newlines become <br>, empty analysis sections are omitted,
// and a missing corrected version falls back to the user's own translation.
func RenderLessonHTML(lesson *models.LessonData) (result0 string, err error) {
	if lesson == nil {
		return "", contextutils.WrapError(contextutils.ErrInvalidInput, "lesson data is required")
	}

	render := *lesson
	if strings.TrimSpace(render.CorrectedVersion) == "" {
		render.CorrectedVersion = render.UserTranslation
	}

	var sb strings.Builder
	if err := lessonTemplate.Execute(&sb, &render); err != nil {
		return "", contextutils.WrapError(err, "failed to render lesson template")
	}
	return sb.String(), nil
}

// LessonFromAttempt builds the render projection for an attempt
func LessonFromAttempt(lessonNumber int, attempt *models.ExerciseAttempt, paragraph *models.Paragraph) *models.LessonData {
	return &models.LessonData{
		LessonNumber:     lessonNumber,
		Title:            paragraph.Title,
		OriginalText:     paragraph.Content,
		UserTranslation:  attempt.UserAnswer,
		CorrectedVersion: attempt.Analysis.CorrectedVersion,
		Score:            attempt.Score,
		CompletedAt:      attempt.CompletedAt,
		Difficulty:       paragraph.Difficulty,
		Topics:           paragraph.Topics,
		Strengths:        attempt.Analysis.Strengths,
		Improvements:     attempt.Analysis.Improvements,
		Suggestions:      attempt.Analysis.Suggestions,
		GrammarMistakes:  attempt.Analysis.GrammarMistakes,
		Tenses:           attempt.Analysis.Tenses,
		KeyVocabulary:    attempt.Analysis.KeyVocabulary,
	}
}

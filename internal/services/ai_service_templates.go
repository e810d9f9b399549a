package services

import (
	"strings"
	"text/template"

	contextutils "lingotext/internal/utils"

	"lingotext/internal/serviceinterfaces"
)

// gradingSchema gates the payload on the one field that cannot be defaulted:
// the score. Every other field is coerced leniently afterwards, so a sparse
// or sloppily typed payload still carries the model's real score.
const gradingSchema = `{
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"type": ["number", "string"]}
  }
}`

// gradingInstructions describes the task per exercise type. Each entry is the
// body of the prompt before the shared response-format section.
var gradingInstructions = map[string]string{
	"translation": `You are an experienced English teacher grading a student's translation exercise.
The student translated the following paragraph from {{.TargetLanguage}} into their own words.

Original paragraph:
{{.OriginalText}}

Student translation:
{{.UserAnswer}}

Grade accuracy, grammar, word choice and register. Identify grammar mistakes with corrections,
list the verb tenses used, and extract key vocabulary the student should retain.`,

	"gap_fill": `You are an experienced English teacher grading a gap-fill exercise.

Paragraph with gaps:
{{.OriginalText}}

Student answers:
{{.UserAnswer}}
{{if .CorrectAnswer}}
Expected answers:
{{.CorrectAnswer}}
{{end}}
Grade correctness of each filled gap, explain wrong choices, and extract key vocabulary.`,

	"rewrite": `You are an experienced English teacher grading a sentence-rewriting exercise.

Original paragraph:
{{.OriginalText}}

Student rewrite:
{{.UserAnswer}}

Grade whether the rewrite preserves meaning while improving style and grammar.
Identify grammar mistakes with corrections and provide a corrected version.`,

	"comprehension": `You are an experienced English teacher grading a reading comprehension answer.

Source paragraph:
{{.OriginalText}}

Student answer:
{{.UserAnswer}}
{{if .CorrectAnswer}}
Reference answer:
{{.CorrectAnswer}}
{{end}}
Grade understanding of the text, completeness and language quality.`,
}

// defaultGradingKey selects the catch-all template for exercise types
// without a dedicated rubric.
const defaultGradingKey = "default"

// defaultGradingInstructions grades any exercise without a per-type rubric.
const defaultGradingInstructions = `You are an experienced English teacher grading a student's exercise.

Original paragraph:
{{.OriginalText}}

Student answer:
{{.UserAnswer}}
{{if .CorrectAnswer}}
Reference answer:
{{.CorrectAnswer}}
{{end}}
Grade correctness and language quality. Identify grammar mistakes with
corrections and extract key vocabulary the student should retain.`

// gradingResponseFormat is appended to every grading prompt.
const gradingResponseFormat = `

Respond with a single JSON object, no markdown fences, with these fields:
{
  "score": <integer 0-100>,
  "feedback": "<2-4 sentence overall assessment>",
  "strengths": ["..."],
  "improvements": ["..."],
  "suggestions": ["..."],
  "corrected_version": "<the student's text with all mistakes fixed>",
  "grammar_mistakes": [{"mistake": "...", "correction": "...", "explanation": "..."}],
  "tenses": ["..."],
  "key_vocabulary": [{"word": "...", "definition": "...", "example": "..."}]
}`

// translationPrompt asks for a bare translation with no commentary.
const translationPrompt = `Translate the following text from {{.SourceLanguage}} to {{.TargetLanguage}}.
Respond with ONLY the translated text, no explanations, no quotes.

Text:
{{.Text}}`

// AITemplateManager renders the prompt templates used by the AI clients
type AITemplateManager struct {
	templates map[string]*template.Template
}

// NewAITemplateManager parses all built-in prompt templates
func NewAITemplateManager() (result0 *AITemplateManager, err error) {
	m := &AITemplateManager{templates: make(map[string]*template.Template)}

	for name, body := range gradingInstructions {
		tmpl, err := template.New(name).Parse(body + gradingResponseFormat)
		if err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to parse grading template %q", name)
		}
		m.templates[name] = tmpl
	}

	defaultTmpl, err := template.New(defaultGradingKey).Parse(defaultGradingInstructions + gradingResponseFormat)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to parse default grading template")
	}
	m.templates[defaultGradingKey] = defaultTmpl

	tmpl, err := template.New("translate").Parse(translationPrompt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to parse translation template")
	}
	m.templates["translate"] = tmpl

	return m, nil
}

// RenderGradingPrompt renders the grading prompt for the request's exercise type
func (m *AITemplateManager) RenderGradingPrompt(req *serviceinterfaces.GradingRequest) (result0 string, err error) {
	tmpl, ok := m.templates[string(req.ExerciseType)]
	if !ok {
		tmpl = m.templates[defaultGradingKey]
	}

	data := map[string]string{
		"OriginalText":   req.OriginalText,
		"UserAnswer":     req.UserAnswer,
		"CorrectAnswer":  req.CorrectAnswer,
		"NativeLanguage": orDefault(req.NativeLanguage, "their native language"),
		"TargetLanguage": orDefault(req.TargetLanguage, "English"),
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", contextutils.WrapErrorf(err, "failed to render grading template %q", req.ExerciseType)
	}
	return sb.String(), nil
}

// RenderTranslationPrompt renders the plain-translation prompt
func (m *AITemplateManager) RenderTranslationPrompt(text, sourceLanguage, targetLanguage string) (result0 string, err error) {
	data := map[string]string{
		"Text":           text,
		"SourceLanguage": orDefault(sourceLanguage, "the source language"),
		"TargetLanguage": orDefault(targetLanguage, "English"),
	}

	var sb strings.Builder
	if err := m.templates["translate"].Execute(&sb, data); err != nil {
		return "", contextutils.WrapError(err, "failed to render translation template")
	}
	return sb.String(), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

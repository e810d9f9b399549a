package services

import (
	"context"
	"database/sql"
	"fmt"

	"lingotext/internal/models"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// ParagraphService provides persistence for exercise paragraphs
type ParagraphService struct {
	db     *sql.DB
	logger *observability.Logger
}

var _ serviceinterfaces.ParagraphStore = (*ParagraphService)(nil)

// NewParagraphService creates a new paragraph service
func NewParagraphService(db *sql.DB, logger *observability.Logger) *ParagraphService {
	return &ParagraphService{db: db, logger: logger}
}

// GetParagraphByID retrieves a paragraph by ID
func (s *ParagraphService) GetParagraphByID(ctx context.Context, id int) (result0 *models.Paragraph, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "get_paragraph_by_id",
		observability.AttributeParagraphID(id),
	)
	defer observability.FinishSpan(span, &err)

	var p models.Paragraph
	var difficulty string
	err = s.db.QueryRowContext(ctx, `
		SELECT id, title, content, difficulty, topics, language, active, created_at, updated_at
		FROM paragraphs WHERE id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.Content, &difficulty, &p.Topics, &p.Language, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, contextutils.WrapErrorf(contextutils.ErrParagraphNotFound, "paragraph %d not found", id)
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query paragraph")
	}
	p.Difficulty = models.DifficultyLevel(difficulty)
	return &p, nil
}

// ListActiveParagraphs returns active paragraphs, optionally filtered by difficulty
func (s *ParagraphService) ListActiveParagraphs(ctx context.Context, difficulty models.DifficultyLevel, limit int) (result0 []models.Paragraph, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "list_active_paragraphs",
		attribute.String("difficulty", string(difficulty)),
		observability.AttributeLimit(limit),
	)
	defer observability.FinishSpan(span, &err)

	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, title, content, difficulty, topics, language, active, created_at, updated_at
		FROM paragraphs WHERE active`
	args := []interface{}{}
	if difficulty != "" {
		query += ` AND difficulty = $1`
		args = append(args, string(difficulty))
	}
	query += ` ORDER BY id LIMIT ` + placeholderFor(len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query paragraphs")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var paragraphs []models.Paragraph
	for rows.Next() {
		var p models.Paragraph
		var diff string
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &diff, &p.Topics, &p.Language, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan paragraph row")
		}
		p.Difficulty = models.DifficultyLevel(diff)
		paragraphs = append(paragraphs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "paragraph row iteration failed")
	}

	return paragraphs, nil
}

// CreateParagraph inserts a new paragraph row
func (s *ParagraphService) CreateParagraph(ctx context.Context, p *models.Paragraph) (result0 *models.Paragraph, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "create_paragraph",
		attribute.String("title", p.Title),
	)
	defer observability.FinishSpan(span, &err)

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO paragraphs (title, content, difficulty, topics, language, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		p.Title, p.Content, string(p.Difficulty), p.Topics, p.Language, p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert paragraph")
	}

	return p, nil
}

func placeholderFor(n int) string {
	return fmt.Sprintf("$%d", n)
}

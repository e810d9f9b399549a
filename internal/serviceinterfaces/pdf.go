// Package serviceinterfaces defines service interfaces for dependency injection and testing.
package serviceinterfaces

import (
	"context"

	"github.com/google/uuid"
)

// HTMLRasterizer renders an HTML document to PDF bytes using a headless
// rendering engine. The engine is acquired per call and released before
// the call returns.
type HTMLRasterizer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// PDFGenerator folds a graded attempt into the user's cumulative textbook
type PDFGenerator interface {
	// GenerateForAttempt renders the attempt as a lesson, merges it with
	// the user's existing textbook, uploads the result, and marks the
	// attempt incorporated. Calling it again for an already incorporated
	// attempt is a no-op.
	GenerateForAttempt(ctx context.Context, userID int, attemptID uuid.UUID) error
}

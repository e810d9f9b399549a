// Package serviceinterfaces defines service interfaces for dependency injection and testing.
package serviceinterfaces

import (
	"context"
	"time"
)

// StorageProvider defines the interface for the object storage gateway.
// All operations address a single deterministic per-user object key; when
// storage is unconfigured every method returns ErrStorageNotConfigured.
type StorageProvider interface {
	// UploadUserPDF stores the PDF bytes under the user's textbook key
	// and returns the stable object URL.
	UploadUserPDF(ctx context.Context, userID int, data []byte) (string, error)

	// DownloadUserPDF fetches the user's current textbook bytes.
	DownloadUserPDF(ctx context.Context, userID int) ([]byte, error)

	// SignedURL returns a time-limited download URL for the user's textbook.
	SignedURL(ctx context.Context, userID int, ttl time.Duration) (string, error)

	// IsConfigured returns whether storage credentials are present
	IsConfigured() bool
}

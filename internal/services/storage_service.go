package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"lingotext/internal/config"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel/attribute"
)

// StorageService is the S3-compatible object storage gateway for textbook
// PDFs. Every user owns exactly one object under a deterministic key; when
// storage is unconfigured all operations return ErrStorageNotConfigured.
type StorageService struct {
	cfg    *config.StorageConfig
	logger *observability.Logger
	client *minio.Client
}

var _ serviceinterfaces.StorageProvider = (*StorageService)(nil)

// NewStorageService creates the storage gateway. An unconfigured gateway is
// valid: it reports IsConfigured() == false and fails every operation with
// the typed configuration error.
func NewStorageService(cfg *config.StorageConfig, logger *observability.Logger) (result0 *StorageService, err error) {
	svc := &StorageService{
		cfg:    cfg,
		logger: logger,
	}

	if !cfg.IsConfigured() {
		logger.Warn(context.Background(), "Object storage not configured, PDF features disabled", nil)
		return svc, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create storage client")
	}

	svc.client = client
	return svc, nil
}

// IsConfigured returns whether storage credentials are present
func (s *StorageService) IsConfigured() bool {
	return s.client != nil
}

// EnsureBucket creates the configured bucket if it does not exist yet
func (s *StorageService) EnsureBucket(ctx context.Context) (err error) {
	ctx, span := observability.TraceStorageFunction(ctx, "ensure_bucket",
		attribute.String("storage.bucket", s.cfg.Bucket),
	)
	defer observability.FinishSpan(span, &err)

	if !s.IsConfigured() {
		return contextutils.WrapError(contextutils.ErrStorageNotConfigured, "cannot ensure bucket")
	}

	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return contextutils.WrapError(err, "failed to check bucket existence")
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return contextutils.WrapError(err, "failed to create bucket")
	}

	s.logger.Info(ctx, "Created storage bucket", map[string]interface{}{"bucket": s.cfg.Bucket})
	return nil
}

// objectKey returns the deterministic per-user textbook key
func objectKey(userID int) string {
	return fmt.Sprintf("pdfs/%d/learning-textbook.pdf", userID)
}

// UploadUserPDF stores the PDF bytes under the user's textbook key
func (s *StorageService) UploadUserPDF(ctx context.Context, userID int, data []byte) (result0 string, err error) {
	ctx, span := observability.TraceStorageFunction(ctx, "upload_user_pdf",
		observability.AttributeUserID(userID),
		attribute.Int("pdf.size_bytes", len(data)),
	)
	defer observability.FinishSpan(span, &err)

	if !s.IsConfigured() {
		return "", contextutils.WrapError(contextutils.ErrStorageNotConfigured, "cannot upload PDF")
	}

	key := objectKey(userID)
	_, err = s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrStorageUploadFailed, "failed to upload %s: %w", key, err)
	}

	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	objectURL := fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, key)

	s.logger.Info(ctx, "Uploaded user textbook", map[string]interface{}{
		"user_id":    userID,
		"object_key": key,
		"size_bytes": len(data),
	})

	return objectURL, nil
}

// DownloadUserPDF fetches the user's current textbook bytes
func (s *StorageService) DownloadUserPDF(ctx context.Context, userID int) (result0 []byte, err error) {
	ctx, span := observability.TraceStorageFunction(ctx, "download_user_pdf",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	if !s.IsConfigured() {
		return nil, contextutils.WrapError(contextutils.ErrStorageNotConfigured, "cannot download PDF")
	}

	key := objectKey(userID)
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrStorageDownloadFailed, "failed to open %s: %w", key, err)
	}
	defer func() {
		if closeErr := obj.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close storage object", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		// Missing objects surface on read, not open
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil, contextutils.WrapErrorf(contextutils.ErrPDFNotFound, "no textbook stored for user %d", userID)
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrStorageDownloadFailed, "failed to read %s: %w", key, err)
	}

	span.SetAttributes(attribute.Int("pdf.size_bytes", len(data)))
	return data, nil
}

// SignedURL returns a time-limited download URL for the user's textbook
func (s *StorageService) SignedURL(ctx context.Context, userID int, ttl time.Duration) (result0 string, err error) {
	ctx, span := observability.TraceStorageFunction(ctx, "signed_url",
		observability.AttributeUserID(userID),
		attribute.String("ttl", ttl.String()),
	)
	defer observability.FinishSpan(span, &err)

	if !s.IsConfigured() {
		return "", contextutils.WrapError(contextutils.ErrStorageNotConfigured, "cannot sign URL")
	}

	key := objectKey(userID)
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", `attachment; filename="learning-textbook.pdf"`)

	signedURL, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, key, ttl, reqParams)
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrStorageDownloadFailed, "failed to presign %s: %w", key, err)
	}

	return signedURL.String(), nil
}

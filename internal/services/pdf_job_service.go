package services

import (
	"context"
	"database/sql"

	"lingotext/internal/models"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"github.com/google/uuid"
)

// PDFJobService is the durable work queue behind the fire-and-forget
// textbook trigger. Jobs are claimed with SKIP LOCKED so a crashed worker
// never wedges the queue.
type PDFJobService struct {
	db     *sql.DB
	logger *observability.Logger
}

var _ serviceinterfaces.PDFJobStore = (*PDFJobService)(nil)

// NewPDFJobService creates a new PDF job queue service
func NewPDFJobService(db *sql.DB, logger *observability.Logger) *PDFJobService {
	return &PDFJobService{db: db, logger: logger}
}

// EnqueueJob inserts a pending job
func (s *PDFJobService) EnqueueJob(ctx context.Context, job *models.PDFJob) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "enqueue_pdf_job",
		observability.AttributeUserID(job.UserID),
		observability.AttributeJobID(job.ID.String()),
	)
	defer observability.FinishSpan(span, &err)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pdf_jobs (id, user_id, attempt_id, status)
		VALUES ($1, $2, $3, $4)`,
		job.ID, job.UserID, job.AttemptID, string(models.PDFJobPending),
	)
	if err != nil {
		return contextutils.WrapError(err, "failed to enqueue PDF job")
	}
	return nil
}

// ClaimNextPending atomically claims the oldest pending job, or returns nil
// when the queue is empty.
func (s *PDFJobService) ClaimNextPending(ctx context.Context) (result0 *models.PDFJob, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "claim_next_pending_pdf_job")
	defer observability.FinishSpan(span, &err)

	var job models.PDFJob
	var status string
	err = s.db.QueryRowContext(ctx, `
		UPDATE pdf_jobs SET status = 'processing', attempts = attempts + 1, updated_at = NOW()
		WHERE id = (
			SELECT id FROM pdf_jobs
			WHERE status = 'pending'
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, user_id, attempt_id, status, attempts, last_error, created_at, updated_at`,
	).Scan(&job.ID, &job.UserID, &job.AttemptID, &status, &job.Attempts, &job.LastError, &job.CreatedAt, &job.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to claim PDF job")
	}

	job.Status = models.PDFJobStatus(status)
	return &job, nil
}

// MarkJobDone marks a job as successfully processed
func (s *PDFJobService) MarkJobDone(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "mark_pdf_job_done",
		observability.AttributeJobID(id.String()),
	)
	defer observability.FinishSpan(span, &err)

	_, err = s.db.ExecContext(ctx, `
		UPDATE pdf_jobs SET status = 'done', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return contextutils.WrapError(err, "failed to mark PDF job done")
	}
	return nil
}

// MarkJobFailed records a failure. The job goes back to pending until it has
// exhausted maxAttempts, then it is parked as failed.
func (s *PDFJobService) MarkJobFailed(ctx context.Context, id uuid.UUID, jobErr string, maxAttempts int) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "mark_pdf_job_failed",
		observability.AttributeJobID(id.String()),
	)
	defer observability.FinishSpan(span, &err)

	_, err = s.db.ExecContext(ctx, `
		UPDATE pdf_jobs
		SET status = CASE WHEN attempts >= $2 THEN 'failed' ELSE 'pending' END,
		    last_error = $3, updated_at = NOW()
		WHERE id = $1`,
		id, maxAttempts, jobErr,
	)
	if err != nil {
		return contextutils.WrapError(err, "failed to mark PDF job failed")
	}
	return nil
}

// RequeueFailedJobs moves all permanently failed jobs back to pending and
// resets their attempt counters. Used by the operational CLI.
func (s *PDFJobService) RequeueFailedJobs(ctx context.Context) (result0 int, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "requeue_failed_pdf_jobs")
	defer observability.FinishSpan(span, &err)

	result, err := s.db.ExecContext(ctx, `
		UPDATE pdf_jobs SET status = 'pending', attempts = 0, updated_at = NOW()
		WHERE status = 'failed'`)
	if err != nil {
		return 0, contextutils.WrapError(err, "failed to requeue PDF jobs")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, contextutils.WrapError(err, "failed to read rows affected")
	}

	s.logger.Info(ctx, "Requeued failed PDF jobs", map[string]interface{}{"count": rows})
	return int(rows), nil
}

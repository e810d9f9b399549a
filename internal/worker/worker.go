// Package worker drains the PDF job queue and applies textbook updates.
package worker

import (
	"context"
	"time"

	"lingotext/internal/config"
	"lingotext/internal/models"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
)

// Worker drains the PDF job queue. Jobs are processed strictly one at a
// time: each job downloads, merges and re-uploads a user's textbook, and
// serializing them is what prevents two merges from overwriting each other.
type Worker struct {
	jobs      serviceinterfaces.PDFJobStore
	generator serviceinterfaces.PDFGenerator
	logger    *observability.Logger

	pollInterval time.Duration
}

// NewWorker creates a new PDF queue worker
func NewWorker(jobs serviceinterfaces.PDFJobStore, generator serviceinterfaces.PDFGenerator, logger *observability.Logger) *Worker {
	return &Worker{
		jobs:         jobs,
		generator:    generator,
		logger:       logger,
		pollInterval: config.WorkerPollInterval,
	}
}

// Run polls the queue until the context is canceled
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info(ctx, "PDF worker started", map[string]interface{}{
		"poll_interval": w.pollInterval.String(),
	})

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	heartbeat := time.NewTicker(config.WorkerHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(context.Background(), "PDF worker shutting down", nil)
			return
		case <-heartbeat.C:
			w.logger.Debug(ctx, "PDF worker heartbeat", nil)
		case <-ticker.C:
			w.drainQueue(ctx)
		}
	}
}

// drainQueue processes pending jobs sequentially until the queue is empty
// or the context is canceled
func (w *Worker) drainQueue(ctx context.Context) {
	for ctx.Err() == nil {
		job, err := w.jobs.ClaimNextPending(ctx)
		if err != nil {
			w.logger.Error(ctx, "Failed to claim PDF job", err, nil)
			return
		}
		if job == nil {
			return
		}

		w.processJob(ctx, job)
	}
}

// processJob runs the generator for one job and records the outcome
func (w *Worker) processJob(ctx context.Context, job *models.PDFJob) {
	ctx, span := observability.TraceWorkerFunction(ctx, "process_job",
		observability.AttributeJobID(job.ID.String()),
		observability.AttributeUserID(job.UserID),
		observability.AttributeAttemptID(job.AttemptID.String()),
	)
	defer span.End()

	start := time.Now()
	err := w.generator.GenerateForAttempt(ctx, job.UserID, job.AttemptID)
	observability.RecordPDFJobProcessed(ctx, err == nil)
	if err != nil {
		w.logger.Error(ctx, "PDF job failed", err, map[string]interface{}{
			"job_id":   job.ID.String(),
			"attempts": job.Attempts,
		})
		if markErr := w.jobs.MarkJobFailed(ctx, job.ID, err.Error(), config.PDFJobMaxAttempts); markErr != nil {
			w.logger.Error(ctx, "Failed to record PDF job failure", markErr, map[string]interface{}{
				"job_id": job.ID.String(),
			})
		}
		return
	}

	if markErr := w.jobs.MarkJobDone(ctx, job.ID); markErr != nil {
		// The textbook update itself succeeded; the idempotence guard on
		// the attempt absorbs the redundant retry this will cause.
		w.logger.Error(ctx, "Failed to mark PDF job done", markErr, map[string]interface{}{
			"job_id": job.ID.String(),
		})
		return
	}

	w.logger.Info(ctx, "PDF job completed", map[string]interface{}{
		"job_id":   job.ID.String(),
		"user_id":  job.UserID,
		"duration": time.Since(start).String(),
	})
}

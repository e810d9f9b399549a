package worker

import (
	"context"
	"errors"
	"testing"

	"lingotext/internal/config"
	"lingotext/internal/models"
	"lingotext/internal/observability"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockJobStore struct {
	queue []*models.PDFJob

	doneIDs   []uuid.UUID
	failedIDs []uuid.UUID
	failedMax []int
	claimErr  error
}

func (m *mockJobStore) EnqueueJob(_ context.Context, job *models.PDFJob) error {
	m.queue = append(m.queue, job)
	return nil
}

func (m *mockJobStore) ClaimNextPending(_ context.Context) (*models.PDFJob, error) {
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	if len(m.queue) == 0 {
		return nil, nil
	}
	job := m.queue[0]
	m.queue = m.queue[1:]
	return job, nil
}

func (m *mockJobStore) MarkJobDone(_ context.Context, id uuid.UUID) error {
	m.doneIDs = append(m.doneIDs, id)
	return nil
}

func (m *mockJobStore) MarkJobFailed(_ context.Context, id uuid.UUID, _ string, maxAttempts int) error {
	m.failedIDs = append(m.failedIDs, id)
	m.failedMax = append(m.failedMax, maxAttempts)
	return nil
}

func (m *mockJobStore) RequeueFailedJobs(_ context.Context) (int, error) {
	return 0, nil
}

type mockGenerator struct {
	processed []uuid.UUID
	failFor   map[uuid.UUID]error
}

func (m *mockGenerator) GenerateForAttempt(_ context.Context, _ int, attemptID uuid.UUID) error {
	m.processed = append(m.processed, attemptID)
	if err, ok := m.failFor[attemptID]; ok {
		return err
	}
	return nil
}

func newWorkerFixture() (*Worker, *mockJobStore, *mockGenerator) {
	jobs := &mockJobStore{}
	generator := &mockGenerator{failFor: map[uuid.UUID]error{}}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	return NewWorker(jobs, generator, logger), jobs, generator
}

func testJob(userID int) *models.PDFJob {
	return &models.PDFJob{
		ID:        uuid.New(),
		UserID:    userID,
		AttemptID: uuid.New(),
		Status:    models.PDFJobPending,
	}
}

func TestDrainQueue_ProcessesAllPendingJobs(t *testing.T) {
	w, jobs, generator := newWorkerFixture()

	j1, j2, j3 := testJob(1), testJob(2), testJob(1)
	jobs.queue = []*models.PDFJob{j1, j2, j3}

	w.drainQueue(context.Background())

	// Jobs are processed one at a time, in queue order
	assert.Equal(t, []uuid.UUID{j1.AttemptID, j2.AttemptID, j3.AttemptID}, generator.processed)
	assert.Equal(t, []uuid.UUID{j1.ID, j2.ID, j3.ID}, jobs.doneIDs)
	assert.Empty(t, jobs.failedIDs)
}

func TestDrainQueue_FailedJobIsMarkedFailed(t *testing.T) {
	w, jobs, generator := newWorkerFixture()

	bad := testJob(1)
	good := testJob(2)
	jobs.queue = []*models.PDFJob{bad, good}
	generator.failFor[bad.AttemptID] = errors.New("render crashed")

	w.drainQueue(context.Background())

	assert.Equal(t, []uuid.UUID{bad.ID}, jobs.failedIDs)
	require.Len(t, jobs.failedMax, 1)
	assert.Equal(t, config.PDFJobMaxAttempts, jobs.failedMax[0])
	// The failure does not stop the queue
	assert.Equal(t, []uuid.UUID{good.ID}, jobs.doneIDs)
}

func TestDrainQueue_ClaimErrorStopsDrain(t *testing.T) {
	w, jobs, generator := newWorkerFixture()
	jobs.claimErr = errors.New("database gone")

	w.drainQueue(context.Background())

	assert.Empty(t, generator.processed)
}

func TestDrainQueue_StopsOnCanceledContext(t *testing.T) {
	w, jobs, generator := newWorkerFixture()
	jobs.queue = []*models.PDFJob{testJob(1), testJob(2)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.drainQueue(ctx)

	assert.Empty(t, generator.processed)
}

func TestRun_ExitsOnContextCancel(t *testing.T) {
	w, _, _ := newWorkerFixture()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	<-done
}

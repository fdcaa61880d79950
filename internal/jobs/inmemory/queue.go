package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/decision-ease/internal/jobs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultMaxRetries = 3

var errQueueClosed = errors.New("queue is closed")

// Queue is an in-memory job publisher and consumer built on a buffered
// channel. It is safe for concurrent use and suits a single instance.
type Queue struct {
	jobChan      chan *jobs.ExportJob
	closeChan    chan struct{}
	wg           sync.WaitGroup
	mu           sync.RWMutex
	store        jobs.JobStore
	workers      int
	retryBackoff time.Duration
	closed       bool
	log          zerolog.Logger
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can be queued before PublishExport blocks.
func NewQueue(bufferSize, workers int, store jobs.JobStore, log zerolog.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		jobChan:      make(chan *jobs.ExportJob, bufferSize),
		closeChan:    make(chan struct{}),
		store:        store,
		workers:      workers,
		retryBackoff: time.Second,
		log:          log,
	}
}

// PublishExport enqueues an export job for asynchronous processing. Defaults
// are filled in on job; workers get their own copy, so the caller may keep
// reading it.
func (q *Queue) PublishExport(ctx context.Context, job *jobs.ExportJob) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return fmt.Errorf("PublishExport: %w", errQueueClosed)
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = defaultMaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("PublishExport: save job: %w", err)
		}
	}

	select {
	case q.jobChan <- copyJob(job):
		q.log.Debug().
			Str("job_id", job.JobID).
			Str("target", string(job.Target)).
			Str("trigger", string(job.Trigger)).
			Msg("Export job enqueued")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("PublishExport: %w", errQueueClosed)
	}
}

// Start launches the worker goroutines. It returns immediately.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("Start: %w", errQueueClosed)
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	q.log.Info().Int("workers", q.workers).Msg("Export queue started")
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob runs one attempt and schedules a retry on failure.
func (q *Queue) processJob(ctx context.Context, job *jobs.ExportJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	q.save(ctx, job)

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err == nil {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		q.save(ctx, job)
		return
	}

	job.Error = err.Error()
	if job.RetryCount >= job.MaxRetries || errors.Is(err, jobs.ErrNoRetry) {
		job.Status = jobs.JobStatusFailed
		q.save(ctx, job)
		q.log.Error().
			Err(err).
			Str("job_id", job.JobID).
			Str("target", string(job.Target)).
			Int("attempts", job.RetryCount+1).
			Msg("Export job failed")
		return
	}

	job.RetryCount++
	job.Status = jobs.JobStatusRetrying
	q.save(ctx, job)

	backoff := time.Duration(job.RetryCount) * q.retryBackoff
	q.log.Warn().
		Err(err).
		Str("job_id", job.JobID).
		Dur("backoff", backoff).
		Msg("Export job failed, retrying")

	time.AfterFunc(backoff, func() {
		job.Status = jobs.JobStatusPending
		job.StartedAt = nil
		job.CompletedAt = nil
		if err := q.PublishExport(ctx, job); err != nil {
			q.log.Warn().Err(err).Str("job_id", job.JobID).Msg("Dropping export retry")
		}
	})
}

func (q *Queue) save(ctx context.Context, job *jobs.ExportJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		q.log.Warn().Err(err).Str("job_id", job.JobID).Msg("Failed to save job state")
	}
}

// Stop closes the queue and waits for in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)

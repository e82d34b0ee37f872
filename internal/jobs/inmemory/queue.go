package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/nett/internal/jobs"
	"github.com/dvloznov/nett/internal/logger"
)

const (
	defaultWorkers    = 5
	defaultMaxRetries = 3
)

// ErrQueueClosed is returned when publishing to or starting a stopped queue.
var ErrQueueClosed = errors.New("queue is closed")

// Queue publishes and consumes mirror jobs over a buffered channel. Only the
// newest job per transaction runs; older pending ones are marked superseded.
type Queue struct {
	jobChan   chan *jobs.MirrorJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	store     jobs.JobStore

	mu     sync.Mutex
	closed bool
	latest map[string]string // transaction ID -> newest job ID

	workers int
	backoff func(retry int) time.Duration
}

// Option configures a Queue.
type Option func(*Queue)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithBackoff sets the delay before a failed job's retry-th attempt.
func WithBackoff(f func(retry int) time.Duration) Option {
	return func(q *Queue) { q.backoff = f }
}

// NewQueue creates a queue holding up to bufferSize jobs before PublishMirror
// blocks. store may be nil.
func NewQueue(bufferSize int, store jobs.JobStore, opts ...Option) *Queue {
	q := &Queue{
		jobChan:   make(chan *jobs.MirrorJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		latest:    make(map[string]string),
		workers:   defaultWorkers,
		backoff: func(retry int) time.Duration {
			return time.Duration(retry) * time.Second
		},
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// PublishMirror implements jobs.Publisher. It fills in the job's ID, status,
// creation time and retry budget when unset.
func (q *Queue) PublishMirror(ctx context.Context, job *jobs.MirrorJob) error {
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	job.Status = jobs.JobStatusPending
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = defaultMaxRetries
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("PublishMirror: %w", ErrQueueClosed)
	}
	q.latest[job.TransactionID] = job.JobID
	q.mu.Unlock()

	if err := q.enqueue(ctx, job); err != nil {
		return fmt.Errorf("PublishMirror: %w", err)
	}
	return nil
}

func (q *Queue) enqueue(ctx context.Context, job *jobs.MirrorJob) error {
	q.save(ctx, job)

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return ErrQueueClosed
	}
}

// save records job in the store. Store failures only cost history.
func (q *Queue) save(ctx context.Context, job *jobs.MirrorJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("job_id", job.JobID).Msg("Failed to save job state")
	}
}

// Start implements jobs.Consumer. The handler runs on up to the configured
// number of workers at once.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return fmt.Errorf("Start: %w", ErrQueueClosed)
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
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
			q.process(ctx, job, handler)
		}
	}
}

// current reports whether job is still the newest for its transaction.
func (q *Queue) current(job *jobs.MirrorJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.latest[job.TransactionID] == job.JobID
}

// settle forgets job once it reached a terminal state as the newest job.
func (q *Queue) settle(job *jobs.MirrorJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.latest[job.TransactionID] == job.JobID {
		delete(q.latest, job.TransactionID)
	}
}

// process runs one attempt of job. A retry is a fresh copy of the job,
// scheduled only after this attempt's state is saved.
func (q *Queue) process(ctx context.Context, job *jobs.MirrorJob, handler jobs.JobHandler) {
	log := logger.FromContext(ctx).With().
		Str("job_id", job.JobID).
		Str("transaction_id", job.TransactionID).
		Str("action", string(job.Action)).
		Logger()

	now := time.Now()
	if !q.current(job) {
		job.Status = jobs.JobStatusSuperseded
		job.CompletedAt = &now
		q.save(ctx, job)
		log.Debug().Msg("Skipping superseded mirror job")
		return
	}

	job.Status = jobs.JobStatusRunning
	job.StartedAt = &now
	q.save(ctx, job)

	err := handler(logger.WithContext(ctx, log), job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	var retry *jobs.MirrorJob
	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		q.settle(job)
	case job.RetryCount < job.MaxRetries:
		job.Error = err.Error()
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying

		next := *job
		next.Status = jobs.JobStatusPending
		next.StartedAt = nil
		next.CompletedAt = nil
		retry = &next
		log.Warn().Err(err).Int("retry", job.RetryCount).Msg("Mirror job failed, retrying")
	default:
		job.Error = err.Error()
		job.Status = jobs.JobStatusFailed
		q.settle(job)
		log.Error().Err(err).Int("retries", job.RetryCount).Msg("Mirror job failed")
	}

	q.save(ctx, job)

	if retry != nil {
		time.AfterFunc(q.backoff(retry.RetryCount), func() {
			if err := q.enqueue(ctx, retry); err != nil {
				log.Warn().Err(err).Msg("Dropped mirror job retry")
			}
		})
	}
}

// Stop implements jobs.Consumer. It stops the workers and waits for
// in-flight jobs to complete. Pending jobs are dropped.
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

// Close implements jobs.Publisher.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)

package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/nett/internal/jobs"
)

func newTestStore(t *testing.T, size int) *Store {
	t.Helper()
	store, err := NewStore(size)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.MirrorJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := store.GetJob(context.Background(), jobID)
	t.Fatalf("job %s never reached %s, last = %+v", jobID, want, job)
	return nil
}

func TestQueue_ProcessesJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newTestStore(t, 0)
	q := NewQueue(10, store)
	defer q.Close()

	var handled atomic.Int32
	err := q.Start(ctx, func(ctx context.Context, job *jobs.MirrorJob) error {
		if job.TransactionID != "t1" || job.Status != jobs.JobStatusRunning {
			t.Errorf("job = %+v", job)
		}
		handled.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.MirrorJob{TransactionID: "t1", Action: jobs.MirrorUpsert}
	if err := q.PublishMirror(ctx, job); err != nil {
		t.Fatalf("PublishMirror failed: %v", err)
	}
	if job.JobID == "" || job.MaxRetries != defaultMaxRetries || job.CreatedAt.IsZero() {
		t.Errorf("defaults not applied: %+v", job)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if handled.Load() != 1 || done.CompletedAt == nil || done.StartedAt == nil {
		t.Errorf("handled = %d, job = %+v", handled.Load(), done)
	}
}

func TestQueue_RetriesThenFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newTestStore(t, 0)
	q := NewQueue(10, store, WithWorkers(1), WithBackoff(func(int) time.Duration { return time.Millisecond }))
	defer q.Close()

	var attempts atomic.Int32
	q.Start(ctx, func(ctx context.Context, job *jobs.MirrorJob) error {
		attempts.Add(1)
		return errors.New("notion unavailable")
	})

	job := &jobs.MirrorJob{TransactionID: "t1", Action: jobs.MirrorArchive, MaxRetries: 2}
	if err := q.PublishMirror(ctx, job); err != nil {
		t.Fatalf("PublishMirror failed: %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
	if failed.RetryCount != 2 || failed.Error != "notion unavailable" {
		t.Errorf("job = %+v", failed)
	}
}

func TestQueue_RetrySucceeds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newTestStore(t, 0)
	q := NewQueue(10, store, WithBackoff(func(int) time.Duration { return time.Millisecond }))
	defer q.Close()

	var attempts atomic.Int32
	q.Start(ctx, func(ctx context.Context, job *jobs.MirrorJob) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	})

	job := &jobs.MirrorJob{TransactionID: "t1", Action: jobs.MirrorUpsert}
	q.PublishMirror(ctx, job)

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.RetryCount != 1 || done.Error != "" {
		t.Errorf("job = %+v", done)
	}
}

func TestQueue_NewerJobSupersedesPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newTestStore(t, 0)
	q := NewQueue(10, store, WithWorkers(1))
	defer q.Close()

	older := &jobs.MirrorJob{TransactionID: "t1", Action: jobs.MirrorUpsert}
	newer := &jobs.MirrorJob{TransactionID: "t1", Action: jobs.MirrorArchive}
	other := &jobs.MirrorJob{TransactionID: "t2", Action: jobs.MirrorUpsert}
	for _, job := range []*jobs.MirrorJob{older, newer, other} {
		if err := q.PublishMirror(ctx, job); err != nil {
			t.Fatalf("PublishMirror failed: %v", err)
		}
	}

	var ran []string
	q.Start(ctx, func(ctx context.Context, job *jobs.MirrorJob) error {
		ran = append(ran, job.TransactionID+":"+string(job.Action))
		return nil
	})

	waitForStatus(t, store, older.JobID, jobs.JobStatusSuperseded)
	waitForStatus(t, store, newer.JobID, jobs.JobStatusCompleted)
	waitForStatus(t, store, other.JobID, jobs.JobStatusCompleted)
	if len(ran) != 2 || ran[0] != "t1:archive" || ran[1] != "t2:upsert" {
		t.Errorf("ran = %v", ran)
	}
}

func TestQueue_PublishAfterStop(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := q.PublishMirror(context.Background(), &jobs.MirrorJob{TransactionID: "t1"}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("PublishMirror err = %v, want ErrQueueClosed", err)
	}
	if err := q.Start(context.Background(), func(context.Context, *jobs.MirrorJob) error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Start err = %v, want ErrQueueClosed", err)
	}
}

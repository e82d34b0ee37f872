// Package jobs describes the background work that mirrors record store
// changes to Notion.
package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned by a JobStore for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// JobStatus is where a mirror job is in its lifecycle.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusRetrying marks an attempt that failed and was rescheduled.
	JobStatusRetrying JobStatus = "retrying"
	// JobStatusSuperseded marks a job skipped because a newer job for the same
	// transaction was published before it ran.
	JobStatusSuperseded JobStatus = "superseded"
)

// Finished reports whether s is terminal.
func (s JobStatus) Finished() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusSuperseded:
		return true
	default:
		return false
	}
}

// MirrorAction is what the mirror should do with the transaction's page.
type MirrorAction string

const (
	// MirrorUpsert writes the transaction's current fields to its page.
	MirrorUpsert MirrorAction = "upsert"
	// MirrorArchive archives the page of a deleted transaction.
	MirrorArchive MirrorAction = "archive"
)

// MirrorJob mirrors one transaction update or delete to Notion. Every attempt
// reads the transaction's state at run time, so only the newest job per
// transaction needs to run.
type MirrorJob struct {
	JobID         string       `json:"job_id"`
	TransactionID string       `json:"transaction_id"`
	Action        MirrorAction `json:"action"`
	Status        JobStatus    `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds the last attempt's failure.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Publisher enqueues mirror jobs.
type Publisher interface {
	PublishMirror(ctx context.Context, job *MirrorJob) error
	Close() error
}

// Consumer runs a handler over queued jobs.
type Consumer interface {
	// Start launches the workers. handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler applies one mirror job. A returned error schedules a retry
// while the job has retries left.
type JobHandler func(ctx context.Context, job *MirrorJob) error

// JobStore tracks job state for the jobs endpoints.
type JobStore interface {
	SaveJob(ctx context.Context, job *MirrorJob) error
	GetJob(ctx context.Context, jobID string) (*MirrorJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*MirrorJob, error)
}

// JobFilter narrows ListJobs. Zero fields match everything.
type JobFilter struct {
	TransactionID string
	Status        JobStatus
	Limit         int
	Offset        int
}

// Package inmemory runs mirror jobs on goroutines inside the api process and
// keeps their history in a bounded in-memory store.
package inmemory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dvloznov/nett/internal/jobs"
)

// DefaultStoreSize is how many jobs a Store remembers.
const DefaultStoreSize = 1000

type record struct {
	seq uint64
	job jobs.MirrorJob
}

// Store keeps the most recently written jobs. Once full, saving a new job
// evicts the least recently written one. History is lost on restart.
type Store struct {
	mu      sync.Mutex
	seq     uint64
	records *lru.Cache[string, record]
}

// NewStore creates a store remembering up to size jobs; size <= 0 selects
// DefaultStoreSize.
func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultStoreSize
	}
	records, err := lru.New[string, record](size)
	if err != nil {
		return nil, fmt.Errorf("NewStore: %w", err)
	}
	return &Store{records: records}, nil
}

// SaveJob implements jobs.JobStore. A job keeps its position in listings
// across saves.
func (s *Store) SaveJob(ctx context.Context, job *jobs.MirrorJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records.Peek(job.JobID)
	if !ok {
		s.seq++
		rec.seq = s.seq
	}
	rec.job = *job
	s.records.Add(job.JobID, rec)
	return nil
}

// GetJob implements jobs.JobStore.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.MirrorJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records.Peek(jobID)
	if !ok {
		return nil, fmt.Errorf("GetJob: %w: %s", jobs.ErrJobNotFound, jobID)
	}
	job := rec.job
	return &job, nil
}

// ListJobs implements jobs.JobStore. Jobs are returned in publish order.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.MirrorJob, error) {
	s.mu.Lock()
	recs := s.records.Values()
	s.mu.Unlock()

	slices.SortFunc(recs, func(a, b record) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})

	result := []*jobs.MirrorJob{}
	for _, rec := range recs {
		if filter.TransactionID != "" && rec.job.TransactionID != filter.TransactionID {
			continue
		}
		if filter.Status != "" && rec.job.Status != filter.Status {
			continue
		}
		job := rec.job
		result = append(result, &job)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.MirrorJob{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Len returns how many jobs are remembered.
func (s *Store) Len() int {
	return s.records.Len()
}

var _ jobs.JobStore = (*Store)(nil)

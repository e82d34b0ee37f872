package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/nett/internal/api/middleware"
	"github.com/dvloznov/nett/internal/jobs"
)

// maxJobsPage caps the limit parameter of GET /api/jobs.
const maxJobsPage = 100

var jobStatuses = []jobs.JobStatus{
	jobs.JobStatusPending,
	jobs.JobStatusRunning,
	jobs.JobStatusCompleted,
	jobs.JobStatusFailed,
	jobs.JobStatusRetrying,
	jobs.JobStatusSuperseded,
}

// JobsHandler exposes mirror job history.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
	case err != nil:
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to load mirror job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load job")
	default:
		middleware.WriteJSON(w, http.StatusOK, job)
	}
}

// ListJobs handles GET /api/jobs?transaction_id=&status=&limit=&offset=
//
// The response carries the page of jobs and a per-status tally of that page.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter, err := jobFilterFromQuery(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list mirror jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	if page == nil {
		page = []*jobs.MirrorJob{}
	}

	byStatus := make(map[jobs.JobStatus]int)
	for _, job := range page {
		byStatus[job.Status]++
	}

	middleware.WriteJSON(w, http.StatusOK, struct {
		Jobs     []*jobs.MirrorJob      `json:"jobs"`
		Count    int                    `json:"count"`
		ByStatus map[jobs.JobStatus]int `json:"by_status"`
	}{page, len(page), byStatus})
}

func jobFilterFromQuery(q url.Values) (jobs.JobFilter, error) {
	filter := jobs.JobFilter{
		TransactionID: q.Get("transaction_id"),
		Limit:         maxJobsPage,
	}

	if s := q.Get("status"); s != "" {
		status := jobs.JobStatus(s)
		if !slices.Contains(jobStatuses, status) {
			return filter, fmt.Errorf("Unknown job status %q", s)
		}
		filter.Status = status
	}

	var err error
	if filter.Limit, err = nonNegative(q, "limit", maxJobsPage); err != nil {
		return filter, err
	}
	if filter.Limit == 0 || filter.Limit > maxJobsPage {
		filter.Limit = maxJobsPage
	}
	if filter.Offset, err = nonNegative(q, "offset", 0); err != nil {
		return filter, err
	}
	return filter, nil
}

// nonNegative reads an optional integer parameter, returning def when absent.
func nonNegative(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("Invalid %s %q", key, raw)
	}
	return n, nil
}

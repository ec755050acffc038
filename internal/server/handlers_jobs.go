package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/catalog-enricher/internal/db"
	"github.com/jonathan/catalog-enricher/internal/enrichment"
	"github.com/jonathan/catalog-enricher/internal/types"
)

// JobSummary describes a finished run
type JobSummary struct {
	JobID        string          `json:"job_id"`
	Name         string          `json:"name"`
	Status       types.JobStatus `json:"status"`
	ProductCount int             `json:"product_count"`
	Enriched     int             `json:"enriched"`
	Failed       int             `json:"failed"`
	Message      string          `json:"message"`
}

func newJobSummary(job *types.Job) JobSummary {
	return JobSummary{
		JobID:        job.ID,
		Name:         job.Name,
		Status:       job.Status,
		ProductCount: job.ProductCount,
		Enriched:     job.CountByStatus(types.ProductEnriched),
		Failed:       job.CountByStatus(types.ProductFailed),
		Message:      enrichment.SummaryMessage(job),
	}
}

// CreateJobResponse is returned when a background run is accepted
type CreateJobResponse struct {
	JobID        string          `json:"job_id"`
	Name         string          `json:"name"`
	Status       types.JobStatus `json:"status"`
	ProductCount int             `json:"product_count"`
}

// ProgressResponse is the latest progress of a job
type ProgressResponse struct {
	enrichment.Progress
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

// JobListResponse is the job history
type JobListResponse struct {
	Jobs  []types.Job `json:"jobs"`
	Count int         `json:"count"`
}

// newRun validates the input and registers a session for it
func (s *Server) newRun(in *jobInput) (enrichment.RunRequest, *session, error) {
	if len(in.records) == 0 {
		return enrichment.RunRequest{}, nil, enrichment.ErrNoRecords
	}
	if err := in.config.Validate(); err != nil {
		return enrichment.RunRequest{}, nil, err
	}

	req := enrichment.RunRequest{
		JobID:   uuid.NewString(),
		Name:    in.name,
		Records: in.records,
		Config:  in.config,
	}
	sess := s.sessions.start(s.orchestrator.NewJob(req))
	req.OnProgress = sess.setProgress
	return req, sess, nil
}

// handleCreateJob starts a run in the background and returns immediately
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	in, err := s.parseJobInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, sess, err := s.newRun(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	pending := sess.pendingJob()
	s.logger.Printf("[jobs] starting job %s (%s): %d records", pending.ID, pending.Name, len(req.Records))

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		job, err := s.orchestrator.Run(s.baseCtx, req)
		if err != nil {
			s.logger.Printf("[jobs] job %s failed to start: %v", req.JobID, err)
		}
		sess.finish(job, err, s.logger)
	}()

	s.jsonResponse(w, http.StatusAccepted, CreateJobResponse{
		JobID:        req.JobID,
		Name:         pending.Name,
		Status:       types.JobProcessing,
		ProductCount: len(req.Records),
	})
}

// handleCreateJobStream starts a job and streams its progress as SSE. The run
// itself is not tied to the request: a client that disconnects stops
// receiving events while every record is still processed.
func (s *Server) handleCreateJobStream(w http.ResponseWriter, r *http.Request) {
	in, err := s.parseJobInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, sess, err := s.newRun(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	stream, err := newJobStream(w, req.JobID)
	if err != nil {
		sess.finish(nil, err, s.logger)
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	req.OnProgress = func(p enrichment.Progress) {
		sess.setProgress(p)
		stream.progress(p)
	}

	type outcome struct {
		job *types.Job
		err error
	}
	done := make(chan outcome, 1)

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		job, err := s.orchestrator.Run(s.baseCtx, req)
		if err != nil {
			s.logger.Printf("[jobs] streamed job %s failed: %v", req.JobID, err)
		}
		sess.finish(job, err, s.logger)
		done <- outcome{job: job, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			stream.fail(res.err)
			return
		}
		stream.complete(newJobSummary(res.job))
	case <-r.Context().Done():
		stream.detach()
		s.logger.Printf("[jobs] client left stream of job %s; run continues", req.JobID)
	}
}

// handleGetJob returns a job with its products
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.db.GetJob(r.Context(), id)
	if err == nil {
		s.jsonResponse(w, http.StatusOK, job)
		return
	}
	// a job accepted moments ago may not be recorded yet
	if sess, ok := s.sessions.get(id); ok {
		if pending := sess.pendingJob(); pending != nil {
			s.jsonResponse(w, http.StatusOK, pending)
			return
		}
	}
	s.writeError(w, r, err)
}

// handleJobProgress returns the latest progress of a job
func (s *Server) handleJobProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if sess, ok := s.sessions.get(id); ok {
		progress, running, runErr := sess.snapshot()
		if running || progress.JobID != "" {
			resp := ProgressResponse{Progress: progress, Running: running}
			if runErr != nil {
				resp.Error = errorMessage(runErr)
			}
			s.jsonResponse(w, http.StatusOK, resp)
			return
		}
	}

	job, err := s.db.GetJob(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ProgressResponse{Progress: finishedProgress(job)})
}

func finishedProgress(job *types.Job) enrichment.Progress {
	p := enrichment.Progress{JobID: job.ID, Total: job.ProductCount}
	if job.Status != types.JobProcessing {
		p.Index = job.ProductCount
		p.Completed = job.ProductCount
		p.Percent = 100
	}
	return p
}

// handleListJobs returns the job history, newest first
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.JobFilter{
		Query:  q.Get("q"),
		Status: types.JobStatus(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		s.writeError(w, r, &ErrValidation{Field: "status", Message: "unknown job status " + strconv.Quote(string(filter.Status))})
		return
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, r, &ErrValidation{Field: "limit", Message: "must be a non-negative integer"})
			return
		}
		filter.Limit = limit
	}

	jobs, err := s.db.ListJobs(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []types.Job{}
	}
	s.jsonResponse(w, http.StatusOK, JobListResponse{Jobs: jobs, Count: len(jobs)})
}

// handleDashboard returns the dashboard metrics
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

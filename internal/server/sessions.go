package server

import (
	"log"
	"sync"

	"github.com/jonathan/catalog-enricher/internal/enrichment"
	"github.com/jonathan/catalog-enricher/internal/review"
	"github.com/jonathan/catalog-enricher/internal/types"
)

// session is the in-process state of one job: its progress while running
// and its review store once finalized. Each session has its own lock.
type session struct {
	mu       sync.Mutex
	pending  *types.Job
	progress enrichment.Progress
	running  bool
	err      error
	store    *review.Store
}

func (s *session) setProgress(p enrichment.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = p
}

// finish records the outcome of a run. A finalized job gets a review store.
func (s *session) finish(job *types.Job, err error, logger *log.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.err = err
	if job != nil && s.store == nil {
		s.store = review.NewStore(job, logger)
	}
}

func (s *session) snapshot() (progress enrichment.Progress, running bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress, s.running, s.err
}

func (s *session) reviewStore() *review.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

func (s *session) pendingJob() *types.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil || !s.running {
		return nil
	}
	job := *s.pending
	return &job
}

// sessions maps job ids to their session
type sessions struct {
	mu   sync.RWMutex
	byID map[string]*session
}

func newSessions() *sessions {
	return &sessions{byID: make(map[string]*session)}
}

// start registers a running job
func (r *sessions) start(job *types.Job) *session {
	sess := &session{
		pending: job,
		running: true,
		progress: enrichment.Progress{
			JobID: job.ID,
			Total: job.ProductCount,
		},
	}
	r.mu.Lock()
	r.byID[job.ID] = sess
	r.mu.Unlock()
	return sess
}

func (r *sessions) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byID[id]
	return sess, ok
}

// attach returns the review store of job, creating the session and the store
// when neither exists yet. Concurrent callers get the same store.
func (r *sessions) attach(job *types.Job, logger *log.Logger) *review.Store {
	r.mu.Lock()
	sess, ok := r.byID[job.ID]
	if !ok {
		sess = &session{}
		r.byID[job.ID] = sess
	}
	r.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.store == nil {
		sess.store = review.NewStore(job, logger)
	}
	return sess.store
}

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/jonathan/catalog-enricher/internal/enrichment"
)

// client reconnect delay advertised on the first frame
const sseRetryMillis = 3000

// jobStream writes a job's progress as Server-Sent Events. Every frame gets
// a sequential id so a client can tell where a dropped stream stopped.
type jobStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	jobID   string
	seq     int
	closed  bool
}

// StreamError is the payload of an error event
type StreamError struct {
	JobID  string `json:"job_id"`
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// newJobStream sets the event-stream headers and announces the retry delay
func newJobStream(w http.ResponseWriter, jobID string) (*jobStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("X-Job-ID", jobID)
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", sseRetryMillis); err != nil {
		return nil, err
	}
	flusher.Flush()
	return &jobStream{w: w, flusher: flusher, jobID: jobID}, nil
}

// send writes one frame. Frames after the terminal event or after detach are dropped.
func (s *jobStream) send(event string, data any, terminal bool) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.seq++
	if terminal {
		s.closed = true
	}
	if _, err := fmt.Fprintf(s.w, "id: %s-%d\nevent: %s\ndata: %s\n\n", s.jobID, s.seq, event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// detach stops all further writes. It returns once no frame is in flight,
// after which the ResponseWriter is no longer touched.
func (s *jobStream) detach() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *jobStream) progress(p enrichment.Progress) {
	s.send("progress", p, false) //nolint:errcheck
}

func (s *jobStream) fail(err error) {
	s.send("error", StreamError{ //nolint:errcheck
		JobID:  s.jobID,
		Status: HTTPStatus(err),
		Error:  errorMessage(err),
	}, true)
}

func (s *jobStream) complete(summary JobSummary) {
	s.send("complete", summary, true) //nolint:errcheck
}

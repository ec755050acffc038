package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jonathan/catalog-enricher/internal/export"
	"github.com/jonathan/catalog-enricher/internal/review"
	"github.com/jonathan/catalog-enricher/internal/types"
)

// EditRequest is the body of PATCH /jobs/{id}/review/products/{pid}
type EditRequest struct {
	Field types.EditableField `json:"field" validate:"required"`
	Value string              `json:"value" validate:"max=10000"`
}

// ApproveResponse reports how many products were approved
type ApproveResponse struct {
	Approved int          `json:"approved"`
	Review   review.State `json:"review"`
}

// reviewStore returns the review store of a finalized job
func (s *Server) reviewStore(ctx context.Context, id string) (*review.Store, error) {
	if sess, ok := s.sessions.get(id); ok {
		if store := sess.reviewStore(); store != nil {
			return store, nil
		}
		if _, running, _ := sess.snapshot(); running {
			return nil, &ErrJobInProgress{JobID: id}
		}
	}

	job, err := s.db.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status == types.JobProcessing {
		return nil, &ErrJobInProgress{JobID: id}
	}
	return s.sessions.attach(job, s.logger), nil
}

// withReview resolves the job's review store before calling fn
func (s *Server) withReview(fn func(w http.ResponseWriter, r *http.Request, store *review.Store)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := s.reviewStore(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		fn(w, r, store)
	}
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	s.withReview(func(w http.ResponseWriter, _ *http.Request, store *review.Store) {
		s.jsonResponse(w, http.StatusOK, store.Snapshot())
	})(w, r)
}

func (s *Server) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	s.withReview(func(w http.ResponseWriter, _ *http.Request, store *review.Store) {
		store.ToggleAll()
		s.jsonResponse(w, http.StatusOK, store.Snapshot())
	})(w, r)
}

func (s *Server) handleToggleProduct(w http.ResponseWriter, r *http.Request) {
	s.withReview(func(w http.ResponseWriter, r *http.Request, store *review.Store) {
		pid := r.PathValue("pid")
		if !store.ToggleOne(pid) {
			s.writeError(w, r, &ErrProductNotFound{JobID: store.JobID(), ProductID: pid})
			return
		}
		s.jsonResponse(w, http.StatusOK, store.Snapshot())
	})(w, r)
}

func (s *Server) handleExpandProduct(w http.ResponseWriter, r *http.Request) {
	s.withReview(func(w http.ResponseWriter, r *http.Request, store *review.Store) {
		pid := r.PathValue("pid")
		if !store.Expand(pid) {
			s.writeError(w, r, &ErrProductNotFound{JobID: store.JobID(), ProductID: pid})
			return
		}
		s.jsonResponse(w, http.StatusOK, store.Snapshot())
	})(w, r)
}

// handleEditProduct applies one inline edit
func (s *Server) handleEditProduct(w http.ResponseWriter, r *http.Request) {
	s.withReview(func(w http.ResponseWriter, r *http.Request, store *review.Store) {
		pid := r.PathValue("pid")

		var req EditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, r, &ErrValidation{Field: "body", Message: err.Error()})
			return
		}
		if err := s.validate.Struct(&req); err != nil {
			s.writeError(w, r, err)
			return
		}

		if _, ok := store.Product(pid); !ok {
			s.writeError(w, r, &ErrProductNotFound{JobID: store.JobID(), ProductID: pid})
			return
		}
		if !store.Edit(pid, req.Field, req.Value) {
			s.writeError(w, r, &ErrProductNotEditable{ProductID: pid})
			return
		}

		product, _ := store.Product(pid)
		s.jsonResponse(w, http.StatusOK, product)
	})(w, r)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.withReview(func(w http.ResponseWriter, _ *http.Request, store *review.Store) {
		n := store.ApproveSelected()
		s.jsonResponse(w, http.StatusOK, ApproveResponse{Approved: n, Review: store.Snapshot()})
	})(w, r)
}

// handleSaveReview writes the reviewed products back to the job history
func (s *Server) handleSaveReview(w http.ResponseWriter, r *http.Request) {
	s.withReview(func(w http.ResponseWriter, r *http.Request, store *review.Store) {
		if err := store.Save(r.Context(), s.db); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, store.Snapshot())
	})(w, r)
}

// handleExport streams the selected-or-approved products as an attachment.
// An empty subset produces 204 and no file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.withReview(func(w http.ResponseWriter, r *http.Request, store *review.Store) {
		raw := r.URL.Query().Get("format")
		if raw == "" {
			raw = string(export.FormatCSV)
		}
		format, err := export.ParseFormat(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		payload, err := s.formatter.Export(context.WithoutCancel(r.Context()), store.Products(), store.Selection(), format)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if payload == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		s.logger.Printf("[export] job %s: %s", store.JobID(), payload.Message())
		w.Header().Set("Content-Type", payload.MIMEType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+payload.Filename+`"`)
		w.Header().Set("X-Export-Count", strconv.Itoa(payload.Count))
		w.Header().Set("X-Export-Message", payload.Message())
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(payload.Data); err != nil {
			s.logger.Printf("[export] job %s: failed to write payload: %v", store.JobID(), err)
		}
	})(w, r)
}

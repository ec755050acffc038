package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jonathan/catalog-enricher/internal/catalog"
	"github.com/jonathan/catalog-enricher/internal/types"
)

// maxUploadBytes bounds catalog uploads
const maxUploadBytes = 32 << 20

// CreateJobRequest is the JSON body of POST /jobs
type CreateJobRequest struct {
	Name    string                  `json:"name" validate:"max=200"`
	Records []types.RawRecord       `json:"records" validate:"required_without=Sample"`
	Sample  bool                    `json:"sample"`
	Config  *types.EnrichmentConfig `json:"config"`
}

// jobInput is a parsed upload ready to run
type jobInput struct {
	name    string
	records []types.RawRecord
	config  types.EnrichmentConfig
}

// parseJobInput accepts either a multipart upload (a "file" part, an optional
// "config" JSON field and an optional "sample" flag) or a JSON body.
func (s *Server) parseJobInput(w http.ResponseWriter, r *http.Request) (*jobInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return s.parseMultipart(w, r)
	}

	var req CreateJobRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := s.validate.Struct(&req); err != nil {
		return nil, err
	}

	in := &jobInput{name: req.Name, records: req.Records, config: s.defaults}
	if req.Config != nil {
		in.config = *req.Config
	}
	if req.Sample && len(in.records) == 0 {
		in.records = catalog.SampleRecords()
		if in.name == "" {
			in.name = types.DefaultJobName
		}
	}
	return in, nil
}

func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) (*jobInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid multipart form: " + err.Error()}
	}

	in := &jobInput{name: strings.TrimSpace(r.FormValue("name")), config: s.defaults}
	if raw := r.FormValue("config"); raw != "" {
		var cfg types.EnrichmentConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, &ErrValidation{Field: "config", Message: "invalid JSON: " + err.Error()}
		}
		in.config = cfg
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		if r.FormValue("sample") != "true" {
			return nil, &ErrValidation{Field: "file", Message: "a CSV or JSON file is required"}
		}
		in.records = catalog.SampleRecords()
		if in.name == "" {
			in.name = types.DefaultJobName
		}
		return in, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	defer file.Close()

	records, err := catalog.ParseReader(header.Filename, file)
	if err != nil {
		return nil, err
	}
	in.records = records
	if in.name == "" {
		in.name = filepath.Base(header.Filename)
	}
	return in, nil
}

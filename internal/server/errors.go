package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/catalog-enricher/internal/catalog"
	"github.com/jonathan/catalog-enricher/internal/db"
	"github.com/jonathan/catalog-enricher/internal/enrichment"
	"github.com/jonathan/catalog-enricher/internal/export"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrJobInProgress indicates the job has not been finalized yet
type ErrJobInProgress struct {
	JobID string
}

func (e *ErrJobInProgress) Error() string {
	return fmt.Sprintf("job %s is still processing", e.JobID)
}

// ErrProductNotFound indicates the product is not part of the job
type ErrProductNotFound struct {
	JobID     string
	ProductID string
}

func (e *ErrProductNotFound) Error() string {
	return fmt.Sprintf("product %s not found in job %s", e.ProductID, e.JobID)
}

// ErrProductNotEditable indicates an edit to a product that failed enrichment
type ErrProductNotEditable struct {
	ProductID string
}

func (e *ErrProductNotEditable) Error() string {
	return fmt.Sprintf("product %s failed enrichment and cannot be edited", e.ProductID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		fieldErrs     validator.ValidationErrors
		parseErr      *catalog.ParseError
		inProgress    *ErrJobInProgress
		noProduct     *ErrProductNotFound
		notEditable   *ErrProductNotEditable
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &fieldErrs), errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.Is(err, enrichment.ErrNoRecords), errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound), errors.As(err, &noProduct):
		return http.StatusNotFound
	case errors.Is(err, db.ErrJobFinalized), errors.As(err, &inProgress), errors.As(err, &notEditable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the client-facing text for err. Parse errors carry their
// own operator-facing message; internal errors are not exposed.
func errorMessage(err error) string {
	var parseErr *catalog.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Message
	}
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

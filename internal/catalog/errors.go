// Package catalog parses uploaded product catalogs (CSV or JSON) into ordered records.
package catalog

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a parse failure
type ErrorKind string

// ErrorKind constants
const (
	KindInvalidFormat    ErrorKind = "invalid_format"
	KindInsufficientRows ErrorKind = "insufficient_rows"
	KindUnsupportedType  ErrorKind = "unsupported_type"
	KindReadError        ErrorKind = "read_error"
)

// Sentinel errors for errors.Is matching against a *ParseError
var (
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInsufficientRows = errors.New("insufficient rows")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrReadError        = errors.New("read error")
)

// ParseError represents a failure to turn an upload into records
type ParseError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel for the error's kind
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrInvalidFormat:
		return e.Kind == KindInvalidFormat
	case ErrInsufficientRows:
		return e.Kind == KindInsufficientRows
	case ErrUnsupportedType:
		return e.Kind == KindUnsupportedType
	case ErrReadError:
		return e.Kind == KindReadError
	}
	return false
}

package store

import (
	"fmt"
	"net/http"
)

// Error is a storage failure the API can render directly.
type Error struct {
	Status  int    // HTTP status for the API
	Message string // safe to show to clients
	Err     error  // cause, not shown to clients
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPCode returns the HTTP status for the error.
func (e *Error) HTTPCode() int { return e.Status }

// WithCause returns a copy of the sentinel e carrying err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Status: e.Status, Message: e.Message, Err: err}
}

// Is matches a sentinel against any copy made from it with WithCause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (t.Err == nil && e.Status == t.Status && e.Message == t.Message)
}

// Sentinel errors.
var (
	ErrNotFound      = &Error{Status: http.StatusNotFound, Message: "resource not found"}
	ErrAlreadyExists = &Error{Status: http.StatusConflict, Message: "resource already exists"}
	ErrInvalidInput  = &Error{Status: http.StatusBadRequest, Message: "invalid input"}
)

// Entity-specific not-found errors. They wrap ErrNotFound so callers can
// match either.
var (
	ErrLibraryNotFound = fmt.Errorf("library %w", ErrNotFound)
	ErrSeriesNotFound  = fmt.Errorf("series %w", ErrNotFound)
	ErrBookNotFound    = fmt.Errorf("book %w", ErrNotFound)
)

// Package apperr defines the closed error taxonomy shared by the services
// and the HTTP boundary. Services return *Error values; handlers map them to
// status codes. The wrapped cause is for logs only and is never serialized
// into a response body.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error into the closed taxonomy.
type Kind int

const (
	// KindInternal is the catch-all for infrastructure failures (500).
	KindInternal Kind = iota
	// KindValidation carries field-level detail for rejected input (422).
	KindValidation
	// KindBadRequest rejects a well-formed but unacceptable request (400).
	KindBadRequest
	// KindNotFound reports a missing record (404).
	KindNotFound
	// KindUnauthorized rejects a request without valid credentials (401).
	KindUnauthorized
	// KindForbidden rejects an authenticated caller lacking the role (403).
	KindForbidden
	// KindUpload reports a failure talking to the asset store during upload.
	KindUpload
)

// Error is a typed service error.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string // field-level detail, validation errors only
	Err     error             // wrapped cause, logged but never returned to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind to an HTTP status code. Infrastructure kinds
// surface as 500 so provider details never leak through the status line.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a 422 error carrying per-field messages.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error { return New(KindBadRequest, message) }

// NotFound creates a 404 error.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Unauthorized creates a 401 error.
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

// Forbidden creates a 403 error.
func Forbidden(message string) *Error { return New(KindForbidden, message) }

// Internal wraps an infrastructure failure as a 500.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

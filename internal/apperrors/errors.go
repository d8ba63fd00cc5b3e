// Package apperrors carries the error taxonomy shared by repositories,
// handlers and clients: a small closed set of kinds, each with a stable HTTP
// mapping. Backend failures are classified here instead of leaking driver
// errors to the API surface.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers that need to branch or map to a
// transport status.
type Kind string

const (
	NotFound        Kind = "not_found"
	Conflict        Kind = "conflict"
	InvalidArgument Kind = "invalid_argument"
	Unauthenticated Kind = "unauthenticated"
	Transient       Kind = "transient"
	Unknown         Kind = "unknown"
)

// Error is a classified error. It wraps an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two classified errors by kind and message, so sentinel values
// declared with New work with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind && e.Msg == other.Msg
}

// New builds a classified sentinel error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches a classification to an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Errorf builds a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification of err, or Unknown when it carries none.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return Unknown
}

// HTTPStatus maps a kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case InvalidArgument:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Transient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// StatusFor is the common handler path: classify err and return its status.
func StatusFor(err error) int {
	return HTTPStatus(KindOf(err))
}

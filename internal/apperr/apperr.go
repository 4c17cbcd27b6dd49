package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain failure carrying the HTTP status the boundary layer
// should respond with. Core packages return these; handlers convert them.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New constructs an Error with an explicit status.
func New(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// Validation reports missing or malformed input (400).
func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, format, args...)
}

// Unauthorized reports bad credentials or an unusable token (401).
func Unauthorized(format string, args ...any) *Error {
	return New(http.StatusUnauthorized, format, args...)
}

// Forbidden reports a role or permission denial (403).
func Forbidden(format string, args ...any) *Error {
	return New(http.StatusForbidden, format, args...)
}

// NotFound reports a missing resource (404).
func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, format, args...)
}

// Conflict reports a duplicate identity or resource (409).
func Conflict(format string, args ...any) *Error {
	return New(http.StatusConflict, format, args...)
}

// Internal reports an unexpected failure (500).
func Internal(format string, args ...any) *Error {
	return New(http.StatusInternalServerError, format, args...)
}

// StatusOf returns the HTTP status carried by err, or 500 when err is not
// an application error.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the message safe to surface to clients. Unexpected
// errors collapse to a generic message so internals never leak.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

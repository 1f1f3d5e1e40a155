// Package errors provides structured error handling with context propagation and HTTP status code mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error for logging, metrics and status mapping.
type ErrorType string

const (
	// TypeValidation indicates invalid input (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeNotFound indicates resource not found (HTTP 200, reported in the body)
	TypeNotFound ErrorType = "not_found"
	// TypeForbidden indicates the caller may not perform the action (HTTP 200, reported in the body)
	TypeForbidden ErrorType = "forbidden"
	// TypeConflict indicates the resource state rejects the action (HTTP 200, reported in the body)
	TypeConflict ErrorType = "conflict"
	// TypeInternal indicates server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
)

// Wire codes sent in the "error" field of a response.
const (
	CodeValidation        = "validation"
	CodeNotFound          = "not_found"
	CodeForbidden         = "forbidden"
	CodeSessionNotPending = "session_not_pending"
	CodeEmpty             = "empty"
	CodeInternal          = "internal"
	CodeRateLimited       = "rate_limited"
)

// Error represents a structured error with type, wire code, message, and context.
type Error struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the HTTP status code for this error type. Domain
// outcomes (not found, forbidden, conflict) are answered with 200 and carry
// their code in the body; only malformed requests and server faults use a
// non-2xx status.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound, TypeForbidden, TypeConflict:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

func newError(t ErrorType, code, message string, cause error) *Error {
	return &Error{
		Type:    t,
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// ValidationError creates a new validation error (HTTP 400).
func ValidationError(message string) *Error {
	return newError(TypeValidation, CodeValidation, message, nil)
}

// NotFoundError creates a new not-found error.
func NotFoundError(message string) *Error {
	return newError(TypeNotFound, CodeNotFound, message, nil)
}

// ForbiddenError creates a new forbidden error.
func ForbiddenError(message string) *Error {
	return newError(TypeForbidden, CodeForbidden, message, nil)
}

// ConflictError creates a new conflict error carrying a specific wire code.
func ConflictError(code, message string) *Error {
	return newError(TypeConflict, code, message, nil)
}

// InternalError creates a new internal error (HTTP 500).
func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, CodeInternal, message, cause)
}

// WithField adds a context field to the error (chainable).
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
// Internal errors never expose their context.
func (e *Error) ToResponse() ErrorResponse {
	resp := ErrorResponse{
		Error:   e.Code,
		Message: e.Message,
	}
	if e.Type != TypeInternal {
		resp.Context = e.Context
	}
	return resp
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged.
// Otherwise wraps it as an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	if structuredErr, ok := errors.AsType[*Error](err); ok {
		return structuredErr
	}

	return InternalError("internal server error", err)
}

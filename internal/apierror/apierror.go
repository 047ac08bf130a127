// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds shared by services and handlers. Services wrap them with a
// user-facing message; handlers map them to an HTTP status.
var (
	ErrValidation = errors.New("validation")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

// Codes travel in the "code" field so clients do not parse messages.
const (
	CodeValidation = "validation_error"
	CodeConflict   = "conflict"
	CodeNotFound   = "not_found"
	CodeForbidden  = "forbidden"
	CodeInternal   = "internal_error"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func NewWithCode(code, msg string) *APIError {
	return &APIError{Detail: msg, Code: code}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Code: CodeValidation, Fields: fields}
}

// kindError carries a user-facing message and a kind sentinel.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func Validation(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &kindError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &kindError{kind: ErrForbidden, msg: fmt.Sprintf(format, args...)}
}

// Status maps an error produced by a service to the HTTP status and envelope
// to render. Unknown errors become a generic 500 without internal detail.
func Status(err error) (int, *APIError) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity, NewWithCode(CodeValidation, err.Error())
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, NewWithCode(CodeConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, NewWithCode(CodeNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, NewWithCode(CodeForbidden, err.Error())
	default:
		return http.StatusInternalServerError, NewWithCode(CodeInternal, "Error interno del servidor")
	}
}

package cajaclient

import (
	"errors"
	"fmt"
)

// ErrStale is returned by SummaryLoader.Load when a newer load started
// before this one finished. The response is discarded.
var ErrStale = errors.New("cajaclient: respuesta obsoleta descartada")

// ErrNoSession is wrapped in a TransportError when a call needs a token
// and the session is logged out.
var ErrNoSession = errors.New("cajaclient: sesión no iniciada")

// ValidationError is raised before any network call when the input is
// invalid, or by the backend on 400/404/422. The caller corrects the input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ConflictError means the backend rejected the operation against current
// state: a closing already exists or stock changed. The caller must re-fetch
// the summary or stock before retrying.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// TransportError covers network failures, 5xx responses, an open circuit
// breaker and authentication failures. Nothing is retried automatically.
type TransportError struct {
	Op           string
	Status       int
	Unauthorized bool
	Err          error
}

func (e *TransportError) Error() string {
	switch {
	case e.Unauthorized:
		return fmt.Sprintf("%s: no autorizado", e.Op)
	case e.Status != 0:
		return fmt.Sprintf("%s: el servidor respondió %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

func validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

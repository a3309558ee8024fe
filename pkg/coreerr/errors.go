// Package coreerr defines the typed error taxonomy shared by every
// component of the orchestration core (spec §7). Components return these
// sentinel values (or wrap them with context via fmt.Errorf("...: %w", err))
// so callers can branch with errors.Is / errors.As instead of string
// matching.
package coreerr

import (
	"errors"
	"fmt"
)

var (
	ErrConfig                = errors.New("configuration error")
	ErrValidation            = errors.New("validation error")
	ErrAuthentication        = errors.New("authentication error")
	ErrAuthorization         = errors.New("authorization error")
	ErrToolNotPermitted      = errors.New("tool not permitted")
	ErrApprovalRequired      = errors.New("approval required")
	ErrBackendUnavailable    = errors.New("backend unavailable")
	ErrTimeout               = errors.New("operation timed out")
	ErrRateLimited           = errors.New("rate limited")
	ErrCircuitOpen           = errors.New("circuit open")
	ErrPersistenceCorrupt    = errors.New("persistence corrupt")
	ErrGenerationUnavailable = errors.New("generation unavailable")
	ErrNotFound              = errors.New("not found")
	ErrConflictingState      = errors.New("conflicting state")
	ErrInternal              = errors.New("internal error")
)

// Error wraps a taxonomy kind with a stable code, human message and the
// opaque requestId used to correlate with audit entries (spec §7).
type Error struct {
	Kind      error
	Code      string
	Message   string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return errors.Join(e.Kind, e.Err)
	}
	return e.Kind
}

// New builds a taxonomy error. requestID may be empty; callers that have
// audit context should always supply one.
func New(kind error, code, message, requestID string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, RequestID: requestID}
}

// Wrap attaches a taxonomy kind to an underlying error.
func Wrap(kind error, code, requestID string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: err.Error(), RequestID: requestID, Err: err}
}

// Is reports whether err (or anything it wraps) is classified as kind.
func Is(err error, kind error) bool {
	return errors.Is(err, kind)
}

// Retryable reports whether the error's kind is in the bounded-retry set
// (spec §7): BackendUnavailable, Timeout, RateLimited, CircuitOpen.
func Retryable(err error) bool {
	for _, k := range []error{ErrBackendUnavailable, ErrTimeout, ErrRateLimited, ErrCircuitOpen} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

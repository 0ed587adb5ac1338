package study

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrInvalidEventType  = errors.New("event type must be 'study_session', 'quiz' or 'revision'")
	ErrInvalidTimeFormat = errors.New("time must be in HH:MM format")
	ErrEndBeforeStart    = errors.New("end time must be after start time")
	ErrReservedID        = errors.New("id uses the reserved 'slot-' prefix")
	ErrDailyBudget       = errors.New("daily study budget exceeded")
)

// ValidationError reports bad input detected before any I/O.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// MissingFieldError reports required form fields that resolved empty.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// NotPersistableError is returned when an operation needs a server identity
// the entity does not have (unsaved or slot-derived events).
type NotPersistableError struct {
	Op string
	ID string
}

func (e *NotPersistableError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: event has no persisted id", e.Op)
	}
	return fmt.Sprintf("%s: %q is not a persisted event", e.Op, e.ID)
}

// PersistenceError wraps a failed call to the data store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DecodeError reports a malformed description payload. It is recovered
// locally and never surfaced to callers as a failure.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding description %q: %v", truncate(e.Raw, 40), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

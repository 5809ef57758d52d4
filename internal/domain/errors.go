package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by services and repositories.
var (
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrUnauthenticated       = errors.New("authentication required")
	ErrEventFull             = errors.New("event has reached maximum participants")
	ErrAlreadyJoined         = errors.New("already participating in this event")
	ErrValidation            = errors.New("validation failed")
	ErrRosterExceedsCapacity = errors.New("participants exceed the requested capacity")
)

// FieldError describes one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every constraint an input violated. errors.Is(err, ErrValidation) holds.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError returns a ValidationError for the given violations.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Messages(), "; ")
}

// Messages returns the violation messages in order.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return msgs
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

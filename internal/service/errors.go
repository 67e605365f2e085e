package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrTaskNotFound is returned when no task has the given id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAmbiguousID is returned when an id prefix matches several tasks.
	ErrAmbiguousID = errors.New("ambiguous task id prefix")

	// ErrStorageUnread is returned by Save after a Load that failed to read
	// storage; writing then would replace tasks that were never loaded.
	ErrStorageUnread = errors.New("saved tasks could not be read; not overwriting them")

	// ErrNotRecurring is returned when a recurrence query targets a one-off task.
	ErrNotRecurring = errors.New("task is not recurring")
)

// ValidationError reports a rejected field. Nothing is written when one is
// returned.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

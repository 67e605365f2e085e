package recurrence

import (
	"errors"
	"fmt"
	"time"

	"task-manager/internal/model"
)

// ErrInvalidPattern is matched by every pattern validation failure.
var ErrInvalidPattern = errors.New("invalid recurrence pattern")

// ValidationError names the pattern field that failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidPattern
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks a pattern at creation or edit time. The end date is only
// compared with today here; stored patterns are not re-checked later.
func Validate(p *model.RecurrencePattern, today model.Date) error {
	if err := ValidateShape(p); err != nil {
		return err
	}
	if p.EndDate.Before(today) {
		return invalid("endDate", "End date cannot be in the past")
	}
	return nil
}

// ValidateShape checks the parts of a pattern that hold regardless of the
// current date: a known type, a non-empty day set of weekdays 0-6 for
// weekly and custom patterns, and an end date.
func ValidateShape(p *model.RecurrencePattern) error {
	if p == nil || p.Type == "" {
		return invalid("type", "Recurrence type is required")
	}
	if !p.Type.IsValid() {
		return invalid("type", "Unknown recurrence type %q", p.Type)
	}

	if p.Type.UsesDays() {
		if len(p.Days) == 0 {
			return invalid("days", "Please select at least one day")
		}
		for _, d := range p.Days {
			if d < time.Sunday || d > time.Saturday {
				return invalid("days", "Day %d is not a weekday (expected 0-6)", int(d))
			}
		}
	}

	if p.EndDate == nil || p.EndDate.IsZero() {
		return invalid("endDate", "End date is required for recurring tasks")
	}
	return nil
}

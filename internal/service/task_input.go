package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"task-manager/internal/model"
	"task-manager/internal/recurrence"
)

const (
	maxTitleLength = 500
	maxTagLength   = 64
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title             string                   `json:"title" validate:"required,max=500"`
	Description       string                   `json:"description"`
	Category          model.Category           `json:"category" validate:"required,category"`
	Priority          model.Priority           `json:"priority" validate:"required,priority"`
	DueDate           *model.Date              `json:"dueDate"`
	Tags              []string                 `json:"tags" validate:"dive,max=64"`
	Recurring         bool                     `json:"recurring"`
	RecurrencePattern *model.RecurrencePattern `json:"recurrencePattern"`
}

// TaskPatch lists the mutable task fields. Nil fields are left unchanged.
// A non-nil empty Tags slice clears the tags; ClearDueDate removes the
// deadline.
type TaskPatch struct {
	Title             *string
	Description       *string
	Category          *model.Category
	Priority          *model.Priority
	DueDate           *model.Date
	ClearDueDate      bool
	Tags              []string
	Recurring         *bool
	RecurrencePattern *model.RecurrencePattern
	Completed         *bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return model.Category(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return model.Priority(fl.Field().String()).IsValid()
	})
	return v
}

// normalize trims text fields, fills the default priority and canonicalises
// the recurrence pattern.
func (in TaskInput) normalize() TaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	in.Tags = normalizeTags(in.Tags)
	if in.DueDate != nil && in.DueDate.IsZero() {
		in.DueDate = nil
	}
	if in.RecurrencePattern != nil {
		p := recurrence.CreatePattern(in.RecurrencePattern.Type, in.RecurrencePattern.Days, in.RecurrencePattern.EndDate)
		in.RecurrencePattern = &p
	}
	return in
}

// validateInput checks a normalised input against today's date.
func validateInput(in TaskInput, today model.Date) error {
	if err := validate.Struct(in); err != nil {
		return translateValidation(err)
	}
	return validateRecurrence(in.Recurring, in.RecurrencePattern, today)
}

func validateRecurrence(recurring bool, pattern *model.RecurrencePattern, today model.Date) error {
	switch {
	case recurring:
		if err := recurrence.Validate(pattern, today); err != nil {
			return patternError(err)
		}
	case pattern != nil:
		return validationErrorf("recurring", "A recurrence pattern needs the task to be marked recurring")
	}
	return nil
}

// patternError wraps a recurrence failure under the recurrencePattern field.
func patternError(err error) *ValidationError {
	field := "recurrencePattern"
	var perr *recurrence.ValidationError
	if errors.As(err, &perr) {
		field += "." + perr.Field
	}
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}

// checkField validates a single patched value with the same rules as TaskInput.
func checkField(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return validationErrorf(field, "%s", fieldMessage(field, verrs[0].Tag(), value))
		}
		return err
	}
	return nil
}

func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Field()
	if strings.HasPrefix(field, "tags[") {
		field = "tags"
	}
	return validationErrorf(field, "%s", fieldMessage(field, fe.Tag(), fe.Value()))
}

func fieldMessage(field, tag string, value any) string {
	switch {
	case field == "title" && tag == "required":
		return "Please enter a task title"
	case field == "title" && tag == "max":
		return fmt.Sprintf("Title must be at most %d characters", maxTitleLength)
	case field == "category" && tag == "required":
		return "Please select a category"
	case field == "category":
		return fmt.Sprintf("Unknown category %q", value)
	case field == "priority":
		return fmt.Sprintf("Unknown priority %q", value)
	case field == "tags":
		return fmt.Sprintf("Tags must be at most %d characters", maxTagLength)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, tag)
	}
}

// normalizeTags trims labels and drops empty ones, keeping order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// ParseTags splits a comma separated tag list.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return normalizeTags(strings.Split(raw, ","))
}

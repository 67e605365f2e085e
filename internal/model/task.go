package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Category groups tasks by area of life.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryHealth   Category = "health"
	CategoryShopping Category = "shopping"
	CategoryFinance  Category = "finance"
	CategoryLearning Category = "learning"
)

// Categories returns every valid category in display order.
func Categories() []Category {
	return []Category{CategoryWork, CategoryPersonal, CategoryHealth, CategoryShopping, CategoryFinance, CategoryLearning}
}

// IsValid returns true if the category is a known value.
func (c Category) IsValid() bool {
	return slices.Contains(Categories(), c)
}

// Label returns the capitalised name shown in charts and menus.
func (c Category) Label() string {
	return capitalize(string(c))
}

// ParseCategory normalises and validates user input.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities returns every valid priority, most urgent first.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

func (p Priority) IsValid() bool {
	return slices.Contains(Priorities(), p)
}

// Rank returns the sort rank: high sorts before medium before low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

func (p Priority) Label() string {
	return capitalize(string(p))
}

// ParsePriority normalises and validates user input.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", fmt.Errorf("unknown priority %q", raw)
	}
	return p, nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Task is a single item in the task list.
type Task struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Category          Category           `json:"category"`
	Priority          Priority           `json:"priority"`
	DueDate           *Date              `json:"dueDate"`
	Tags              []string           `json:"tags"`
	Completed         bool               `json:"completed"`
	CompletedAt       *time.Time         `json:"completedAt"`
	Recurring         bool               `json:"recurring"`
	RecurrencePattern *RecurrencePattern `json:"recurrencePattern"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         *time.Time         `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy so callers cannot alias store state.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	if t.Tags != nil {
		out.Tags = slices.Clone(t.Tags)
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		out.CompletedAt = &at
	}
	if t.RecurrencePattern != nil {
		p := t.RecurrencePattern.Clone()
		out.RecurrencePattern = &p
	}
	if t.UpdatedAt != nil {
		at := *t.UpdatedAt
		out.UpdatedAt = &at
	}
	return out
}

// HasDueDate reports whether the task has a deadline.
func (t Task) HasDueDate() bool {
	return t.DueDate != nil && !t.DueDate.IsZero()
}

// ShortID returns a compact identifier for chat and terminal output.
func (t Task) ShortID() string {
	id := strings.TrimPrefix(t.ID, TaskIDPrefix)
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

// TaskIDPrefix starts every generated task id.
const TaskIDPrefix = "task_"

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

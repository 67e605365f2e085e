package model

import (
	"fmt"
	"slices"
	"strings"
)

// Status selects tasks by completion state.
type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

func Statuses() []Status {
	return []Status{StatusAll, StatusActive, StatusCompleted, StatusOverdue}
}

func (s Status) IsValid() bool {
	return slices.Contains(Statuses(), s)
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Filters is the current view selection. An empty Categories set lets every
// category through.
type Filters struct {
	Status     Status     `json:"status"`
	Categories []Category `json:"category"`
	Search     string     `json:"search"`
}

// DefaultFilters shows every task.
func DefaultFilters() Filters {
	return Filters{Status: StatusAll}
}

func (f Filters) Clone() Filters {
	out := f
	out.Categories = slices.Clone(f.Categories)
	return out
}

// SortKey orders task listings.
type SortKey string

const (
	SortByDueDate   SortKey = "dueDate"
	SortByPriority  SortKey = "priority"
	SortByCategory  SortKey = "category"
	SortByCreatedAt SortKey = "createdAt"
)

func SortKeys() []SortKey {
	return []SortKey{SortByDueDate, SortByPriority, SortByCategory, SortByCreatedAt}
}

// ParseSortKey accepts the canonical names case-insensitively, plus "created"
// and "due" as shorthands.
func ParseSortKey(raw string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "duedate", "due":
		return SortByDueDate, nil
	case "priority":
		return SortByPriority, nil
	case "category":
		return SortByCategory, nil
	case "createdat", "created":
		return SortByCreatedAt, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", raw)
	}
}

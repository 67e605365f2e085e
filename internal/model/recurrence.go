package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// RecurrenceType selects how the next occurrence is derived.
type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceCustom  RecurrenceType = "custom"
)

// RecurrenceTypes returns every valid recurrence type.
func RecurrenceTypes() []RecurrenceType {
	return []RecurrenceType{RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceCustom}
}

func (r RecurrenceType) IsValid() bool {
	return slices.Contains(RecurrenceTypes(), r)
}

// UsesDays reports whether the type is driven by a weekday set.
func (r RecurrenceType) UsesDays() bool {
	return r == RecurrenceWeekly || r == RecurrenceCustom
}

func ParseRecurrenceType(raw string) (RecurrenceType, error) {
	r := RecurrenceType(strings.ToLower(strings.TrimSpace(raw)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown recurrence type %q", raw)
	}
	return r, nil
}

func (r *RecurrenceType) UnmarshalText(text []byte) error {
	parsed, err := ParseRecurrenceType(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RecurrencePattern is the rule a recurring task follows. Days holds weekday
// indices (0=Sunday) and is only meaningful for weekly and custom patterns.
type RecurrencePattern struct {
	Type    RecurrenceType `json:"type"`
	Days    []time.Weekday `json:"days"`
	EndDate *Date          `json:"endDate"`
}

func (p RecurrencePattern) Clone() RecurrencePattern {
	out := p
	if p.Days != nil {
		out.Days = slices.Clone(p.Days)
	}
	if p.EndDate != nil {
		end := *p.EndDate
		out.EndDate = &end
	}
	return out
}

package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"task-manager/internal/model"
)

func TestDescribe(t *testing.T) {
	end := model.NewDate(2026, time.December, 31)

	tests := []struct {
		name    string
		pattern *model.RecurrencePattern
		want    string
	}{
		{name: "nil", pattern: nil, want: ""},
		{name: "daily", pattern: &model.RecurrencePattern{Type: model.RecurrenceDaily, EndDate: &end}, want: "Every day until Dec 31, 2026"},
		{
			name:    "weekly",
			pattern: &model.RecurrencePattern{Type: model.RecurrenceWeekly, Days: []time.Weekday{1, 3, 5}, EndDate: &end},
			want:    "Every Mon, Wed, Fri until Dec 31, 2026",
		},
		{name: "monthly", pattern: &model.RecurrencePattern{Type: model.RecurrenceMonthly}, want: "Monthly (on the same date)"},
		{
			name:    "custom",
			pattern: &model.RecurrencePattern{Type: model.RecurrenceCustom, Days: []time.Weekday{1, 3}},
			want:    "Every Monday and Wednesday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.pattern))
		})
	}
}

func TestRRule(t *testing.T) {
	end := model.NewDate(2026, time.December, 31)

	assert.Equal(t, "", RRule(nil))
	assert.Equal(t, "FREQ=DAILY;UNTIL=20261231", RRule(&model.RecurrencePattern{Type: model.RecurrenceDaily, EndDate: &end}))
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=SU,WE;UNTIL=20261231",
		RRule(&model.RecurrencePattern{Type: model.RecurrenceCustom, Days: []time.Weekday{0, 3}, EndDate: &end}))
	assert.Equal(t, "FREQ=MONTHLY", RRule(&model.RecurrencePattern{Type: model.RecurrenceMonthly}))
	assert.Equal(t, "", RRule(&model.RecurrencePattern{Type: model.RecurrenceWeekly}))
}

func TestIsOverdue(t *testing.T) {
	today := model.NewDate(2026, time.October, 19)
	yesterday := today.AddDays(-1)
	tomorrow := today.AddDays(1)

	assert.False(t, IsOverdue(nil, today))
	assert.False(t, IsOverdue(&today, today), "due today is not overdue")
	assert.False(t, IsOverdue(&tomorrow, today))
	assert.True(t, IsOverdue(&yesterday, today))
}

func TestDaysUntilDue(t *testing.T) {
	today := model.NewDate(2026, time.October, 19)

	_, ok := DaysUntilDue(nil, today)
	assert.False(t, ok)

	past := today.AddDays(-3)
	days, ok := DaysUntilDue(&past, today)
	assert.True(t, ok)
	assert.Equal(t, -3, days)

	// Crosses the end of daylight saving time in most zones.
	future := model.NewDate(2026, time.November, 9)
	days, _ = DaysUntilDue(&future, today)
	assert.Equal(t, 21, days)
}

func TestFormatDueText(t *testing.T) {
	today := model.NewDate(2026, time.October, 19)
	at := func(offset int) *model.Date {
		d := today.AddDays(offset)
		return &d
	}

	assert.Equal(t, "", FormatDueText(nil, today))
	assert.Equal(t, "Overdue by 1 day", FormatDueText(at(-1), today))
	assert.Equal(t, "Overdue by 4 days", FormatDueText(at(-4), today))
	assert.Equal(t, "Due today", FormatDueText(at(0), today))
	assert.Equal(t, "Due tomorrow", FormatDueText(at(1), today))
	assert.Equal(t, "Due in 2 days", FormatDueText(at(2), today))
	assert.Equal(t, "Due in 7 days", FormatDueText(at(7), today))
	assert.Equal(t, "Due on Oct 27", FormatDueText(at(8), today))
}

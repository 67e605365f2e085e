package recurrence

import (
	"fmt"
	"strings"
	"time"

	"task-manager/internal/model"
)

const (
	endDateLayout = "Jan 2, 2006"
	icsDateLayout = "20060102"
)

// Describe renders a pattern for humans, e.g. "Every Mon, Wed, Fri until
// Dec 31, 2026". A nil pattern yields "".
func Describe(p *model.RecurrencePattern) string {
	if p == nil {
		return ""
	}

	var display string
	switch p.Type {
	case model.RecurrenceDaily:
		display = "Every day"
	case model.RecurrenceWeekly:
		display = "Every " + joinDays(p.Days, true, ", ")
	case model.RecurrenceMonthly:
		display = "Monthly (on the same date)"
	case model.RecurrenceCustom:
		display = "Every " + joinDays(p.Days, false, " and ")
	}

	if p.EndDate != nil && !p.EndDate.IsZero() {
		display += " until " + p.EndDate.Format(endDateLayout)
	}
	return strings.TrimSpace(display)
}

func joinDays(days []time.Weekday, short bool, sep string) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, dayName(d, short))
	}
	return strings.Join(names, sep)
}

func dayName(d time.Weekday, short bool) string {
	if d < time.Sunday || d > time.Saturday {
		return fmt.Sprintf("day %d", int(d))
	}
	name := d.String()
	if short {
		return name[:3]
	}
	return name
}

var icsWeekdays = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// RRule converts a pattern to an iCalendar RRULE value. It returns "" for
// patterns with no calendar equivalent.
func RRule(p *model.RecurrencePattern) string {
	if p == nil {
		return ""
	}

	var parts []string
	switch p.Type {
	case model.RecurrenceDaily:
		parts = append(parts, "FREQ=DAILY")
	case model.RecurrenceWeekly, model.RecurrenceCustom:
		var byDay []string
		for _, d := range p.Days {
			if d >= time.Sunday && d <= time.Saturday {
				byDay = append(byDay, icsWeekdays[d])
			}
		}
		if len(byDay) == 0 {
			return ""
		}
		parts = append(parts, "FREQ=WEEKLY", "BYDAY="+strings.Join(byDay, ","))
	case model.RecurrenceMonthly:
		parts = append(parts, "FREQ=MONTHLY")
	default:
		return ""
	}

	if p.EndDate != nil && !p.EndDate.IsZero() {
		parts = append(parts, "UNTIL="+p.EndDate.Format(icsDateLayout))
	}
	return strings.Join(parts, ";")
}

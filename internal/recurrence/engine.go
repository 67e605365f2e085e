// Package recurrence computes occurrence dates for recurring tasks and the
// date-derived facts (overdue, days until due) used by listings and
// statistics. Every function is pure: "today" is always passed in.
package recurrence

import (
	"slices"
	"time"

	"task-manager/internal/model"
)

// CreatePattern builds a pattern with a normalised weekday set. Days are
// sorted and de-duplicated for weekly and custom patterns and dropped for
// the others.
func CreatePattern(kind model.RecurrenceType, days []time.Weekday, endDate *model.Date) model.RecurrencePattern {
	p := model.RecurrencePattern{Type: kind}
	if endDate != nil {
		end := *endDate
		p.EndDate = &end
	}
	if kind.UsesDays() && len(days) > 0 {
		normalized := slices.Clone(days)
		slices.Sort(normalized)
		p.Days = slices.Compact(normalized)
	}
	return p
}

// NextOccurrence returns the first date after ref that satisfies the pattern.
// The second result is false when the pattern yields nothing, including when
// the computed date falls after the pattern's end date.
func NextOccurrence(ref model.Date, p model.RecurrencePattern) (model.Date, bool) {
	var next model.Date
	switch p.Type {
	case model.RecurrenceDaily:
		next = ref.AddDays(1)
	case model.RecurrenceWeekly, model.RecurrenceCustom:
		if len(p.Days) == 0 {
			return model.Date{}, false
		}
		next = ref.AddDays(daysUntilWeekday(ref.Weekday(), p.Days))
	case model.RecurrenceMonthly:
		next = addMonthClamped(ref)
	default:
		return model.Date{}, false
	}

	if p.EndDate != nil && !p.EndDate.IsZero() && next.After(*p.EndDate) {
		return model.Date{}, false
	}
	return next, true
}

// daysUntilWeekday scans the following seven days for a listed weekday.
// Every weekday appears within seven days, so the fallback only runs when
// days holds values outside 0..6.
func daysUntilWeekday(current time.Weekday, days []time.Weekday) int {
	for i := 1; i <= 7; i++ {
		if slices.Contains(days, (current+time.Weekday(i))%7) {
			return i
		}
	}
	return 7 - int(current) + int(days[0])
}

// addMonthClamped moves to the same day next month, or to that month's last
// day when it is shorter (Jan 31 -> Feb 28/29).
func addMonthClamped(d model.Date) model.Date {
	year, month := d.Year(), d.Month()+1
	if month > time.December {
		year, month = year+1, time.January
	}
	day := min(d.Day(), model.DaysIn(year, month))
	return model.NewDate(year, month, day)
}

// Preview lists up to count upcoming occurrences after start. It stops early
// when the pattern is exhausted or an occurrence reaches the end date.
func Preview(p model.RecurrencePattern, start model.Date, count int) []model.Date {
	if count <= 0 {
		return nil
	}

	occurrences := make([]model.Date, 0, count)
	current := start
	for len(occurrences) < count {
		next, ok := NextOccurrence(current, p)
		if !ok {
			break
		}
		occurrences = append(occurrences, next)
		current = next

		if p.EndDate != nil && !p.EndDate.IsZero() && !next.Before(*p.EndDate) {
			break
		}
	}
	return occurrences
}

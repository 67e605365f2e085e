package recurrence

import (
	"fmt"

	"task-manager/internal/model"
)

// IsOverdue reports whether due is set and strictly before today.
func IsOverdue(due *model.Date, today model.Date) bool {
	if due == nil || due.IsZero() {
		return false
	}
	return due.Before(today)
}

// DaysUntilDue returns due minus today in whole days: negative when overdue,
// zero when due today. The second result is false when no due date is set.
func DaysUntilDue(due *model.Date, today model.Date) (int, bool) {
	if due == nil || due.IsZero() {
		return 0, false
	}
	return due.DaysSince(today), true
}

// FormatDueText renders a relative due-date phrase for listings.
func FormatDueText(due *model.Date, today model.Date) string {
	days, ok := DaysUntilDue(due, today)
	if !ok {
		return ""
	}

	switch {
	case days < 0:
		overdue := -days
		if overdue == 1 {
			return "Overdue by 1 day"
		}
		return fmt.Sprintf("Overdue by %d days", overdue)
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	case days <= 7:
		return fmt.Sprintf("Due in %d days", days)
	default:
		return "Due on " + due.Format("Jan 2")
	}
}

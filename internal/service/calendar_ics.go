package service

import (
	"errors"
	"strings"
	"time"

	"task-manager/internal/model"
	"task-manager/internal/recurrence"
)

const icsDateLayout = "20060102"

// ErrNothingToExport is returned when no task has a due date.
var ErrNothingToExport = errors.New("no tasks with a due date to export")

// BuildCalendarICS builds an iCalendar document with one all-day event per
// task that has a due date. Recurring tasks carry an RRULE.
func BuildCalendarICS(tasks []model.Task, now time.Time) (string, error) {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Task Manager//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}

	events := 0
	stamp := now.UTC().Format("20060102T150405Z")
	for _, t := range tasks {
		if !t.HasDueDate() {
			continue
		}
		events++
		due := *t.DueDate

		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+escapeICSText(t.ID+"@task-manager"),
			"DTSTAMP:"+stamp,
			"SUMMARY:"+escapeICSText(strings.TrimSpace(t.Title)),
			"DTSTART;VALUE=DATE:"+due.Format(icsDateLayout),
			"DTEND;VALUE=DATE:"+due.AddDays(1).Format(icsDateLayout),
			"CATEGORIES:"+escapeICSText(t.Category.Label()),
			"PRIORITY:"+icsPriority(t.Priority),
		)
		if desc := strings.TrimSpace(t.Description); desc != "" {
			lines = append(lines, "DESCRIPTION:"+escapeICSText(desc))
		}
		if t.Completed {
			lines = append(lines, "STATUS:CONFIRMED")
		}
		if rrule := recurrence.RRule(t.RecurrencePattern); t.Recurring && rrule != "" {
			lines = append(lines, "RRULE:"+rrule)
		}
		lines = append(lines, "END:VEVENT")
	}
	if events == 0 {
		return "", ErrNothingToExport
	}

	lines = append(lines, "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n"), nil
}

// icsPriority maps to RFC 5545 priorities (1 highest, 9 lowest).
func icsPriority(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "1"
	case model.PriorityLow:
		return "9"
	default:
		return "5"
	}
}

func escapeICSText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
	return r.Replace(s)
}

package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"task-manager/internal/model"
	"task-manager/internal/recurrence"
)

// dueSoonDays is how far ahead the summary looks for upcoming tasks.
const dueSoonDays = 2

// ReminderService builds human-readable summaries for periodic reports.
type ReminderService struct {
	store *TaskStore
}

func NewReminderService(store *TaskStore) *ReminderService {
	return &ReminderService{store: store}
}

// Summary renders the report as Telegram HTML: overdue work, tasks due soon,
// upcoming recurring tasks and headline statistics.
func (s *ReminderService) Summary(now time.Time) string {
	today := model.DateOf(now)
	tasks := SortTasks(s.store.All(), model.SortByDueDate)
	stats := ComputeStatistics(tasks, today)

	var overdue, dueSoon, recurring []model.Task
	for _, task := range tasks {
		if task.Recurring && task.RecurrencePattern != nil && !task.Completed {
			recurring = append(recurring, task)
		}
		if task.Completed || !task.HasDueDate() {
			continue
		}
		days, _ := recurrence.DaysUntilDue(task.DueDate, today)
		switch {
		case days < 0:
			overdue = append(overdue, task)
		case days <= dueSoonDays:
			dueSoon = append(dueSoon, task)
		}
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Task report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", today.Format("Mon, Jan 2 2006")))

	builder.WriteString("⚠️ <b>Overdue</b>\n")
	writeTaskLines(&builder, overdue, today, "— nothing overdue\n")

	builder.WriteString("\n⏳ <b>Due soon</b>\n")
	writeTaskLines(&builder, dueSoon, today, "— nothing due in the next two days\n")

	builder.WriteString("\n♻️ <b>Recurring</b>\n")
	if len(recurring) == 0 {
		builder.WriteString("— no recurring tasks\n")
	} else {
		for _, task := range recurring {
			builder.WriteString(formatRecurring(task, today))
		}
	}

	builder.WriteString(fmt.Sprintf("\n📊 %d total · %d active · %d completed · %d overdue · %d%% done",
		stats.Total, stats.Active, stats.Completed, stats.Overdue, stats.CompletionRate))

	return strings.TrimSpace(builder.String())
}

func writeTaskLines(b *strings.Builder, tasks []model.Task, today model.Date, empty string) {
	if len(tasks) == 0 {
		b.WriteString(empty)
		return
	}
	for _, task := range tasks {
		b.WriteString(FormatTaskLine(task, today))
	}
}

// FormatTaskLine renders one task as an HTML list entry.
func FormatTaskLine(task model.Task, today model.Date) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case task.Completed:
		icon = "✅"
	case isOverdue(task, today):
		icon = "⚠️"
	case task.Priority == model.PriorityHigh:
		icon = "🔴"
	}

	sb.WriteString(fmt.Sprintf("%s %s <i>(%s · %s)</i> <code>%s</code>", icon,
		html.EscapeString(task.Title), task.Category.Label(), task.Priority.Label(), task.ShortID()))

	if due := recurrence.FormatDueText(task.DueDate, today); due != "" && !task.Completed {
		sb.WriteString(fmt.Sprintf("\n   ⏰ %s", due))
	}
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(task.Description)))
	}
	if len(task.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("\n   🏷 %s", html.EscapeString(strings.Join(task.Tags, ", "))))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func formatRecurring(task model.Task, today model.Date) string {
	var sb strings.Builder
	pattern := *task.RecurrencePattern

	sb.WriteString(fmt.Sprintf("♻️ %s <i>(%s)</i>", html.EscapeString(task.Title), recurrence.Describe(&pattern)))

	if next, ok := NextDue(task, today); ok {
		sb.WriteString(fmt.Sprintf("\n   📆 Next: %s", next.Format("Mon, Jan 2")))
	} else {
		sb.WriteString("\n   📆 No further occurrences")
	}

	sb.WriteByte('\n')
	return sb.String()
}

// maxCatchUp bounds how many occurrences NextDue walks past an old due date.
const maxCatchUp = 5000

// NextDue returns the first occurrence of a recurring task on or after today.
// The due date counts as the first occurrence; tasks without one start
// counting from today.
func NextDue(task model.Task, today model.Date) (model.Date, bool) {
	if !task.Recurring || task.RecurrencePattern == nil {
		return model.Date{}, false
	}
	pattern := *task.RecurrencePattern
	if !task.HasDueDate() {
		return recurrence.NextOccurrence(today, pattern)
	}

	next := *task.DueDate
	for i := 0; next.Before(today); i++ {
		if i >= maxCatchUp {
			return model.Date{}, false
		}
		var ok bool
		if next, ok = recurrence.NextOccurrence(next, pattern); !ok {
			return model.Date{}, false
		}
	}
	if pattern.EndDate != nil && next.After(*pattern.EndDate) {
		return model.Date{}, false
	}
	return next, true
}

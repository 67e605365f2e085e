package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"task-manager/internal/model"
	"task-manager/internal/recurrence"
	"task-manager/internal/service"
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"

	maxListedTasks      = 30
	defaultPreviewCount = 5
	maxPreviewCount     = 20
)

// handleListTasks shows tasks through the saved filters. Optional arguments
// override the status for this listing and pick the sort order.
func (b *Bot) handleListTasks(chatID int64, args []string) error {
	filters := b.store.Filters()
	sortKey := model.SortByDueDate

	for _, arg := range args {
		if status, err := model.ParseStatus(arg); err == nil {
			filters.Status = status
			continue
		}
		if key, err := model.ParseSortKey(arg); err == nil {
			sortKey = key
			continue
		}
		return b.sendText(chatID, fmt.Sprintf("Unknown option %q. Statuses: all, active, completed, overdue. Sort: due, priority, category, created.", escape(arg)))
	}

	today := b.store.Today()
	tasks := service.SortTasks(service.FilterTasks(b.store.All(), filters, today), sortKey)
	if len(tasks) == 0 {
		return b.sendText(chatID, "No tasks match. Add one with /newtask or relax the filters.")
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Tasks</b> · %s · sorted by %s\n", describeFilters(filters), sortKey))
	builder.WriteString("Tap a button to toggle completion or delete.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, task := range tasks {
		if i == maxListedTasks {
			builder.WriteString(fmt.Sprintf("… and %d more\n", len(tasks)-maxListedTasks))
			break
		}
		builder.WriteString(service.FormatTaskLine(task, today))
		if task.Recurring {
			builder.WriteString(fmt.Sprintf("   🔄 %s\n", recurrence.Describe(task.RecurrencePattern)))
		}
		builder.WriteByte('\n')

		mark := "✅"
		if task.Completed {
			mark = "↩️"
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %s", mark, shortTitle(task.Title, 24)), cbCompletePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", cbDeletePrefix+task.ID),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleFilter(chatID int64, args []string) error {
	filters := b.store.Filters()
	if len(args) == 0 {
		return b.sendText(chatID, "🔎 Current filters: "+describeFilters(filters))
	}

	status, err := model.ParseStatus(args[0])
	if err != nil {
		return b.sendText(chatID, "Status must be one of: all, active, completed, overdue.")
	}
	filters.Status = status
	return b.applyFilters(chatID, filters)
}

func (b *Bot) handleSearch(chatID int64, query string) error {
	filters := b.store.Filters()
	filters.Search = strings.TrimSpace(query)
	return b.applyFilters(chatID, filters)
}

func (b *Bot) handleCategory(chatID int64, args []string) error {
	filters := b.store.Filters()
	if len(args) == 0 {
		labels := make([]string, 0, len(model.Categories()))
		for _, c := range model.Categories() {
			labels = append(labels, string(c))
		}
		return b.sendText(chatID, "Usage: /category &lt;name...&gt; or /category all\nCategories: "+strings.Join(labels, ", "))
	}

	if len(args) == 1 && strings.EqualFold(args[0], "all") {
		filters.Categories = nil
		return b.applyFilters(chatID, filters)
	}

	categories := make([]model.Category, 0, len(args))
	for _, arg := range args {
		c, err := model.ParseCategory(strings.Trim(arg, ","))
		if err != nil {
			return b.sendText(chatID, fmt.Sprintf("Unknown category %q.", escape(arg)))
		}
		categories = append(categories, c)
	}
	filters.Categories = categories
	return b.applyFilters(chatID, filters)
}

func (b *Bot) applyFilters(chatID int64, filters model.Filters) error {
	if err := b.store.SetFilters(filters); err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	return b.sendText(chatID, "🔎 Filters: "+describeFilters(b.store.Filters()))
}

func (b *Bot) handleStats(chatID int64) error {
	stats := b.store.Statistics()
	charts := service.BuildCharts(b.store.All(), b.now())

	var builder strings.Builder
	builder.WriteString("📊 <b>Statistics</b>\n")
	builder.WriteString(fmt.Sprintf("Total: %d · Active: %d · Completed: %d\n", stats.Total, stats.Active, stats.Completed))
	builder.WriteString(fmt.Sprintf("Overdue: %d · Recurring: %d · Done: %d%%\n", stats.Overdue, stats.Recurring, stats.CompletionRate))

	for _, section := range []struct {
		title  string
		series service.ChartSeries
	}{
		{"By category", charts.Category},
		{"By priority", charts.Priority},
		{"Completed in the last 7 days", charts.Trend},
	} {
		if len(section.series.Values) == 0 {
			continue
		}
		builder.WriteString(fmt.Sprintf("\n<b>%s</b>\n<pre>%s</pre>\n", section.title, escape(section.series.Bars(10))))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleComplete(ctx context.Context, chatID int64, args []string) error {
	if len(args) == 0 {
		return b.sendText(chatID, "Give the task id: /complete 1a2b3c4d")
	}
	return b.toggleTask(ctx, chatID, args[0])
}

func (b *Bot) toggleTask(ctx context.Context, chatID int64, ref string) error {
	task, err := b.store.Resolve(ref)
	if err != nil {
		return b.sendText(chatID, lookupErrorText(err))
	}
	task, err = b.store.ToggleCompletion(ctx, task.ID)
	if err != nil {
		return b.sendText(chatID, lookupErrorText(err))
	}

	b.log.WithFields(logrus.Fields{"task_id": task.ID, "completed": task.Completed}).Info("task toggled via bot")
	if task.Completed {
		return b.sendText(chatID, fmt.Sprintf("✅ “%s” completed.", escape(task.Title)))
	}
	return b.sendText(chatID, fmt.Sprintf("↩️ “%s” is active again.", escape(task.Title)))
}

func (b *Bot) handleDelete(chatID, userID int64, args []string) error {
	if len(args) == 0 {
		return b.sendText(chatID, "Give the task id: /delete 1a2b3c4d")
	}
	return b.askDeleteConfirmation(chatID, userID, args[0])
}

func (b *Bot) handleClear(chatID, userID int64) error {
	n := len(b.store.All())
	if n == 0 {
		return b.sendText(chatID, "There are no tasks to delete.")
	}
	b.setConfirmation(userID, confirmationRequest{clearAll: true})
	text := fmt.Sprintf("Delete all %d tasks? This cannot be undone.", n)
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handlePreview(chatID int64, args []string) error {
	if len(args) == 0 {
		return b.sendText(chatID, "Give the task id: /preview 1a2b3c4d [count]")
	}
	count := defaultPreviewCount
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > maxPreviewCount {
			return b.sendText(chatID, fmt.Sprintf("Count must be a number from 1 to %d.", maxPreviewCount))
		}
		count = n
	}

	task, err := b.store.Resolve(args[0])
	if err != nil {
		return b.sendText(chatID, lookupErrorText(err))
	}
	dates, err := b.store.Occurrences(task.ID, count)
	if err != nil {
		return b.sendText(chatID, lookupErrorText(err))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🔄 <b>%s</b>\n%s\n\n", escape(task.Title), recurrence.Describe(task.RecurrencePattern)))
	if len(dates) == 0 {
		builder.WriteString("No upcoming occurrences.")
	}
	for _, d := range dates {
		builder.WriteString(fmt.Sprintf("• %s\n", d.Format("Mon, Jan 2 2006")))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleExport(ctx context.Context, chatID int64) error {
	raw, err := b.exporter.ExportJSON(ctx)
	if err != nil {
		b.log.WithError(err).Error("export tasks")
		return b.sendText(chatID, "Export failed.")
	}
	name := fmt.Sprintf("tasks-%s.json", b.store.Today())
	return b.sendDocument(chatID, name, raw, "📦 Task export")
}

func (b *Bot) handleICS(chatID int64) error {
	ics, err := service.BuildCalendarICS(b.store.All(), b.now())
	if errors.Is(err, service.ErrNothingToExport) {
		return b.sendText(chatID, "No tasks with a due date to export.")
	}
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	return b.sendDocument(chatID, "tasks.ics", []byte(ics), "📅 Import into your calendar")
}

func (b *Bot) handleTheme(ctx context.Context, chatID int64, args []string) error {
	if len(args) == 0 {
		prefs := b.prefs.Get(ctx)
		return b.sendText(chatID, fmt.Sprintf("🎨 Theme: %s", prefs.Theme))
	}
	theme, err := service.ParseTheme(args[0])
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	if err := b.prefs.SetTheme(ctx, theme); err != nil {
		return b.sendText(chatID, "Could not save the theme.")
	}
	return b.sendText(chatID, fmt.Sprintf("🎨 Theme set to %s.", theme))
}

func (b *Bot) handleReport(chatID int64) error {
	return b.sendText(chatID, b.reminders.Summary(b.now()))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if !b.allowed(cb.From.ID) {
		b.ackCallback(cb.ID, "This task manager is private.")
		return nil
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		b.ackCallback(cb.ID, "")
		return b.toggleTask(ctx, chatID, strings.TrimPrefix(data, cbCompletePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		b.ackCallback(cb.ID, "")
		return b.askDeleteConfirmation(chatID, cb.From.ID, strings.TrimPrefix(data, cbDeletePrefix))
	default:
		b.ackCallback(cb.ID, "")
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(msg.Chat.ID, nil)
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(msg.Chat.ID)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func lookupErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return "Task not found."
	case errors.Is(err, service.ErrAmbiguousID):
		return "That id matches several tasks; use more characters."
	case errors.Is(err, service.ErrNotRecurring):
		return "That task does not repeat."
	default:
		return "Error: " + escape(err.Error())
	}
}

func describeFilters(f model.Filters) string {
	parts := []string{"status " + string(f.Status)}
	if len(f.Categories) > 0 {
		names := make([]string, 0, len(f.Categories))
		for _, c := range f.Categories {
			names = append(names, string(c))
		}
		parts = append(parts, "categories "+strings.Join(names, ", "))
	}
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("search “%s”", escape(f.Search)))
	}
	return strings.Join(parts, " · ")
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"task-manager/internal/model"
	"task-manager/internal/recurrence"
	"task-manager/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stagePriority
	stageDueDate
	stageTags
	stageRecurring
	stageRecurrenceType
	stageRecurrenceDays
	stageRecurrenceEnd
)

type conversationState struct {
	stage   conversationStage
	input   service.TaskInput
	pattern model.RecurrencePattern
}

// confirmationRequest is a pending delete: one task, or all of them when
// clearAll is set.
type confirmationRequest struct {
	taskID   string
	clearAll bool
}

func (b *Bot) startNewTaskConversation(msg *tgbotapi.Message) error {
	b.log.WithField("user", msg.From.ID).Info("start new task conversation")
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "Please enter a task title.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(chatID, "✏️ Add a short description (or press Skip).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(chatID, "🏷 Pick a category.", categoryKeyboard())
	case stageCategory:
		category, err := model.ParseCategory(text)
		if err != nil {
			return b.sendWithReplyMarkup(chatID, "Please pick one of the listed categories.", categoryKeyboard())
		}
		state.input.Category = category
		state.stage = stagePriority
		return b.sendWithReplyMarkup(chatID, "❗ Priority?", priorityKeyboard())
	case stagePriority:
		priority, err := model.ParsePriority(text)
		if err != nil {
			return b.sendWithReplyMarkup(chatID, "Please pick High, Medium or Low.", priorityKeyboard())
		}
		state.input.Priority = priority
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(chatID, "⏰ Due date as <code>2026-11-30</code>, <i>today</i> or <i>tomorrow</i> (or Skip).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			due, err := b.parseDateInput(text)
			if err != nil {
				return b.sendWithReplyMarkup(chatID, "I can't read that date. Use <code>2026-11-30</code> or Skip.", skipKeyboard())
			}
			state.input.DueDate = &due
		}
		state.stage = stageTags
		return b.sendWithReplyMarkup(chatID, "🏷 Tags, comma separated (or Skip).", skipKeyboard())
	case stageTags:
		if !isSkipInput(text) {
			state.input.Tags = service.ParseTags(text)
		}
		state.stage = stageRecurring
		return b.sendWithReplyMarkup(chatID, "🔁 Should this task repeat?", yesNoKeyboard())
	case stageRecurring:
		switch {
		case isYesInput(text):
			state.input.Recurring = true
			state.stage = stageRecurrenceType
			return b.sendWithReplyMarkup(chatID, "🔄 How often?", recurrenceTypeKeyboard())
		case isNoInput(text):
			state.input.Recurring = false
			return b.finishTaskCreation(ctx, msg, state)
		default:
			return b.sendWithReplyMarkup(chatID, "Press Yes or No.", yesNoKeyboard())
		}
	case stageRecurrenceType:
		kind, err := model.ParseRecurrenceType(text)
		if err != nil {
			return b.sendWithReplyMarkup(chatID, "Please pick Daily, Weekly, Monthly or Custom.", recurrenceTypeKeyboard())
		}
		state.pattern = model.RecurrencePattern{Type: kind}
		if kind.UsesDays() {
			state.stage = stageRecurrenceDays
			return b.sendWithReplyMarkup(chatID, "📆 Which days? For example <code>Mon, Wed, Fri</code>.", cancelKeyboard())
		}
		state.stage = stageRecurrenceEnd
		return b.sendWithReplyMarkup(chatID, "🏁 Repeat until which date? (<code>2027-01-31</code>)", cancelKeyboard())
	case stageRecurrenceDays:
		days, err := parseWeekdays(text)
		if err != nil {
			return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Could not read the days: %s.", escape(err.Error())), cancelKeyboard())
		}
		state.pattern.Days = days
		state.stage = stageRecurrenceEnd
		return b.sendWithReplyMarkup(chatID, "🏁 Repeat until which date? (<code>2027-01-31</code>)", cancelKeyboard())
	case stageRecurrenceEnd:
		end, err := b.parseDateInput(text)
		if err != nil {
			return b.sendWithReplyMarkup(chatID, "I can't read that date. Use <code>2027-01-31</code>.", cancelKeyboard())
		}
		state.pattern.EndDate = &end
		if err := recurrence.Validate(&state.pattern, b.store.Today()); err != nil {
			return b.sendWithReplyMarkup(chatID, escape(err.Error()), cancelKeyboard())
		}
		pattern := state.pattern.Clone()
		state.input.RecurrencePattern = &pattern
		return b.finishTaskCreation(ctx, msg, state)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(chatID, "Conversation reset. Try /newtask again.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	task, err := b.store.Add(ctx, state.input)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("Could not save the task: %s", escape(verr.Message)), cancelKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}
	b.clearConversation(msg.From.ID)

	b.log.WithFields(logrus.Fields{"task_id": task.ID, "recurring": task.Recurring}).Info("task created via bot")

	today := b.store.Today()
	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> <code>%s</code>\n", task.ShortID()))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	summary.WriteString(fmt.Sprintf("• <b>Category:</b> %s · <b>Priority:</b> %s\n", task.Category.Label(), task.Priority.Label()))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(task.Description)))
	}
	if task.HasDueDate() {
		summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s (%s)\n", task.DueDate, recurrence.FormatDueText(task.DueDate, today)))
	}
	if len(task.Tags) > 0 {
		summary.WriteString(fmt.Sprintf("• <b>Tags:</b> %s\n", escape(strings.Join(task.Tags, ", "))))
	}
	if task.Recurring {
		summary.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s\n", recurrence.Describe(task.RecurrencePattern)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(summary.String()))
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text) && req.clearAll:
		b.clearConfirmation(msg.From.ID)
		n := len(b.store.All())
		b.store.Clear(ctx)
		b.log.WithField("count", n).Info("all tasks cleared via bot")
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Deleted %d tasks.", n))
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.deleteTask(ctx, msg.Chat.ID, req.taskID)
	case isCancelInput(text) && req.clearAll:
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Kept your tasks.")
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Kept the task.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) askDeleteConfirmation(chatID, userID int64, ref string) error {
	task, err := b.store.Resolve(ref)
	if err != nil {
		return b.sendText(chatID, lookupErrorText(err))
	}
	b.setConfirmation(userID, confirmationRequest{taskID: task.ID})
	text := fmt.Sprintf("Delete task “%s” (<code>%s</code>)?", escape(task.Title), task.ShortID())
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, id string) error {
	task, ok := b.store.Get(id)
	if !ok || !b.store.Delete(ctx, id) {
		return b.sendText(chatID, "Task not found or already deleted.")
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 Task “%s” deleted.", escape(task.Title)))
}

// parseDateInput accepts YYYY-MM-DD plus "today" and "tomorrow".
func (b *Bot) parseDateInput(text string) (model.Date, error) {
	today := b.store.Today()
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	}
	return model.ParseDate(text)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// parseWeekdays reads a list like "Mon, Wed" or "1 3 5" (0 is Sunday).
func parseWeekdays(text string) ([]time.Weekday, error) {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	if len(fields) == 0 {
		return nil, errors.New("select at least one day")
	}

	days := make([]time.Weekday, 0, len(fields))
	for _, field := range fields {
		if d, ok := weekdayNames[field]; ok {
			days = append(days, d)
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("unknown day %q, use names like Mon or numbers 0-6", field)
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

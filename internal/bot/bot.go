package bot

import (
	"context"
	"fmt"
	"html"
	"slices"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"task-manager/internal/config"
	"task-manager/internal/service"
)

// telegramAPI is the subset of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api       telegramAPI
	store     *service.TaskStore
	reminders *service.ReminderService
	prefs     *service.PreferencesService
	exporter  *service.ExportService
	config    *config.Config
	log       *logrus.Logger
	now       func() time.Time

	mu            sync.Mutex
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	chats         map[int64]struct{}
}

func New(token string, store *service.TaskStore, reminders *service.ReminderService, prefs *service.PreferencesService, exporter *service.ExportService, cfg *config.Config, log *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.WithField("account", api.Self.UserName).Info("bot authorized")
	return newBot(api, store, reminders, prefs, exporter, cfg, log, time.Now), nil
}

func newBot(api telegramAPI, store *service.TaskStore, reminders *service.ReminderService, prefs *service.PreferencesService, exporter *service.ExportService, cfg *config.Config, log *logrus.Logger, now func() time.Time) *Bot {
	b := &Bot{
		api:           api,
		store:         store,
		reminders:     reminders,
		prefs:         prefs,
		exporter:      exporter,
		config:        cfg,
		log:           log,
		now:           now,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
		chats:         make(map[int64]struct{}),
	}
	if cfg != nil && cfg.OwnerID != 0 {
		b.chats[cfg.OwnerID] = struct{}{}
	}
	return b
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.HandleUpdate(ctx, update)
	}
	return nil
}

// HandleUpdate processes one update. Errors are logged.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.WithError(err).Warn("handle callback")
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.WithError(err).Warn("handle message")
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !b.allowed(msg.From.ID) {
		b.log.WithField("user", msg.From.ID).Warn("rejected message from stranger")
		return b.sendText(msg.Chat.ID, "🔒 This task manager is private.")
	}
	b.rememberChat(msg.Chat.ID)

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.WithFields(logrus.Fields{"user": msg.From.ID, "command": msg.Command(), "args": msg.CommandArguments()}).Info("command received")
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if state := b.getConversation(msg.From.ID); state != nil {
		b.log.WithFields(logrus.Fields{"user": msg.From.ID, "stage": state.stage}).Debug("conversation step")
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "I didn't get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "newtask":
		return b.startNewTaskConversation(msg)
	case "tasks":
		return b.handleListTasks(msg.Chat.ID, args)
	case "filter":
		return b.handleFilter(msg.Chat.ID, args)
	case "search":
		return b.handleSearch(msg.Chat.ID, msg.CommandArguments())
	case "category":
		return b.handleCategory(msg.Chat.ID, args)
	case "stats":
		return b.handleStats(msg.Chat.ID)
	case "complete":
		return b.handleComplete(ctx, msg.Chat.ID, args)
	case "delete":
		return b.handleDelete(msg.Chat.ID, msg.From.ID, args)
	case "clear":
		return b.handleClear(msg.Chat.ID, msg.From.ID)
	case "preview":
		return b.handlePreview(msg.Chat.ID, args)
	case "export":
		return b.handleExport(ctx, msg.Chat.ID)
	case "ics":
		return b.handleICS(msg.Chat.ID)
	case "theme":
		return b.handleTheme(ctx, msg.Chat.ID, args)
	case "report":
		return b.handleReport(msg.Chat.ID)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep track of your tasks, deadlines and recurring chores.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Commands</b>\n"+helpText)
}

const helpText = "• /newtask — add a task step by step\n" +
	"• /tasks [status] [sort] — list tasks (status: all, active, completed, overdue; sort: due, priority, category, created)\n" +
	"• /filter [status] — show or set the status filter\n" +
	"• /search &lt;text&gt; — filter by text, empty to clear\n" +
	"• /category &lt;name...&gt;|all — filter by categories\n" +
	"• /stats — statistics and charts\n" +
	"• /complete &lt;id&gt; — toggle completion\n" +
	"• /delete &lt;id&gt; — delete a task\n" +
	"• /clear — delete every task\n" +
	"• /preview &lt;id&gt; [count] — upcoming dates of a recurring task\n" +
	"• /export — download tasks as JSON\n" +
	"• /ics — download a calendar file\n" +
	"• /theme [light|dark] — show or set the theme\n" +
	"• /report — send the task report now\n" +
	"• /cancel — cancel the current input"

// SendReports sends the summary to the owner, or to every chat seen so far
// when no owner is configured.
func (b *Bot) SendReports(ctx context.Context) error {
	text := b.reminders.Summary(b.now())
	for _, chatID := range b.recipients() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(chatID, text); err != nil {
			b.log.WithError(err).WithField("chat", chatID).Warn("send report")
		}
	}
	return nil
}

// NotifyOverdue tells recipients about tasks that just became overdue.
func (b *Bot) NotifyOverdue(ctx context.Context, report service.RefreshReport) error {
	if len(report.NewlyOverdue) == 0 {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("⚠️ <b>Now overdue</b>\n")
	for _, task := range report.NewlyOverdue {
		builder.WriteString(service.FormatTaskLine(task, report.Today))
	}
	text := strings.TrimSpace(builder.String())

	for _, chatID := range b.recipients() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.sendText(chatID, text); err != nil {
			b.log.WithError(err).WithField("chat", chatID).Warn("send overdue notice")
		}
	}
	return nil
}

func (b *Bot) allowed(userID int64) bool {
	return b.config == nil || b.config.OwnerID == 0 || b.config.OwnerID == userID
}

func (b *Bot) rememberChat(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chats[chatID] = struct{}{}
}

func (b *Bot) recipients() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int64, 0, len(b.chats))
	for id := range b.chats {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendDocument(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	_, err := b.api.Send(doc)
	return err
}

func (b *Bot) ackCallback(id string, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.WithError(err).Debug("callback ack")
	}
}

func escape(s string) string {
	return html.EscapeString(s)
}

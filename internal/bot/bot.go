package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskify/internal/model"
	"taskify/internal/repository"
	"taskify/internal/service"
	"taskify/internal/timeutil"
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
)

const (
	iconDefault   = "🟢"
	iconToday     = "⏳"
	iconOverdue   = "⚠️"
	iconCompleted = "✅"
	iconReminder  = "⏰"
)

// API is the part of tgbotapi.BotAPI the bot talks to.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is a chat front-end for a single owner chat.
type Bot struct {
	api     API
	taskSvc *service.TaskService
	chatID  int64
}

func New(api API, taskSvc *service.TaskService, chatID int64) *Bot {
	return &Bot{
		api:     api,
		taskSvc: taskSvc,
		chatID:  chatID,
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil || msg.Chat.ID != b.chatID {
		return nil
	}
	if !msg.IsCommand() {
		return b.sendText("I did not get that. Send /help for the list of commands.")
	}

	log.Printf("[info] command /%s %s", msg.Command(), msg.CommandArguments())
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		return b.sendText(helpText)
	case "tasks":
		return b.handleListTasks(ctx, args)
	case "add":
		return b.handleAdd(ctx, args)
	case "done":
		return b.withTaskID(args, "/done 12", func(id int) error { return b.completeTask(ctx, id) })
	case "restore":
		return b.withTaskID(args, "/restore 12", func(id int) error { return b.restoreTask(ctx, id) })
	case "delete":
		return b.withTaskID(args, "/delete 12", func(id int) error { return b.deleteTask(ctx, id) })
	case "check":
		return b.handleCheck(ctx)
	default:
		return b.sendText("Unknown command. See /help.")
	}
}

const helpText = `<b>Commands</b>
/tasks [all|today|planned|completed] - show tasks
/add title | YYYY-MM-DD | HH:MM - add a task, a time arms a reminder
/done id - mark a task completed
/restore id - undo completion
/delete id - delete a task
/check - look for overdue tasks now`

func (b *Bot) handleListTasks(ctx context.Context, args string) error {
	mode, err := model.ParseGroupMode(args)
	if err != nil {
		return b.sendText("Unknown view. Use all, today, planned or completed.")
	}

	groups, err := b.taskSvc.Groups(ctx, mode, model.SortByDate)
	if err != nil {
		return b.sendText(fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}
	if len(groups) == 0 {
		return b.sendText("No tasks here. Add one with /add.")
	}

	for _, chunk := range buildListing(groups, b.taskSvc.Today()) {
		msg := tgbotapi.NewMessage(b.chatID, chunk.text)
		msg.ParseMode = tgbotapi.ModeHTML
		if len(chunk.buttons) > 0 {
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(chunk.buttons...)
		}
		if _, err := b.api.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

// Telegram rejects texts over 4096 characters and keyboards over 100 buttons.
// The text limit leaves room for the gap between raw HTML and parsed length.
const (
	listingTextLimit = 3500
	listingMaxRows   = 20
)

type listingChunk struct {
	text    string
	buttons [][]tgbotapi.InlineKeyboardButton
}

// buildListing splits grouped tasks into messages that stay within Telegram
// limits. A group cut across messages repeats its header.
func buildListing(groups []model.TaskGroup, today time.Time) []listingChunk {
	var chunks []listingChunk
	var builder strings.Builder
	var buttons [][]tgbotapi.InlineKeyboardButton

	flush := func() {
		if builder.Len() == 0 {
			return
		}
		chunks = append(chunks, listingChunk{text: strings.TrimSpace(builder.String()), buttons: buttons})
		builder.Reset()
		buttons = nil
	}

	for _, group := range groups {
		header := fmt.Sprintf("<b>%s</b>\n", escape(group.Name))
		needHeader := true
		for _, task := range group.Tasks {
			entry := formatTask(task, today)
			size := utf8.RuneCountInString(builder.String()) + utf8.RuneCountInString(entry)
			if needHeader {
				size += utf8.RuneCountInString(header)
			}
			if builder.Len() > 0 && (size > listingTextLimit || len(buttons) >= listingMaxRows) {
				flush()
				needHeader = true
			}
			if needHeader {
				builder.WriteString(header)
				needHeader = false
			}
			builder.WriteString(entry)
			buttons = append(buttons, taskButtons(task))
		}
		builder.WriteByte('\n')
	}
	flush()
	return chunks
}

func (b *Bot) handleAdd(ctx context.Context, args string) error {
	draft, err := parseAddArgs(b.taskSvc.NewDraft(nil), args)
	if err != nil {
		return b.sendText(escape(err.Error()))
	}
	task, err := b.taskSvc.SaveTask(ctx, draft)
	if err != nil {
		return b.sendText(fmt.Sprintf("Could not save task: %s", escape(err.Error())))
	}
	return b.sendText(fmt.Sprintf("➕ Added <b>#%d</b> %s", task.ID, escape(normalizeTitle(task.DisplayTitle()))))
}

func (b *Bot) handleCheck(ctx context.Context) error {
	result, err := b.taskSvc.CheckNow(ctx)
	if err != nil {
		return b.sendText(fmt.Sprintf("Overdue check failed: %s", escape(err.Error())))
	}
	if len(result.Overdue) == 0 {
		return b.sendText("Nothing is overdue.")
	}
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != b.chatID {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		log.Printf("[info] callback complete task=%s", strings.TrimPrefix(data, cbCompletePrefix))
		taskID, err := parseTaskID(data, cbCompletePrefix)
		if err != nil {
			return nil
		}
		return b.completeTask(ctx, taskID)
	case strings.HasPrefix(data, cbDeletePrefix):
		log.Printf("[info] callback delete task=%s", strings.TrimPrefix(data, cbDeletePrefix))
		taskID, err := parseTaskID(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.deleteTask(ctx, taskID)
	default:
		return nil
	}
}

func (b *Bot) completeTask(ctx context.Context, taskID int) error {
	task, err := b.taskSvc.MarkCompleted(ctx, taskID)
	if err != nil {
		return b.sendText(fmt.Sprintf("Could not complete task: %s", escape(err.Error())))
	}
	if task == nil {
		return b.sendText("Task not found.")
	}
	return b.sendText(fmt.Sprintf("%s <b>#%d</b> %s done. It will be removed on %s.",
		iconCompleted, task.ID, escape(normalizeTitle(task.DisplayTitle())),
		task.DeletionTime.In(b.taskSvc.Location()).Format(time.DateOnly)))
}

func (b *Bot) restoreTask(ctx context.Context, taskID int) error {
	task, err := b.taskSvc.Restore(ctx, taskID)
	if err != nil {
		return b.sendText(fmt.Sprintf("Could not restore task: %s", escape(err.Error())))
	}
	if task == nil {
		return b.sendText("Task not found.")
	}
	return b.sendText(fmt.Sprintf("↩️ <b>#%d</b> %s is active again.", task.ID, escape(normalizeTitle(task.DisplayTitle()))))
}

func (b *Bot) deleteTask(ctx context.Context, taskID int) error {
	task, err := b.taskSvc.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return b.sendText("Task not found.")
		}
		return b.sendText(fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	if err := b.taskSvc.DeleteTask(ctx, *task); err != nil {
		return b.sendText(fmt.Sprintf("Could not delete task: %s", escape(err.Error())))
	}
	return b.sendText(fmt.Sprintf("🗑 Task \"%s\" deleted.", escape(normalizeTitle(task.DisplayTitle()))))
}

func (b *Bot) withTaskID(args, usage string, fn func(id int) error) error {
	if args == "" {
		return b.sendText("Give the task id: " + usage)
	}
	id, err := strconv.Atoi(args)
	if err != nil || id <= 0 {
		return b.sendText("Task id must be a positive number.")
	}
	return fn(id)
}

func (b *Bot) sendText(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func taskButtons(task model.Task) []tgbotapi.InlineKeyboardButton {
	var row []tgbotapi.InlineKeyboardButton
	if !task.IsCompleted {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.DisplayTitle(), 20)),
			fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)))
	return row
}

// parseAddArgs reads "title | YYYY-MM-DD | HH:MM". Date and time are optional;
// a time enables the on-time reminder.
func parseAddArgs(draft model.Task, args string) (model.Task, error) {
	parts := strings.Split(args, "|")
	title := strings.TrimSpace(parts[0])
	if title == "" {
		return draft, errors.New("usage: /add title | YYYY-MM-DD | HH:MM")
	}
	draft.Title = title

	if len(parts) > 1 {
		if raw := strings.TrimSpace(parts[1]); raw != "" {
			d, err := timeutil.ParseDate(raw)
			if err != nil {
				return draft, err
			}
			stored := timeutil.CalendarDateToInstant(d)
			draft.Date = &stored
		}
	}
	if len(parts) > 2 {
		if raw := strings.TrimSpace(parts[2]); raw != "" {
			if draft.Date == nil {
				return draft, errors.New("a time needs a date")
			}
			minutes, err := timeutil.ParseMinutes(raw)
			if err != nil {
				return draft, err
			}
			draft.Time = &minutes
			draft.ReminderType = model.ReminderOnTime
		}
	}
	if len(parts) > 3 {
		return draft, errors.New("usage: /add title | YYYY-MM-DD | HH:MM")
	}
	return draft, nil
}

func parseTaskID(data, prefix string) (int, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, fmt.Errorf("invalid task id %d", value)
	}
	return value, nil
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	return clip(normalizeTitle(clean), maxLen)
}

// clip cuts s to maxLen runes, marking the cut with an ellipsis.
func clip(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func formatTask(task model.Task, today time.Time) string {
	var b strings.Builder
	icon := iconDefault
	switch {
	case task.IsCompleted:
		icon = iconCompleted
	case task.IsOverdue(today):
		icon = iconOverdue
	case task.IsToday(today):
		icon = iconToday
	}
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", icon, task.ID, escape(clip(normalizeTitle(task.DisplayTitle()), 200))))
	if task.Date != nil {
		when := timeutil.StoredDate(*task.Date).String()
		if task.Time != nil {
			when += " " + timeutil.FormatMinutes(*task.Time)
		}
		if task.WantsReminder() {
			when += " " + iconReminder
		}
		b.WriteString(fmt.Sprintf("   📅 %s\n", when))
	}
	if task.Description != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(clip(task.Description, 300))))
	}
	if len(task.Tags) > 0 {
		b.WriteString(fmt.Sprintf("   🏷️ %s\n", escape(clip(strings.Join(task.Tags, ", "), 100))))
	}
	return b.String()
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

package notification

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of tgbotapi.BotAPI used to deliver messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts notifications into a single chat.
type TelegramNotifier struct {
	api    Sender
	chatID int64
}

func NewTelegramNotifier(api Sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID}
}

func (n *TelegramNotifier) Notify(ctx context.Context, id int, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, formatMessage(id, title, body))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusUnauthorized) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, apiErr.Message)
		}
		return fmt.Errorf("send telegram notification: %w", err)
	}
	return nil
}

func formatMessage(id int, title, body string) string {
	var sb strings.Builder
	sb.WriteString("⏰ <b>")
	sb.WriteString(html.EscapeString(strings.TrimSpace(title)))
	sb.WriteString("</b>")
	if body = strings.TrimSpace(body); body != "" {
		sb.WriteString("\n")
		sb.WriteString(html.EscapeString(body))
	}
	sb.WriteString(fmt.Sprintf("\n<i>#%d</i>", id))
	return sb.String()
}

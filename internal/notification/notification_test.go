package notification

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type stubChannel struct {
	calls int
	err   error
}

func (s *stubChannel) Notify(context.Context, int, string, string) error {
	s.calls++
	return s.err
}

type stubSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (s *stubSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, s.err
}

func TestManagerFansOut(t *testing.T) {
	failing := &stubChannel{err: errors.New("boom")}
	ok := &stubChannel{}
	m := NewManager(failing, ok)

	err := m.Notify(context.Background(), 1, "t", "b")
	if err == nil {
		t.Fatal("expected error from failing channel")
	}
	if failing.calls != 1 || ok.calls != 1 {
		t.Fatalf("expected both channels called, got %d %d", failing.calls, ok.calls)
	}
	if m.ChannelCount() != 2 {
		t.Fatalf("unexpected channel count: %d", m.ChannelCount())
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(log.New(&buf, "", 0))

	if err := n.Notify(context.Background(), 7, "Water plants", "balcony"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "#7 Water plants: balcony") {
		t.Fatalf("unexpected log line: %q", got)
	}
}

func TestTelegramNotifierSendsHTML(t *testing.T) {
	sender := &stubSender{}
	n := NewTelegramNotifier(sender, 42)

	if err := n.Notify(context.Background(), 3, "Pay <rent>", "today"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.sent))
	}
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("unexpected chattable %T", sender.sent[0])
	}
	if msg.ChatID != 42 || msg.ParseMode != tgbotapi.ModeHTML {
		t.Fatalf("unexpected message config: %+v", msg)
	}
	if !strings.Contains(msg.Text, "Pay &lt;rent&gt;") || !strings.Contains(msg.Text, "#3") {
		t.Fatalf("unexpected text: %q", msg.Text)
	}
}

func TestTelegramNotifierMapsForbidden(t *testing.T) {
	sender := &stubSender{err: &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}}
	n := NewTelegramNotifier(sender, 42)

	err := n.Notify(context.Background(), 1, "t", "")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestTelegramNotifierOtherErrors(t *testing.T) {
	sender := &stubSender{err: errors.New("network down")}
	n := NewTelegramNotifier(sender, 42)

	err := n.Notify(context.Background(), 1, "t", "")
	if err == nil || errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected plain error, got %v", err)
	}
}

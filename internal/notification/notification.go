// Package notification delivers reminders to the user.
package notification

import (
	"context"
	"errors"
)

// ErrPermissionDenied means the platform refused to show the notification.
// Callers log it and move on; there is no retry.
var ErrPermissionDenied = errors.New("notification: permission denied")

// Notifier shows a notification addressed by id. Showing a second notification
// with the same id replaces the first on platforms that support it.
type Notifier interface {
	Notify(ctx context.Context, id int, title, body string) error
}

// Manager fans a notification out to every channel.
type Manager struct {
	channels []Notifier
}

func NewManager(channels ...Notifier) *Manager {
	return &Manager{channels: channels}
}

// Notify sends to all channels and returns the last error seen.
func (m *Manager) Notify(ctx context.Context, id int, title, body string) error {
	var lastErr error
	for _, ch := range m.channels {
		if err := ch.Notify(ctx, id, title, body); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// ChannelCount returns the number of configured channels.
func (m *Manager) ChannelCount() int {
	return len(m.channels)
}

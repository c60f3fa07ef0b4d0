// Package notifier delivers plain-text messages to the operator.
package notifier

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned by senders missing credentials.
	ErrNotConfigured = errors.New("notifier not configured")
	// ErrQueueFull is returned when the dispatcher drops a message.
	ErrQueueFull = errors.New("notification queue full")
)

// TextNotifier sends text to a chat. An empty chatID means the default
// operator chat.
type TextNotifier interface {
	SendText(ctx context.Context, chatID, text string) error
}

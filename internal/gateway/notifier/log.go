package notifier

import (
	"context"
	"strings"

	"us30bot/internal/logger"
)

// Log writes messages to the application log. It stands in for Telegram
// when no credentials are configured.
type Log struct{}

func (Log) SendText(_ context.Context, chatID, text string) error {
	if chatID == "" {
		chatID = "operator"
	}
	logger.Infof("notify[%s]: %s", chatID, strings.ReplaceAll(text, "\n", " | "))
	return nil
}

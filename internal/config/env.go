package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvTelegramToken         = "TELEGRAM_TOKEN"
	EnvTelegramChatID        = "TELEGRAM_CHAT_ID"
	EnvTelegramWebhookSecret = "TELEGRAM_WEBHOOK_SECRET"
	EnvHTTPAddr              = "US30BOT_HTTP_ADDR"
	EnvLogLevel              = "US30BOT_LOG_LEVEL"
)

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// applyEnv overlays secrets and deployment knobs from the environment. A
// bot token enables Telegram unless notify.telegram.enabled was set.
func (c *Config) applyEnv(keys keySet, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvTelegramToken); ok {
		c.Notify.Telegram.BotToken = v
		if !keys.isSet("notify.telegram.enabled") {
			c.Notify.Telegram.Enabled = true
		}
	}
	if v, ok := lookup(EnvTelegramChatID); ok {
		c.Notify.Telegram.ChatID = v
	}
	if v, ok := lookup(EnvTelegramWebhookSecret); ok {
		c.Notify.Telegram.WebhookSecret = v
	}
	if v, ok := lookup(EnvHTTPAddr); ok {
		c.App.HTTPAddr = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.App.LogLevel = v
	}
}

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validate runs basic checks over the merged configuration.
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Book.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	if err := c.Price.validate(); err != nil {
		return err
	}
	if err := c.AutoAnalyze.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(a.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be debug, info, warn or error, got %s", a.LogLevel)
	}
	switch strings.ToLower(a.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("app.log_format must be text or json, got %s", a.LogFormat)
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr cannot be empty")
	}
	if a.RequestsPerSecond < 0 {
		return fmt.Errorf("app.requests_per_second must be >= 0")
	}
	return nil
}

func (b *BookConfig) validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("book.symbol cannot be empty")
	}
	if b.QueueSize <= 0 {
		return fmt.Errorf("book.queue_size must be > 0")
	}
	switch b.StateBackend {
	case "json", "sqlite", "memory":
	default:
		return fmt.Errorf("book.state_backend must be json, sqlite or memory, got %s", b.StateBackend)
	}
	switch b.JournalBackend {
	case "file", "sqlite", "none":
	default:
		return fmt.Errorf("book.journal_backend must be file, sqlite or none, got %s", b.JournalBackend)
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token or chat_id")
		}
	}
	if n.QueueSize <= 0 {
		return fmt.Errorf("notify.queue_size must be > 0")
	}
	if n.SendTimeoutSeconds <= 0 {
		return fmt.Errorf("notify.send_timeout_seconds must be > 0")
	}
	return nil
}

func (p *PriceConfig) validate() error {
	switch p.Provider {
	case "yahoo", "binance", "none":
	default:
		return fmt.Errorf("price.provider must be yahoo, binance or none, got %s", p.Provider)
	}
	for name, raw := range map[string]string{
		"price.yahoo_base_url":   p.YahooBaseURL,
		"price.binance_base_url": p.BinanceBaseURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not an absolute URL: %s", name, raw)
		}
	}
	if p.TimeoutSeconds <= 0 {
		return fmt.Errorf("price.timeout_seconds must be > 0")
	}
	if p.BreakerThreshold <= 0 {
		return fmt.Errorf("price.breaker_threshold must be > 0")
	}
	return nil
}

func (a *AutoAnalyzeConfig) validate() error {
	if a.IntervalSeconds < 5 {
		return fmt.Errorf("auto_analyze.interval_seconds must be >= 5")
	}
	if a.CooldownSeconds < 0 {
		return fmt.Errorf("auto_analyze.cooldown_seconds must be >= 0")
	}
	return nil
}

package config

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the bot's main configuration.
type Config struct {
	Include     IncludeList       `toml:"include" yaml:"include"`
	App         AppConfig         `toml:"app" yaml:"app"`
	Book        BookConfig        `toml:"book" yaml:"book"`
	Notify      NotifyConfig      `toml:"notify" yaml:"notify"`
	Price       PriceConfig       `toml:"price" yaml:"price"`
	AutoAnalyze AutoAnalyzeConfig `toml:"auto_analyze" yaml:"auto_analyze"`
}

// IncludeList names files merged before the one declaring them. A single
// string is accepted.
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = IncludeList{node.Value}
		return nil
	}
	var items []string
	if err := node.Decode(&items); err != nil {
		return err
	}
	*l = items
	return nil
}

type AppConfig struct {
	Env       string `toml:"env" yaml:"env"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
	HTTPAddr  string `toml:"http_addr" yaml:"http_addr"`
	LogPath   string `toml:"log_path" yaml:"log_path"`
	// RequestsPerSecond limits webhook calls per client IP; 0 disables it.
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second"`
}

type BookConfig struct {
	Symbol         string `toml:"symbol" yaml:"symbol"`
	QueueSize      int    `toml:"queue_size" yaml:"queue_size"`
	StateBackend   string `toml:"state_backend" yaml:"state_backend"`
	StatePath      string `toml:"state_path" yaml:"state_path"`
	JournalBackend string `toml:"journal_backend" yaml:"journal_backend"`
	JournalPath    string `toml:"journal_path" yaml:"journal_path"`
}

type NotifyConfig struct {
	Telegram           TelegramConfig `toml:"telegram" yaml:"telegram"`
	QueueSize          int            `toml:"queue_size" yaml:"queue_size"`
	SendTimeoutSeconds int            `toml:"send_timeout_seconds" yaml:"send_timeout_seconds"`
}

func (n NotifyConfig) SendTimeout() time.Duration {
	return time.Duration(n.SendTimeoutSeconds) * time.Second
}

type TelegramConfig struct {
	Enabled           bool    `toml:"enabled" yaml:"enabled"`
	BotToken          string  `toml:"bot_token" yaml:"bot_token"`
	ChatID            string  `toml:"chat_id" yaml:"chat_id"`
	WebhookSecret     string  `toml:"webhook_secret" yaml:"webhook_secret"`
	MessagesPerSecond float64 `toml:"messages_per_second" yaml:"messages_per_second"`
}

type PriceConfig struct {
	Provider               string            `toml:"provider" yaml:"provider"`
	TimeoutSeconds         int               `toml:"timeout_seconds" yaml:"timeout_seconds"`
	SymbolMap              map[string]string `toml:"symbol_map" yaml:"symbol_map"`
	YahooBaseURL           string            `toml:"yahoo_base_url" yaml:"yahoo_base_url"`
	BinanceBaseURL         string            `toml:"binance_base_url" yaml:"binance_base_url"`
	BreakerThreshold       int               `toml:"breaker_threshold" yaml:"breaker_threshold"`
	BreakerCooldownSeconds int               `toml:"breaker_cooldown_seconds" yaml:"breaker_cooldown_seconds"`
}

func (p PriceConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func (p PriceConfig) BreakerCooldown() time.Duration {
	return time.Duration(p.BreakerCooldownSeconds) * time.Second
}

type AutoAnalyzeConfig struct {
	Enabled         bool `toml:"enabled" yaml:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds" yaml:"interval_seconds"`
	CooldownSeconds int  `toml:"cooldown_seconds" yaml:"cooldown_seconds"`
	Align           bool `toml:"align" yaml:"align"`
}

func (a AutoAnalyzeConfig) Interval() time.Duration {
	return time.Duration(a.IntervalSeconds) * time.Second
}

func (a AutoAnalyzeConfig) Cooldown() time.Duration {
	return time.Duration(a.CooldownSeconds) * time.Second
}

// keySet tracks the field paths explicitly set in the config files.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes the default rule of one field.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

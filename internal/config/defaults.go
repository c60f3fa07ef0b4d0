package config

import (
	"strings"
)

const (
	defaultAppEnv            = "dev"
	defaultAppLogLevel       = "info"
	defaultAppLogFormat      = "text"
	defaultAppHTTPAddr       = ":8080"
	defaultAppRPS            = 20
	defaultBookSymbol        = "US30"
	defaultBookQueueSize     = 64
	defaultStateBackend      = "json"
	defaultStatePath         = "data/us30_state.json"
	defaultJournalBackend    = "file"
	defaultJournalPath       = "data/us30_journal.jsonl"
	defaultSQLiteStatePath   = "data/us30_state.db"
	defaultSQLiteJournalPath = "data/us30_journal.db"
	defaultNotifyQueueSize   = 128
	defaultNotifyTimeout     = 10
	defaultTelegramRate      = 1
	defaultPriceProvider     = "yahoo"
	defaultPriceTimeout      = 3
	defaultBreakerThreshold  = 3
	defaultBreakerCooldown   = 60
	defaultAutoInterval      = 60
	defaultAutoCooldown      = 60
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Book.applyDefaults(keys)
	c.Notify.applyDefaults(keys)
	c.Price.applyDefaults(keys)
	c.AutoAnalyze.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultAppLogFormat),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		fieldDefault{
			key:   "app.requests_per_second",
			need:  func() bool { return a.RequestsPerSecond <= 0 },
			apply: func() { a.RequestsPerSecond = defaultAppRPS },
		},
	)
}

func (b *BookConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	b.StateBackend = strings.ToLower(strings.TrimSpace(b.StateBackend))
	b.JournalBackend = strings.ToLower(strings.TrimSpace(b.JournalBackend))
	applyFieldDefaults(keys,
		stringFieldDefault("book.symbol", &b.Symbol, defaultBookSymbol),
		stringFieldDefault("book.state_backend", &b.StateBackend, defaultStateBackend),
		stringFieldDefault("book.journal_backend", &b.JournalBackend, defaultJournalBackend),
		intFieldDefault("book.queue_size", &b.QueueSize, defaultBookQueueSize),
	)
	b.Symbol = strings.ToUpper(strings.TrimSpace(b.Symbol))
	if strings.TrimSpace(b.StatePath) == "" {
		b.StatePath = defaultStatePath
		if b.StateBackend == "sqlite" {
			b.StatePath = defaultSQLiteStatePath
		}
	}
	if strings.TrimSpace(b.JournalPath) == "" {
		b.JournalPath = defaultJournalPath
		if b.JournalBackend == "sqlite" {
			b.JournalPath = defaultSQLiteJournalPath
		}
	}
}

func (n *NotifyConfig) applyDefaults(keys keySet) {
	if n == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("notify.queue_size", &n.QueueSize, defaultNotifyQueueSize),
		intFieldDefault("notify.send_timeout_seconds", &n.SendTimeoutSeconds, defaultNotifyTimeout),
		fieldDefault{
			key:   "notify.telegram.messages_per_second",
			need:  func() bool { return n.Telegram.MessagesPerSecond <= 0 },
			apply: func() { n.Telegram.MessagesPerSecond = defaultTelegramRate },
		},
	)
}

func (p *PriceConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	p.Provider = strings.ToLower(strings.TrimSpace(p.Provider))
	applyFieldDefaults(keys,
		stringFieldDefault("price.provider", &p.Provider, defaultPriceProvider),
		intFieldDefault("price.timeout_seconds", &p.TimeoutSeconds, defaultPriceTimeout),
		intFieldDefault("price.breaker_threshold", &p.BreakerThreshold, defaultBreakerThreshold),
		intFieldDefault("price.breaker_cooldown_seconds", &p.BreakerCooldownSeconds, defaultBreakerCooldown),
	)
}

func (a *AutoAnalyzeConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("auto_analyze.interval_seconds", &a.IntervalSeconds, defaultAutoInterval),
		intFieldDefault("auto_analyze.cooldown_seconds", &a.CooldownSeconds, defaultAutoCooldown),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

package app

import (
	"fmt"
	"strings"

	"us30bot/internal/config"
	"us30bot/internal/logger"
	"us30bot/internal/scoring"
)

// StartupSummary is printed once before the services start.
type StartupSummary struct {
	Version string
	Env     string
	HTTP    string

	Book   BookSummary
	Notify NotifySummary
	Auto   AutoSummary
	Price  string
}

type BookSummary struct {
	Symbol    string
	State     string
	Journal   string
	Positions int
	Score     int
}

type NotifySummary struct {
	Telegram      bool
	OperatorChat  string
	WebhookSecret bool
}

type AutoSummary struct {
	Enabled  bool
	Interval string
	Cooldown string
	Align    bool
}

func newStartupSummary(cfg *config.Config, version, priceSource string, positions, score int) *StartupSummary {
	return &StartupSummary{
		Version: version,
		Env:     cfg.App.Env,
		HTTP:    cfg.App.HTTPAddr,
		Book: BookSummary{
			Symbol:    cfg.Book.Symbol,
			State:     cfg.Book.StateBackend + " " + cfg.Book.StatePath,
			Journal:   journalLabel(cfg.Book),
			Positions: positions,
			Score:     score,
		},
		Notify: NotifySummary{
			Telegram:      cfg.Notify.Telegram.Enabled,
			OperatorChat:  maskChat(cfg.Notify.Telegram.ChatID),
			WebhookSecret: cfg.Notify.Telegram.WebhookSecret != "",
		},
		Auto: AutoSummary{
			Enabled:  cfg.AutoAnalyze.Enabled,
			Interval: cfg.AutoAnalyze.Interval().String(),
			Cooldown: cfg.AutoAnalyze.Cooldown().String(),
			Align:    cfg.AutoAnalyze.Align,
		},
		Price: priceSource,
	}
}

func journalLabel(cfg config.BookConfig) string {
	if cfg.JournalBackend == "none" {
		return "none"
	}
	return cfg.JournalBackend + " " + cfg.JournalPath
}

func maskChat(id string) string {
	if len(id) <= 4 {
		return id
	}
	return strings.Repeat("*", len(id)-4) + id[len(id)-4:]
}

// String renders the summary as an aligned block.
func (s *StartupSummary) String() string {
	var b strings.Builder
	line := strings.Repeat("=", 60)
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "US30-Bot v%s (%s)\n", s.Version, s.Env)
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "[book]    symbol=%s positions=%d score=%d/%s\n", s.Book.Symbol, s.Book.Positions, s.Book.Score, scoring.TierOf(s.Book.Score))
	fmt.Fprintf(&b, "          state=%s\n", s.Book.State)
	fmt.Fprintf(&b, "          journal=%s\n", s.Book.Journal)
	fmt.Fprintf(&b, "[price]   source=%s\n", s.Price)
	fmt.Fprintf(&b, "[notify]  telegram=%s operator=%s webhook_secret=%s\n", onOff(s.Notify.Telegram), formatChat(s.Notify.OperatorChat), onOff(s.Notify.WebhookSecret))
	fmt.Fprintf(&b, "[auto]    %s every %s, cooldown %s, align=%s\n", onOff(s.Auto.Enabled), s.Auto.Interval, s.Auto.Cooldown, onOff(s.Auto.Align))
	fmt.Fprintf(&b, "[http]    %s\n", s.HTTP)
	b.WriteString(line)
	return b.String()
}

func (s *StartupSummary) Print() {
	logger.InfoBlock(s.String())
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatChat(id string) string {
	if id == "" {
		return "-"
	}
	return id
}

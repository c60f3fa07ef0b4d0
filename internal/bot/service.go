// Package bot routes inbound text to the command handlers or the signal
// pipeline and renders plain-text replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"us30bot/internal/book"
	"us30bot/internal/command"
	"us30bot/internal/gateway/notifier"
	"us30bot/internal/gateway/price"
	"us30bot/internal/logger"
	"us30bot/internal/scoring"
	"us30bot/internal/signal"
)

// ReplyKind tells the transport how the text was handled.
type ReplyKind string

const (
	ReplyCommand ReplyKind = "command"
	ReplySignal  ReplyKind = "signal"
	ReplyIgnored ReplyKind = "ignored"
	ReplyError   ReplyKind = "error"
)

// Inbound is one message from a chat or webhook.
type Inbound struct {
	Source string
	ChatID string
	Text   string
}

// Reply is always produced; failures are rendered into Text.
type Reply struct {
	Kind  ReplyKind         `json:"kind"`
	Text  string            `json:"text"`
	Score *scoring.Snapshot `json:"score,omitempty"`
}

// Recorder receives handling counters. metrics.Metrics implements it.
type Recorder interface {
	ObserveSignal(kind string)
	ObserveInbound(source, kind string)
	SetScore(total int)
	SetPositions(long, short int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSignal(string)          {}
func (nopRecorder) ObserveInbound(string, string) {}
func (nopRecorder) SetScore(int)                  {}
func (nopRecorder) SetPositions(int, int)         {}

// Options configures a Service.
type Options struct {
	Version        string
	OperatorChatID string
	Recorder       Recorder
}

// Service is the command router.
type Service struct {
	book     *book.Book
	prices   price.Source
	notify   notifier.TextNotifier
	analyzer *Analyzer
	rec      Recorder
	version  string
	operator string
}

func NewService(b *book.Book, prices price.Source, n notifier.TextNotifier, a *Analyzer, opts Options) *Service {
	if prices == nil {
		prices = price.Disabled{}
	}
	if n == nil {
		n = notifier.Log{}
	}
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		book:     b,
		prices:   prices,
		notify:   n,
		analyzer: a,
		rec:      rec,
		version:  opts.Version,
		operator: opts.OperatorChatID,
	}
}

// Notifier returns the sender replies should go through.
func (s *Service) Notifier() notifier.TextNotifier { return s.notify }

// Handle processes one inbound message.
func (s *Service) Handle(ctx context.Context, in Inbound) Reply {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		s.rec.ObserveInbound(in.Source, string(ReplyIgnored))
		return Reply{Kind: ReplyIgnored, Text: "Empty message ignored."}
	}
	cmd, err := command.Parse(text)
	var reply Reply
	switch {
	case errors.Is(err, command.ErrNotCommand):
		reply = s.handleSignal(ctx, text)
	case errors.Is(err, command.ErrUnknownCommand):
		reply = Reply{Kind: ReplyError, Text: fmt.Sprintf("Unknown command %s. Send /help for the list.", firstToken(text))}
	case err != nil:
		reply = Reply{Kind: ReplyError, Text: usageText(err)}
	default:
		reply = s.handleCommand(ctx, cmd)
	}
	s.rec.ObserveInbound(in.Source, string(reply.Kind))
	return reply
}

func (s *Service) handleCommand(ctx context.Context, cmd command.Command) Reply {
	text, err := s.dispatch(ctx, cmd)
	if err != nil {
		logger.Debugf("bot: /%s failed: %v", cmd.Name(), err)
		return Reply{Kind: ReplyError, Text: fmt.Sprintf("/%s failed: %v", cmd.Name(), err)}
	}
	s.observeBook()
	return Reply{Kind: ReplyCommand, Text: text}
}

func (s *Service) dispatch(ctx context.Context, cmd command.Command) (string, error) {
	snap := s.book.Snapshot()
	switch c := cmd.(type) {
	case command.Trade:
		p, err := s.book.Open(ctx, c.Position())
		if err != nil {
			return "", err
		}
		return renderOpened(p), nil
	case command.Batch:
		res, err := s.book.OpenBatch(ctx, c.Text)
		if err != nil {
			return "", err
		}
		return renderBatch(res), nil
	case command.Close:
		if c.Mode == command.CloseAll {
			n, err := s.book.CloseAll(ctx, c.Direction)
			if err != nil {
				return "", err
			}
			return renderCloseAll(n, c.Direction), nil
		}
		out, err := s.book.Close(ctx, c.Match, c.Percent, c.Exit)
		if err != nil {
			return "", err
		}
		return renderClose(out, c), nil
	case command.Update:
		n, err := s.book.Update(ctx, c.Spec)
		if err != nil {
			return "", err
		}
		return renderUpdate(n, c.Spec), nil
	case command.OpenPrice:
		return s.setOpenPrice(ctx, c)
	case command.Zones:
		set, ok := snap.Zones()
		if !ok {
			return "No opening price set. Send /openprice <price> or /openprice to fetch it.", nil
		}
		return renderZones("STDV zones", set), nil
	case command.Signals:
		return renderSignals(snap.LastSignals(c.Limit), s.book.Score()), nil
	case command.ResetSignals:
		n, err := s.book.ResetSignals(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Signal memory cleared (%d removed).", n), nil
	case command.Status:
		return renderStatus(s.book.Symbol(), snap.Status(), s.book.Score()), nil
	case command.Stats:
		return renderStats(snap.Stats()), nil
	case command.Price:
		p := livePrice(ctx, s.prices, s.book.Symbol())
		if p == nil {
			return fmt.Sprintf("%s price unavailable right now.", s.book.Symbol()), nil
		}
		out := fmt.Sprintf("%s: %s (%s)", s.book.Symbol(), p.StringFixed(2), s.prices.Name())
		if set, ok := snap.Zones(); ok {
			if l, ok := set.Nearest(*p); ok {
				out += fmt.Sprintf("\nNearest STDV zone: %s %s (%s)", l.Label, l.Price.StringFixed(2), l.Role)
			}
		}
		return out, nil
	case command.Auto:
		return s.auto(ctx, c.Action), nil
	case command.Help:
		return fmt.Sprintf("Commands (v%s):\n%s", s.version, command.HelpText()), nil
	default:
		return "", fmt.Errorf("no handler for /%s", cmd.Name())
	}
}

func (s *Service) setOpenPrice(ctx context.Context, c command.OpenPrice) (string, error) {
	title := "Opening price set"
	p := c.Price
	if p == nil {
		fetched, err := s.prices.Open(ctx, s.book.Symbol())
		if err != nil {
			logger.Warnf("bot: open price fetch failed: %v", err)
			return "Could not fetch today's opening price. Send /openprice <price>.", nil
		}
		p = &fetched
		title = fmt.Sprintf("Opening price fetched from %s", s.prices.Name())
	}
	set, err := s.book.SetOpenPrice(ctx, *p)
	if err != nil {
		return "", err
	}
	return renderZones(title, set), nil
}

func (s *Service) auto(ctx context.Context, action command.AutoAction) string {
	if s.analyzer == nil {
		return "Auto analysis is not configured."
	}
	switch action {
	case command.AutoOn:
		if s.analyzer.Start(context.WithoutCancel(ctx)) {
			return fmt.Sprintf("Auto analysis started (every %s).", s.analyzer.Interval())
		}
		return "Auto analysis is already running."
	case command.AutoOff:
		if s.analyzer.Stop() {
			return "Auto analysis stopped."
		}
		return "Auto analysis is not running."
	default:
		return s.analyzer.StatusText()
	}
}

// handleSignal classifies text, records it and notifies the operator when
// the recomputed score reaches a tier.
func (s *Service) handleSignal(ctx context.Context, text string) Reply {
	c, ok := signal.Classify(text)
	if !ok {
		return Reply{Kind: ReplyIgnored, Text: "Signal not recognized."}
	}
	out, err := s.book.RecordSignal(ctx, c, text)
	if err != nil {
		return Reply{Kind: ReplyError, Text: fmt.Sprintf("Could not record signal: %v", err)}
	}
	s.rec.ObserveSignal(string(c.Kind))
	s.observeBook()

	score := out.Score
	switch score.Tier() {
	case scoring.TierHigh:
		sug := scoring.Propose(c.Label, score.Total, livePrice(ctx, s.prices, s.book.Symbol()))
		msg := sug.Text(s.book.Symbol())
		if len(score.Reasons) > 0 {
			msg += "\nReasons: " + strings.Join(score.Reasons, ", ")
		}
		s.send(ctx, msg)
		if s.analyzer != nil {
			s.analyzer.MarkFired(s.book.Now())
		}
	case scoring.TierEarly:
		s.send(ctx, fmt.Sprintf("Early warning: score %d/100 after %s\nReasons: %s",
			score.Total, c.Label, strings.Join(score.Reasons, ", ")))
	}
	return Reply{
		Kind:  ReplySignal,
		Text:  fmt.Sprintf("Signal recorded: %s (%+d)\nScore: %d/100 (%s)", c.Label, c.Weight, score.Total, score.Tier()),
		Score: &score,
	}
}

func (s *Service) send(ctx context.Context, text string) {
	if err := s.notify.SendText(ctx, s.operator, text); err != nil {
		logger.Warnf("bot: operator notification failed: %v", err)
	}
}

func (s *Service) observeBook() {
	snap := s.book.Snapshot()
	v := snap.Status()
	s.rec.SetPositions(len(v.Long.Positions), len(v.Short.Positions))
	s.rec.SetScore(s.book.Score().Total)
}

func usageText(err error) string {
	var ue *command.UsageError
	if errors.As(err, &ue) {
		if ue.Reason == "" {
			return "Usage: " + ue.Usage
		}
		return fmt.Sprintf("Invalid /%s: %s\nUsage: %s", ue.Name, ue.Reason, ue.Usage)
	}
	return err.Error()
}

func firstToken(text string) string {
	if f := strings.Fields(text); len(f) > 0 {
		return f[0]
	}
	return text
}

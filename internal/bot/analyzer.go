package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"us30bot/internal/book"
	"us30bot/internal/gateway/notifier"
	"us30bot/internal/gateway/price"
	"us30bot/internal/logger"
	"us30bot/internal/scheduler"
	"us30bot/internal/scoring"
)

const (
	DefaultAnalyzeInterval = time.Minute
	DefaultCooldown        = 60 * time.Second
)

type AnalyzerOptions struct {
	Interval       time.Duration
	Cooldown       time.Duration
	OperatorChatID string
	// Align runs on wall-clock interval boundaries.
	Align bool
}

// Analyzer periodically rescores the book and pushes a suggestion when the
// score is high, at most once per cooldown.
type Analyzer struct {
	book   *book.Book
	prices price.Source
	notify notifier.TextNotifier
	chatID string
	runner *scheduler.IntervalRunner

	mu        sync.Mutex
	cooldown  time.Duration
	lastFired time.Time
	lastScore int
	lastRun   time.Time
}

func NewAnalyzer(b *book.Book, prices price.Source, n notifier.TextNotifier, opts AnalyzerOptions) *Analyzer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultAnalyzeInterval
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if prices == nil {
		prices = price.Disabled{}
	}
	if n == nil {
		n = notifier.Log{}
	}
	a := &Analyzer{
		book:     b,
		prices:   prices,
		notify:   n,
		chatID:   opts.OperatorChatID,
		cooldown: opts.Cooldown,
	}
	a.runner = scheduler.NewIntervalRunner("auto-analyzer", opts.Interval, func(ctx context.Context) { a.Tick(ctx) })
	a.runner.Align = opts.Align
	return a
}

func (a *Analyzer) Start(ctx context.Context) bool { return a.runner.Start(ctx) }
func (a *Analyzer) Stop() bool                     { return a.runner.Stop() }
func (a *Analyzer) Running() bool                  { return a.runner.Running() }
func (a *Analyzer) Interval() time.Duration        { return a.runner.Interval() }
func (a *Analyzer) SetInterval(d time.Duration)    { a.runner.SetInterval(d) }

func (a *Analyzer) SetCooldown(d time.Duration) {
	if d <= 0 {
		return
	}
	a.mu.Lock()
	a.cooldown = d
	a.mu.Unlock()
}

// MarkFired starts the cooldown, e.g. after the webhook path already sent
// a suggestion.
func (a *Analyzer) MarkFired(at time.Time) {
	a.mu.Lock()
	a.lastFired = at
	a.mu.Unlock()
}

// Tick rescores once and reports whether a suggestion was sent.
func (a *Analyzer) Tick(ctx context.Context) bool {
	now := a.book.Now()
	snap := a.book.Score()

	a.mu.Lock()
	a.lastRun = now
	a.lastScore = snap.Total
	if snap.Total < scoring.HighThreshold {
		a.mu.Unlock()
		return false
	}
	if !a.lastFired.IsZero() && now.Sub(a.lastFired) < a.cooldown {
		a.mu.Unlock()
		logger.Debugf("auto-analyzer: score %d inside cooldown, skip", snap.Total)
		return false
	}
	a.lastFired = now
	a.mu.Unlock()

	// direction follows the heaviest reason; the trigger line lists them all
	sug := scoring.Propose(snap.Lead(), snap.Total, livePrice(ctx, a.prices, a.book.Symbol()))
	sug.Label = strings.Join(snap.Reasons, ", ")
	if err := a.notify.SendText(ctx, a.chatID, "[auto] "+sug.Text(a.book.Symbol())); err != nil {
		logger.Warnf("auto-analyzer: notification failed: %v", err)
	}
	return true
}

// StatusText renders the /auto status reply.
func (a *Analyzer) StatusText() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := "off"
	if a.runner.Running() {
		state = "on"
	}
	out := fmt.Sprintf("Auto analysis is %s (every %s, cooldown %s).", state, a.runner.Interval(), a.cooldown)
	if !a.lastRun.IsZero() {
		out += fmt.Sprintf("\nLast run %s, score %d/100.", a.lastRun.UTC().Format("15:04:05"), a.lastScore)
	}
	if !a.lastFired.IsZero() {
		out += fmt.Sprintf("\nLast suggestion %s.", a.lastFired.UTC().Format("15:04:05"))
	}
	return out
}

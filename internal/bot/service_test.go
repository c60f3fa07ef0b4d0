package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"us30bot/internal/book"
	"us30bot/internal/gateway/price"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type sentMessage struct {
	chatID string
	text   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) SendText(_ context.Context, chatID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type stubPrices struct {
	price decimal.Decimal
	open  decimal.Decimal
	err   error
}

func (s stubPrices) Name() string { return "stub" }

func (s stubPrices) Price(context.Context, string) (decimal.Decimal, error) {
	return s.price, s.err
}

func (s stubPrices) Open(context.Context, string) (decimal.Decimal, error) {
	return s.open, s.err
}

type fixture struct {
	svc      *Service
	book     *book.Book
	notes    *recordingNotifier
	clock    *fakeClock
	analyzer *Analyzer
}

func newFixture(t *testing.T, prices price.Source) *fixture {
	t.Helper()
	clock := newClock()
	b := book.New(book.Options{Symbol: "US30", Clock: clock.Now}, nil, nil)
	b.Start()
	t.Cleanup(b.Stop)

	notes := &recordingNotifier{}
	a := NewAnalyzer(b, prices, notes, AnalyzerOptions{Interval: time.Hour, OperatorChatID: "op"})
	t.Cleanup(func() { a.Stop() })
	svc := NewService(b, prices, notes, a, Options{Version: "1.2.3", OperatorChatID: "op"})
	return &fixture{svc: svc, book: b, notes: notes, clock: clock, analyzer: a}
}

func (f *fixture) handle(text string) Reply {
	return f.svc.Handle(context.Background(), Inbound{Source: "test", ChatID: "42", Text: text})
}

func TestTradeThenStatus(t *testing.T) {
	f := newFixture(t, nil)

	r := f.handle("/trade US30 long 42650 SL=42500 TP=43000 score=80 tag=Breakout")
	require.Equal(t, ReplyCommand, r.Kind, r.Text)
	assert.Contains(t, r.Text, "Trade added: US30 LONG @ 42650")
	assert.Contains(t, r.Text, "Setup quality 90/100")

	r = f.handle("/status")
	assert.Equal(t, ReplyCommand, r.Kind)
	assert.Contains(t, r.Text, "Open positions: 1")
	assert.Contains(t, r.Text, "LONG (1 lots):")
	assert.Contains(t, r.Text, "US30 LONG @ 42650 | lot 1 | SL 42500 | TP 43000 | score 80 | tag Breakout")
	assert.NotContains(t, r.Text, "SHORT (")

	r = f.handle("/close US30 42650")
	assert.Contains(t, r.Text, "Closed 1 position(s)")
	r = f.handle("/status")
	assert.Contains(t, r.Text, "No open US30 positions.")
}

func TestHighScoreSignalSendsSuggestion(t *testing.T) {
	f := newFixture(t, stubPrices{price: decimal.NewFromInt(42650)})

	r := f.handle("Momentum: Bullish 4h")
	require.Equal(t, ReplySignal, r.Kind)
	require.NotNil(t, r.Score)
	assert.Equal(t, 80, r.Score.Total)
	assert.Contains(t, r.Text, "Score: 80/100 (high)")

	msgs := f.notes.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "op", msgs[0].chatID)
	assert.Contains(t, msgs[0].text, "Signal suggestion (score 80/100)")
	assert.Contains(t, msgs[0].text, "US30 LONG")
	assert.Contains(t, msgs[0].text, "Entry: 42650.00")

	// webhook suggestion starts the analyzer cooldown
	assert.False(t, f.analyzer.Tick(context.Background()))
}

func TestSuggestionWithoutPriceUsesPlaceholder(t *testing.T) {
	f := newFixture(t, stubPrices{err: price.ErrUnavailable})
	f.handle("MSS Bearish 4h")
	msgs := f.notes.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "US30 SHORT")
	assert.Contains(t, msgs[0].text, "Entry: unknown/current")
}

func TestEarlyAndSilentTiers(t *testing.T) {
	f := newFixture(t, nil)

	r := f.handle("zone -2%")
	assert.Equal(t, ReplySignal, r.Kind)
	assert.Equal(t, 15, r.Score.Total)
	assert.Empty(t, f.notes.messages())

	f.handle("/resetsignals")
	r = f.handle("RSI below 30")
	assert.Equal(t, 60, r.Score.Total)
	msgs := f.notes.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "Early warning: score 60/100")
}

func TestUnrecognizedAndMalformed(t *testing.T) {
	f := newFixture(t, nil)

	r := f.handle("good morning")
	assert.Equal(t, ReplyIgnored, r.Kind)
	assert.Equal(t, "Signal not recognized.", r.Text)

	r = f.handle("   ")
	assert.Equal(t, ReplyIgnored, r.Kind)

	r = f.handle("/moon now")
	assert.Equal(t, ReplyError, r.Kind)
	assert.Contains(t, r.Text, "Unknown command /moon")

	r = f.handle("/trade US30 long")
	assert.Equal(t, ReplyError, r.Kind)
	assert.Contains(t, r.Text, "Usage: /trade")

	r = f.handle("/close 1")
	assert.Equal(t, ReplyCommand, r.Kind)
	assert.Contains(t, r.Text, "No open position matches 1")
}

func TestOpenPriceAndZones(t *testing.T) {
	f := newFixture(t, price.Disabled{})

	r := f.handle("/zones")
	assert.Contains(t, r.Text, "No opening price set")

	r = f.handle("/openprice")
	assert.Contains(t, r.Text, "Could not fetch today's opening price")

	r = f.handle("/openprice 44100")
	require.Equal(t, ReplyCommand, r.Kind)
	assert.Contains(t, r.Text, "Opening price set: 44100.00")
	assert.Contains(t, r.Text, "+2%: 44982.00 (resistance/extension)")
	assert.Contains(t, r.Text, "-5%: 41895.00 (support/pullback)")

	r = f.handle("/zones")
	assert.Contains(t, r.Text, "0%: 44100.00")
}

func TestOpenPriceFetched(t *testing.T) {
	f := newFixture(t, stubPrices{open: decimal.RequireFromString("44000.5")})
	r := f.handle("/openprice")
	assert.Contains(t, r.Text, "Opening price fetched from stub: 44000.50")
	require.NotNil(t, f.book.Snapshot().OpenPrice)
}

func TestSignalsListAndReset(t *testing.T) {
	f := newFixture(t, nil)
	f.handle("RSI below 30")
	f.handle("zone -2%")

	r := f.handle("/signals")
	assert.Contains(t, r.Text, "Recent signals:")
	assert.Contains(t, r.Text, "RSI below 30 (09:00:00, +60)")
	assert.Contains(t, r.Text, "Current score: 75/100")

	r = f.handle("/resetsignals")
	assert.Contains(t, r.Text, "2 removed")
	r = f.handle("/signals")
	assert.Contains(t, r.Text, "No signals stored.")
}

func TestBatchPartialCloseAndStats(t *testing.T) {
	f := newFixture(t, nil)

	r := f.handle("/batch\nLONG | 2 lot @ 42500 | TP: 43000 | SL: manual | Tag: swing\nnonsense\nSHORT | 1 lot @ 42900")
	assert.Contains(t, r.Text, "2 position(s) added.")
	assert.Contains(t, r.Text, "Skipped lines:")

	r = f.handle("/close long 42500 50% @42600")
	assert.Contains(t, r.Text, "Partially closed 50% of 1 position(s)")
	assert.Contains(t, r.Text, "realized 100.00")

	r = f.handle("/update 42500 SL=42450")
	assert.Contains(t, r.Text, "Updated 1 position(s) at 42500: SL 42450")

	r = f.handle("/stats")
	assert.Contains(t, r.Text, "2 positions (1 long / 1 short)")
	assert.Contains(t, r.Text, "0 full, 1 partial")
	assert.Contains(t, r.Text, "swing: 1")

	r = f.handle("/close all short")
	assert.Contains(t, r.Text, "Closed all SHORT: 1 position(s).")
}

func TestPriceHelpAndAuto(t *testing.T) {
	f := newFixture(t, stubPrices{price: decimal.RequireFromString("44123.4")})

	assert.Equal(t, "US30: 44123.40 (stub)", f.handle("/price").Text)
	f.handle("/openprice 43700")
	assert.Equal(t, "US30: 44123.40 (stub)\nNearest STDV zone: +1% 44137.00 (resistance/extension)", f.handle("/price").Text)
	assert.Contains(t, f.handle("/help").Text, "Commands (v1.2.3)")

	assert.Contains(t, f.handle("/auto").Text, "Auto analysis is off")
	assert.Contains(t, f.handle("/auto on").Text, "Auto analysis started")
	assert.True(t, f.analyzer.Running())
	assert.Contains(t, f.handle("/auto on").Text, "already running")
	assert.Contains(t, f.handle("/auto status").Text, "Auto analysis is on")
	assert.Contains(t, f.handle("/auto off").Text, "stopped")
	assert.False(t, f.analyzer.Running())
}

func TestRejectedTradeIsReported(t *testing.T) {
	f := newFixture(t, nil)
	f.book.Stop()
	r := f.handle("/trade long 42650 sl=42500")
	assert.Equal(t, ReplyError, r.Kind)
	assert.Contains(t, r.Text, "/trade failed")
}

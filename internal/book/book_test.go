package book

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"us30bot/internal/journal"
	"us30bot/internal/logger"
	"us30bot/internal/position"
	"us30bot/internal/scoring"
	"us30bot/internal/signal"
	"us30bot/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)

type mockJournal struct {
	mock.Mock
}

func (m *mockJournal) Append(ctx context.Context, e journal.Entry) error {
	return m.Called(e.Op).Error(0)
}

func (m *mockJournal) Recent(ctx context.Context, limit int) ([]journal.Entry, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]journal.Entry), args.Error(1)
}

func (m *mockJournal) Close() error { return m.Called().Error(0) }

type failingStore struct {
	store.Memory
	loadErr error
}

func (f *failingStore) Load(ctx context.Context) (store.Document, error) {
	return store.Empty(), f.loadErr
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func startBook(t *testing.T, st store.StateStore, jr journal.Journal) (*Book, *clock) {
	t.Helper()
	clk := &clock{now: t0}
	b := New(Options{Clock: clk.Now}, st, jr)
	b.Load(context.Background())
	b.Start()
	t.Cleanup(b.Stop)
	return b, clk
}

func classify(t *testing.T, text string) signal.Classified {
	t.Helper()
	c, ok := signal.Classify(text)
	require.True(t, ok, text)
	return c
}

func TestRecordSignalRecomputesScore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	b, clk := startBook(t, st, nil)

	out, err := b.RecordSignal(ctx, classify(t, "Momentum: Bullish 4h"), "Momentum: Bullish 4h")
	require.NoError(t, err)
	assert.Equal(t, 80, out.Score.Total)
	assert.Equal(t, t0, out.Signal.ObservedAt)

	clk.Advance(time.Minute)
	out, err = b.RecordSignal(ctx, classify(t, "RSI crossing up 30.00"), "RSI crossing up 30.00")
	require.NoError(t, err)
	assert.Equal(t, 100, out.Score.Total)
	assert.Equal(t, scoring.TierHigh, out.Score.Tier())

	snap := b.Snapshot()
	assert.Len(t, snap.Signals, 2)
	assert.Equal(t, 100, b.Score().Total)
	assert.Equal(t, 2, st.Saves())

	clk.Advance(signal.DefaultWindow - 30*time.Second)
	assert.Equal(t, 75, b.Score().Total, "the 4h momentum signal left the window")

	n, err := b.ResetSignals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, b.Snapshot().Signals)
	assert.Zero(t, b.Score().Total)
}

func TestTradeThenStatus(t *testing.T) {
	ctx := context.Background()
	b, _ := startBook(t, nil, nil)

	score := 80
	_, err := b.Open(ctx, position.Position{
		Symbol:     "US30",
		Direction:  position.Long,
		EntryPrice: decimal.NewFromInt(42650),
		StopLoss:   position.PriceLevel(decimal.NewFromInt(42500)),
		TakeProfit: position.PriceLevel(decimal.NewFromInt(43000)),
		Score:      &score,
		Tag:        "Breakout",
	})
	require.NoError(t, err)

	v := b.Snapshot().Status()
	require.Len(t, v.Long.Positions, 1)
	assert.Empty(t, v.Short.Positions)
	p := v.Long.Positions[0]
	assert.Equal(t, "42650", p.EntryPrice.String())
	assert.Equal(t, "42500", p.StopLoss.String())
	assert.Equal(t, "43000", p.TakeProfit.String())
	assert.Equal(t, "Breakout", p.Tag)

	out, err := b.Close(ctx, position.MatchSpec{EntryPrice: decimal.NewFromInt(42650)}, decimal.NewFromInt(100), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Matched)
	assert.Zero(t, b.Snapshot().Status().Count())
}

func TestOpenStampsCurrentScore(t *testing.T) {
	ctx := context.Background()
	b, _ := startBook(t, nil, nil)

	p, err := b.Open(ctx, position.Position{Direction: position.Short, EntryPrice: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Nil(t, p.Score)

	_, err = b.RecordSignal(ctx, classify(t, "MSS Bearish Break 1h"), "MSS Bearish Break 1h")
	require.NoError(t, err)
	p, err = b.Open(ctx, position.Position{Direction: position.Short, EntryPrice: decimal.NewFromInt(2)})
	require.NoError(t, err)
	require.NotNil(t, p.Score)
	assert.Equal(t, 70, *p.Score)
}

func TestOperationsRejectInvalidInput(t *testing.T) {
	ctx := context.Background()
	b, _ := startBook(t, nil, nil)

	_, err := b.Open(ctx, position.Position{Direction: "up", EntryPrice: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, position.ErrInvalidDirection)

	_, err = b.SetOpenPrice(ctx, decimal.Zero)
	assert.Error(t, err)
	_, ok := b.Snapshot().Zones()
	assert.False(t, ok)

	set, err := b.SetOpenPrice(ctx, decimal.NewFromInt(44100))
	require.NoError(t, err)
	assert.Len(t, set.Levels, 11)
	z, ok := b.Snapshot().Zones()
	require.True(t, ok)
	assert.Equal(t, set, z)
}

func TestConcurrentWritesAreSerialized(t *testing.T) {
	ctx := context.Background()
	b, _ := startBook(t, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := b.Open(ctx, position.Position{Direction: position.Long, EntryPrice: decimal.NewFromInt(int64(42000 + i%5))})
			assert.NoError(t, err)
			_ = b.Snapshot().Status()
		}(i)
	}
	wg.Wait()
	assert.Len(t, b.Snapshot().Positions, 50)

	n, err := b.CloseAll(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}

func TestJournalAppendedForEveryOperation(t *testing.T) {
	ctx := context.Background()
	jr := new(mockJournal)
	jr.On("Append", string(OpOpenBatch)).Return(nil).Once()
	jr.On("Append", string(OpUpdatePositions)).Return(errors.New("disk full")).Once()
	jr.On("Close").Return(nil)

	b, _ := startBook(t, nil, jr)
	res, err := b.OpenBatch(ctx, "/batch\nLONG | 1 lot @ 42500\nnonsense")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)

	tag := "x"
	n, err := b.Update(ctx, position.UpdateSpec{EntryPrice: decimal.NewFromInt(42500), Tag: &tag})
	require.NoError(t, err, "journal failures do not block the operation")
	assert.Equal(t, 1, n)

	b.Stop()
	jr.AssertExpectations(t)
}

func TestLoadRestoresDocument(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	open := decimal.NewFromInt(44100)
	require.NoError(t, st.Save(ctx, store.Document{
		OpenPrice: &open,
		Positions: []position.Position{{ID: "a", Symbol: "US30", Direction: position.Long, EntryPrice: decimal.NewFromInt(42650), LotSize: decimal.NewFromInt(1)}},
		Signals:   []signal.Signal{signal.New(classify(t, "42650"), "42650", t0.Add(-time.Minute))},
	}))

	var logs bytes.Buffer
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	b, _ := startBook(t, st, nil)
	snap := b.Snapshot()
	assert.Len(t, snap.Positions, 1)
	assert.Len(t, snap.Signals, 1)
	assert.Contains(t, logs.String(), "book: loaded 1 positions, 1 signals")
	assert.Equal(t, 10, b.Score().Total)
	_, ok := snap.Zones()
	assert.True(t, ok)
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	b, _ := startBook(t, &failingStore{loadErr: fmt.Errorf("boom")}, nil)
	assert.Empty(t, b.Snapshot().Positions)
	assert.Nil(t, b.Snapshot().OpenPrice)
}

type panicHandler struct{}

func (panicHandler) Type() OpType { return "explode" }

func (panicHandler) Handle(*HandlerContext, any) (any, error) {
	panic("kaboom")
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	ctx := context.Background()
	b := New(Options{}, nil, nil)
	b.registry.Register(panicHandler{})
	b.Start()
	t.Cleanup(b.Stop)

	_, err := b.SendSync(ctx, Envelope{ID: "1", Type: "explode"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	_, err = b.SendSync(ctx, Envelope{ID: "2", Type: "missing"})
	assert.Error(t, err)

	// the loop is still alive
	_, err = b.ResetSignals(ctx)
	assert.NoError(t, err)
}

func TestStoppedBookRejects(t *testing.T) {
	b := New(Options{}, nil, nil)
	b.Start()
	b.Stop()
	b.Stop()
	_, err := b.ResetSignals(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

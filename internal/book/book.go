// Package book owns the mutable trading state of one process: the signal
// ledger, the position ledger and the session opening price. All mutations
// run on a single actor goroutine; readers use the published snapshot.
package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"us30bot/internal/journal"
	"us30bot/internal/logger"
	"us30bot/internal/position"
	"us30bot/internal/scoring"
	"us30bot/internal/signal"
	"us30bot/internal/store"
	"us30bot/internal/zones"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrStopped is returned for operations sent after Stop.
var ErrStopped = errors.New("book is stopped")

const (
	defaultQueueSize = 64
	saveTimeout      = 5 * time.Second
	slowOpThreshold  = 100 * time.Millisecond
)

// Observer receives one call per applied operation.
type Observer interface {
	ObserveOp(op string, took time.Duration, err error)
}

// Options configures a Book. Zero values pick defaults.
type Options struct {
	Symbol    string
	Window    time.Duration
	QueueSize int
	Clock     func() time.Time
	Observer  Observer
}

// Book is the single-writer actor.
type Book struct {
	symbol    string
	signals   *signal.Ledger
	positions *position.Ledger
	openPrice *decimal.Decimal
	engine    *scoring.Engine

	state    store.StateStore
	journal  journal.Journal
	registry *HandlerRegistry
	observer Observer
	now      func() time.Time

	msgCh    chan Envelope
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	snapshot atomic.Value
	version  uint64
}

// New builds a book. st and jr may be nil.
func New(opts Options, st store.StateStore, jr journal.Journal) *Book {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	if st == nil {
		st = store.NewMemory()
	}
	if jr == nil {
		jr = journal.Nop{}
	}
	positions := position.NewLedger(opts.Symbol, nil)
	positions.SetClock(opts.Clock)

	reg := NewHandlerRegistry()
	reg.RegisterDefaultHandlers()

	b := &Book{
		symbol:    positions.Symbol(),
		signals:   signal.NewLedger(),
		positions: positions,
		engine:    scoring.NewEngine(opts.Window),
		state:     st,
		journal:   jr,
		registry:  reg,
		observer:  opts.Observer,
		now:       opts.Clock,
		msgCh:     make(chan Envelope, opts.QueueSize),
		stopCh:    make(chan struct{}),
	}
	b.refreshSnapshot()
	return b
}

// Load seeds the ledgers from the state store. It must run before Start.
// Missing or corrupt state leaves the book empty and is never fatal.
func (b *Book) Load(ctx context.Context) {
	doc, err := b.state.Load(ctx)
	if err != nil {
		logger.Warnf("book: state load failed, starting empty: %v", err)
		if !errors.Is(err, store.ErrCorrupt) {
			doc = store.Empty()
		}
	}
	b.signals = signal.NewLedger(doc.Signals...)
	b.positions = position.NewLedger(b.symbol, doc.Positions)
	b.positions.SetClock(b.now)
	b.positions.RestoreEvents(doc.Closes)
	b.openPrice = doc.OpenPrice
	b.refreshSnapshot()
	logger.Infof("book: loaded %d positions, %d signals", b.positions.Len(), b.signals.Len())
}

func (b *Book) Start() {
	b.wg.Add(1)
	go b.runLoop()
}

// Stop ends the actor loop and closes the journal and state store. Queued
// operations are abandoned and their senders get ErrStopped.
func (b *Book) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
		b.wg.Wait()
		if err := b.journal.Close(); err != nil {
			logger.Warnf("book: journal close failed: %v", err)
		}
		if err := b.state.Close(); err != nil {
			logger.Warnf("book: state store close failed: %v", err)
		}
	})
}

// Symbol returns the tracked instrument.
func (b *Book) Symbol() string { return b.symbol }

// Engine returns the score engine shared with readers.
func (b *Book) Engine() *scoring.Engine { return b.engine }

// Now returns the book clock.
func (b *Book) Now() time.Time { return b.now() }

// Snapshot returns the last published state without blocking.
func (b *Book) Snapshot() *State {
	if v, ok := b.snapshot.Load().(*State); ok {
		return v
	}
	return emptyState(b.symbol)
}

// Score recomputes the score from the current snapshot.
func (b *Book) Score() scoring.Snapshot {
	return b.Snapshot().Score(b.engine, b.now())
}

// Journal lists recent journal entries.
func (b *Book) Journal(ctx context.Context, limit int) ([]journal.Entry, error) {
	return b.journal.Recent(ctx, limit)
}

func (b *Book) RecordSignal(ctx context.Context, c signal.Classified, rawText string) (SignalOutcome, error) {
	return call[SignalOutcome](ctx, b, OpRecordSignal, RecordSignalPayload{Classified: c, RawText: rawText, ObservedAt: b.now()})
}

func (b *Book) ResetSignals(ctx context.Context) (int, error) {
	return call[int](ctx, b, OpResetSignals, struct{}{})
}

func (b *Book) Open(ctx context.Context, p position.Position) (position.Position, error) {
	return call[position.Position](ctx, b, OpOpenPosition, OpenPositionPayload{Position: p})
}

func (b *Book) OpenBatch(ctx context.Context, text string) (position.BatchResult, error) {
	return call[position.BatchResult](ctx, b, OpOpenBatch, OpenBatchPayload{Text: text})
}

// Close closes percent of every position matching m; 100 is a full close.
func (b *Book) Close(ctx context.Context, m position.MatchSpec, percent decimal.Decimal, exit *decimal.Decimal) (position.PartialCloseOutcome, error) {
	return call[position.PartialCloseOutcome](ctx, b, OpClosePositions, ClosePayload{Match: m, Percent: percent, Exit: exit})
}

func (b *Book) CloseAll(ctx context.Context, dir *position.Direction) (int, error) {
	return call[int](ctx, b, OpCloseAll, CloseAllPayload{Direction: dir})
}

func (b *Book) Update(ctx context.Context, spec position.UpdateSpec) (int, error) {
	return call[int](ctx, b, OpUpdatePositions, UpdatePayload{Spec: spec})
}

func (b *Book) SetOpenPrice(ctx context.Context, price decimal.Decimal) (zones.Set, error) {
	return call[zones.Set](ctx, b, OpSetOpenPrice, SetOpenPricePayload{Price: price})
}

func call[T any](ctx context.Context, b *Book, op OpType, payload any) (T, error) {
	var zero T
	v, err := b.SendSync(ctx, Envelope{ID: uuid.NewString(), Type: op, Payload: payload})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("book: %s: unexpected result %T", op, v)
	}
	return out, nil
}

// Send enqueues evt without waiting for the result.
func (b *Book) Send(ctx context.Context, evt Envelope) error {
	select {
	case <-b.stopCh:
		return ErrStopped
	default:
	}
	select {
	case b.msgCh <- evt:
		return nil
	case <-b.stopCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendSync enqueues evt and waits for the handler result.
func (b *Book) SendSync(ctx context.Context, evt Envelope) (any, error) {
	if evt.ReplyCh == nil {
		evt.ReplyCh = make(chan Result, 1)
	}
	if err := b.Send(ctx, evt); err != nil {
		return nil, err
	}
	select {
	case res := <-evt.ReplyCh:
		return res.Value, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.stopCh:
		return nil, ErrStopped
	}
}

func (b *Book) runLoop() {
	defer b.wg.Done()
	logger.Infof("book actor started (%s)", b.symbol)
	for {
		select {
		case evt := <-b.msgCh:
			b.handleEvent(evt)
		case <-b.stopCh:
			logger.Infof("book actor stopping")
			return
		}
	}
}

// handleEvent journals evt, applies it, publishes a snapshot and saves state.
// Panics in handlers are recovered and returned as errors.
func (b *Book) handleEvent(evt Envelope) {
	var (
		value any
		err   error
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("book: panic handling %s: %v\n%s", evt.Type, r, debug.Stack())
			err = fmt.Errorf("panic: %v", r)
			value = nil
		}
		took := time.Since(start)
		if evt.ReplyCh != nil {
			evt.ReplyCh <- Result{Value: value, Err: err}
			close(evt.ReplyCh)
		}
		if b.observer != nil {
			b.observer.ObserveOp(string(evt.Type), took, err)
		}
		if took > slowOpThreshold {
			logger.Warnf("book: slow op %s took %v", evt.Type, took)
		}
	}()

	handler, ok := b.registry.Get(evt.Type)
	if !ok {
		err = fmt.Errorf("book: no handler for %s", evt.Type)
		logger.Warnf("%v", err)
		return
	}

	b.appendJournal(evt)

	value, err = handler.Handle(newHandlerContext(b), evt.Payload)
	if err != nil {
		logger.Debugf("book: %s rejected: %v", evt.Type, err)
		return
	}
	b.refreshSnapshot()
	b.persist()
}

func (b *Book) appendJournal(evt Envelope) {
	raw, err := json.Marshal(evt.Payload)
	if err != nil {
		logger.Errorf("book: marshal %s for journal: %v", evt.Type, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := b.journal.Append(ctx, journal.Entry{ID: evt.ID, Op: string(evt.Type), Payload: raw, At: b.now()}); err != nil {
		logger.Errorf("book: journal append %s failed: %v", evt.Type, err)
	}
}

func (b *Book) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := b.state.Save(ctx, b.Snapshot().Document()); err != nil {
		logger.Warnf("book: state save failed: %v", err)
	}
}

func (b *Book) refreshSnapshot() {
	b.version++
	s := &State{
		Symbol:    b.symbol,
		Positions: b.positions.Positions(),
		Signals:   b.signals.All(),
		Closes:    b.positions.Events(),
		Version:   b.version,
		UpdatedAt: b.now(),
	}
	if b.openPrice != nil {
		p := *b.openPrice
		s.OpenPrice = &p
	}
	b.snapshot.Store(s)
}

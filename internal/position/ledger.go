package position

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Ledger holds open positions in insertion order plus the close history.
// It does no locking; the owning book serializes access.
type Ledger struct {
	symbol    string
	positions []Position
	events    []CloseEvent
	now       func() time.Time
}

// NewLedger returns a ledger for symbol seeded with initial positions.
func NewLedger(symbol string, initial []Position) *Ledger {
	if strings.TrimSpace(symbol) == "" {
		symbol = DefaultSymbol
	}
	l := &Ledger{symbol: strings.ToUpper(symbol), now: func() time.Time { return time.Now().UTC() }}
	l.positions = append(l.positions, initial...)
	return l
}

// SetClock overrides the time source, for tests.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// Symbol returns the book symbol.
func (l *Ledger) Symbol() string { return l.symbol }

// Open validates and appends p, filling symbol, lot size, id and open time
// when absent.
func (l *Ledger) Open(p Position) (Position, error) {
	if !p.Direction.Valid() {
		return Position{}, ErrInvalidDirection
	}
	if !p.EntryPrice.IsPositive() {
		return Position{}, ErrInvalidEntry
	}
	if p.Symbol == "" {
		p.Symbol = l.symbol
	}
	p.Symbol = strings.ToUpper(p.Symbol)
	if !p.LotSize.IsPositive() {
		p.LotSize = decimal.NewFromInt(1)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.OpenedAt.IsZero() {
		p.OpenedAt = l.now()
	}
	l.positions = append(l.positions, p)
	return p, nil
}

// BatchResult reports a batch open. Added is the number of lines that became
// positions.
type BatchResult struct {
	Added     int         `json:"added"`
	Positions []Position  `json:"positions,omitempty"`
	Skipped   []LineError `json:"skipped,omitempty"`
}

// OpenBatch parses a multi-line block and opens every line that parses. A bad
// line never aborts the batch.
func (l *Ledger) OpenBatch(text string) BatchResult {
	parsed, skipped := ParseBatch(text)
	res := BatchResult{Skipped: skipped}
	for _, pl := range parsed {
		p, err := l.Open(pl.Position)
		if err != nil {
			res.Skipped = append(res.Skipped, LineError{Line: pl.Line, Text: pl.Text, Reason: err.Error()})
			continue
		}
		res.Positions = append(res.Positions, p)
	}
	res.Added = len(res.Positions)
	return res
}

// Close removes every position matching m and returns how many were removed.
func (l *Ledger) Close(m MatchSpec) int {
	return len(l.remove(func(p Position) bool { return m.matches(p, l.symbol) }, nil))
}

// CloseAll removes all positions, or only one side when dir is set.
func (l *Ledger) CloseAll(dir *Direction) int {
	return len(l.remove(func(p Position) bool { return dir == nil || p.Direction == *dir }, nil))
}

// PartialCloseOutcome describes a percent close.
type PartialCloseOutcome struct {
	Matched int             `json:"matched"`
	Percent decimal.Decimal `json:"percent"`
	Full    bool            `json:"full"`
	Events  []CloseEvent    `json:"events,omitempty"`
}

// Realized sums the weighted point result across the events.
func (o PartialCloseOutcome) Realized() decimal.Decimal {
	total := decimal.Zero
	for _, e := range o.Events {
		total = total.Add(e.Realized())
	}
	return total
}

// PartialClose closes percent of every matching position. At 100% or more it
// is a full close; below that an event is recorded and lot sizes are left
// untouched. A non-positive percent matches nothing.
func (l *Ledger) PartialClose(m MatchSpec, percent decimal.Decimal, exit *decimal.Decimal) PartialCloseOutcome {
	out := PartialCloseOutcome{Percent: percent}
	if !percent.IsPositive() {
		return out
	}
	match := func(p Position) bool { return m.matches(p, l.symbol) }
	if percent.GreaterThanOrEqual(hundred) {
		out.Full = true
		out.Percent = hundred
		out.Events = l.remove(match, exit)
		out.Matched = len(out.Events)
		return out
	}
	for _, p := range l.positions {
		if match(p) {
			ev := l.event(p, percent, exit)
			l.events = append(l.events, ev)
			out.Events = append(out.Events, ev)
		}
	}
	out.Matched = len(out.Events)
	return out
}

// Update overwrites the supplied fields on every position with the given
// entry (and symbol) and returns the number updated.
func (l *Ledger) Update(u UpdateSpec) int {
	sym := u.Symbol
	if sym == "" {
		sym = l.symbol
	}
	n := 0
	for i := range l.positions {
		p := &l.positions[i]
		if !strings.EqualFold(p.Symbol, sym) || !p.EntryPrice.Equal(u.EntryPrice) {
			continue
		}
		if u.StopLoss != nil {
			p.StopLoss = *u.StopLoss
		}
		if u.TakeProfit != nil {
			p.TakeProfit = *u.TakeProfit
		}
		if u.Tag != nil {
			p.Tag = *u.Tag
		}
		n++
	}
	return n
}

// Group is one side of the status view.
type Group struct {
	Positions []Position      `json:"positions"`
	TotalLots decimal.Decimal `json:"totalLots"`
}

// StatusView partitions open positions by direction, insertion order kept.
type StatusView struct {
	Long  Group `json:"long"`
	Short Group `json:"short"`
}

// Count returns the number of open positions.
func (v StatusView) Count() int { return len(v.Long.Positions) + len(v.Short.Positions) }

// Status returns the grouped view.
func (l *Ledger) Status() StatusView {
	return StatusOf(l.positions)
}

// StatusOf groups positions without a ledger, for snapshot readers.
func StatusOf(positions []Position) StatusView {
	v := StatusView{
		Long:  Group{Positions: []Position{}, TotalLots: decimal.Zero},
		Short: Group{Positions: []Position{}, TotalLots: decimal.Zero},
	}
	for _, p := range positions {
		g := &v.Long
		if p.Direction == Short {
			g = &v.Short
		}
		g.Positions = append(g.Positions, p)
		g.TotalLots = g.TotalLots.Add(p.LotSize)
	}
	return v
}

// Stats summarizes open exposure and close history.
type Stats struct {
	Open           int             `json:"open"`
	Long           int             `json:"long"`
	Short          int             `json:"short"`
	LongLots       decimal.Decimal `json:"longLots"`
	ShortLots      decimal.Decimal `json:"shortLots"`
	FullCloses     int             `json:"fullCloses"`
	PartialCloses  int             `json:"partialCloses"`
	Wins           int             `json:"wins"`
	Losses         int             `json:"losses"`
	RealizedPoints decimal.Decimal `json:"realizedPoints"`
	ByTag          map[string]int  `json:"byTag,omitempty"`
}

// Stats returns the summary for the current ledger.
func (l *Ledger) Stats() Stats {
	return StatsOf(l.positions, l.events)
}

// StatsOf computes Stats from raw slices.
func StatsOf(positions []Position, events []CloseEvent) Stats {
	v := StatusOf(positions)
	s := Stats{
		Open:           v.Count(),
		Long:           len(v.Long.Positions),
		Short:          len(v.Short.Positions),
		LongLots:       v.Long.TotalLots,
		ShortLots:      v.Short.TotalLots,
		RealizedPoints: decimal.Zero,
	}
	for _, p := range positions {
		if p.Tag == "" {
			continue
		}
		if s.ByTag == nil {
			s.ByTag = make(map[string]int)
		}
		s.ByTag[p.Tag]++
	}
	for _, e := range events {
		if e.Full() {
			s.FullCloses++
		} else {
			s.PartialCloses++
		}
		if e.PnLPoints == nil {
			continue
		}
		switch e.PnLPoints.Sign() {
		case 1:
			s.Wins++
		case -1:
			s.Losses++
		}
		s.RealizedPoints = s.RealizedPoints.Add(e.Realized())
	}
	return s
}

// Positions returns a copy of the open positions.
func (l *Ledger) Positions() []Position {
	out := make([]Position, len(l.positions))
	copy(out, l.positions)
	return out
}

// Events returns a copy of the close history.
func (l *Ledger) Events() []CloseEvent {
	out := make([]CloseEvent, len(l.events))
	copy(out, l.events)
	return out
}

// RestoreEvents seeds the close history, used when loading state.
func (l *Ledger) RestoreEvents(events []CloseEvent) {
	l.events = append(l.events[:0], events...)
}

// Len returns the number of open positions.
func (l *Ledger) Len() int { return len(l.positions) }

func (l *Ledger) remove(match func(Position) bool, exit *decimal.Decimal) []CloseEvent {
	kept := l.positions[:0]
	var removed []CloseEvent
	for _, p := range l.positions {
		if match(p) {
			ev := l.event(p, hundred, exit)
			l.events = append(l.events, ev)
			removed = append(removed, ev)
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(l.positions); i++ {
		l.positions[i] = Position{}
	}
	l.positions = kept
	return removed
}

func (l *Ledger) event(p Position, percent decimal.Decimal, exit *decimal.Decimal) CloseEvent {
	ev := CloseEvent{
		PositionID: p.ID,
		Symbol:     p.Symbol,
		Direction:  p.Direction,
		EntryPrice: p.EntryPrice,
		LotSize:    p.LotSize,
		Percent:    percent,
		At:         l.now(),
	}
	if exit != nil {
		x := *exit
		pnl := p.PnLPoints(x)
		ev.ExitPrice = &x
		ev.PnLPoints = &pnl
	}
	return ev
}

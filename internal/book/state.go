package book

import (
	"time"

	"us30bot/internal/position"
	"us30bot/internal/scoring"
	"us30bot/internal/signal"
	"us30bot/internal/store"
	"us30bot/internal/zones"

	"github.com/shopspring/decimal"
)

// State is an immutable copy of the book published after every mutation.
// Readers must not modify the slices.
type State struct {
	Symbol    string
	OpenPrice *decimal.Decimal
	Positions []position.Position
	Signals   []signal.Signal
	Closes    []position.CloseEvent
	Version   uint64
	UpdatedAt time.Time
}

func emptyState(symbol string) *State {
	return &State{Symbol: symbol, Positions: []position.Position{}, Signals: []signal.Signal{}}
}

// Score recomputes the score over the snapshot's signals.
func (s *State) Score(e *scoring.Engine, now time.Time) scoring.Snapshot {
	return e.Compute(s.Signals, now)
}

// Status groups the open positions by direction.
func (s *State) Status() position.StatusView { return position.StatusOf(s.Positions) }

// Stats summarizes positions and close history.
func (s *State) Stats() position.Stats { return position.StatsOf(s.Positions, s.Closes) }

// Zones returns the STDV ladder when an opening price is set.
func (s *State) Zones() (zones.Set, bool) {
	if s.OpenPrice == nil {
		return zones.Set{}, false
	}
	return zones.Compute(*s.OpenPrice), true
}

// LastSignals returns up to n most recent signals, oldest first.
func (s *State) LastSignals(n int) []signal.Signal { return signal.Last(s.Signals, n) }

// Document converts the snapshot into the persisted shape.
func (s *State) Document() store.Document {
	doc := store.Empty()
	if s.OpenPrice != nil {
		p := *s.OpenPrice
		doc.OpenPrice = &p
	}
	doc.Positions = append(doc.Positions, s.Positions...)
	doc.Signals = append(doc.Signals, s.Signals...)
	if len(s.Closes) > 0 {
		doc.Closes = append(doc.Closes, s.Closes...)
	}
	return doc
}

// Package position keeps the book of user-asserted open trades. Positions are
// matched for close and update by (symbol, direction, entry price); the
// generated id is kept for storage and audit only.
package position

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDirection = errors.New("direction must be long or short")
	ErrInvalidEntry     = errors.New("entry price must be a positive number")
)

// DefaultSymbol is the instrument a book tracks when none is configured.
const DefaultSymbol = "US30"

// Direction of a position.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// ParseDirection accepts long/short in any case, plus buy/sell.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

func (d Direction) Valid() bool { return d == Long || d == Short }

// Upper renders LONG or SHORT.
func (d Direction) Upper() string { return strings.ToUpper(string(d)) }

// Sign is +1 for long and -1 for short.
func (d Direction) Sign() decimal.Decimal {
	if d == Short {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Position is one open trade record.
type Position struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Direction  Direction       `json:"direction"`
	EntryPrice decimal.Decimal `json:"entryPrice"`
	StopLoss   Level           `json:"stopLoss"`
	TakeProfit Level           `json:"takeProfit"`
	LotSize    decimal.Decimal `json:"lotSize"`
	Score      *int            `json:"score,omitempty"`
	Tag        string          `json:"tag,omitempty"`
	OpenedAt   time.Time       `json:"openedAt"`
}

// PnLPoints is the per-lot point result of exiting at price.
func (p Position) PnLPoints(exit decimal.Decimal) decimal.Decimal {
	return exit.Sub(p.EntryPrice).Mul(p.Direction.Sign())
}

// MatchSpec selects positions for close. EntryPrice is mandatory; an empty
// Symbol means the book symbol and a nil Direction matches both sides.
type MatchSpec struct {
	Symbol     string
	Direction  *Direction
	EntryPrice decimal.Decimal
}

func (m MatchSpec) matches(p Position, bookSymbol string) bool {
	sym := m.Symbol
	if sym == "" {
		sym = bookSymbol
	}
	if !strings.EqualFold(p.Symbol, sym) {
		return false
	}
	if m.Direction != nil && p.Direction != *m.Direction {
		return false
	}
	return p.EntryPrice.Equal(m.EntryPrice)
}

// UpdateSpec overwrites only the non-nil fields of every position matching
// (symbol, entry).
type UpdateSpec struct {
	Symbol     string
	EntryPrice decimal.Decimal
	StopLoss   *Level
	TakeProfit *Level
	Tag        *string
}

// Empty reports whether the update would change nothing.
func (u UpdateSpec) Empty() bool {
	return u.StopLoss == nil && u.TakeProfit == nil && u.Tag == nil
}

// CloseEvent records a full or partial close. ExitPrice and PnLPoints are
// set only when the operator supplied an exit price.
type CloseEvent struct {
	PositionID string           `json:"positionId"`
	Symbol     string           `json:"symbol"`
	Direction  Direction        `json:"direction"`
	EntryPrice decimal.Decimal  `json:"entryPrice"`
	LotSize    decimal.Decimal  `json:"lotSize"`
	Percent    decimal.Decimal  `json:"percent"`
	ExitPrice  *decimal.Decimal `json:"exitPrice,omitempty"`
	PnLPoints  *decimal.Decimal `json:"pnlPoints,omitempty"`
	At         time.Time        `json:"at"`
}

// Realized is the lot and percent weighted point result, zero without an exit
// price.
func (e CloseEvent) Realized() decimal.Decimal {
	if e.PnLPoints == nil {
		return decimal.Zero
	}
	return e.PnLPoints.Mul(e.LotSize).Mul(e.Percent).Div(decimal.NewFromInt(100))
}

// Full reports whether the event removed the position.
func (e CloseEvent) Full() bool {
	return e.Percent.GreaterThanOrEqual(decimal.NewFromInt(100))
}

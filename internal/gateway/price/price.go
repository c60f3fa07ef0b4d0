// Package price looks up the current and session-opening price of the
// tracked instrument. Lookups are best effort: callers degrade to
// placeholder text on ErrUnavailable.
package price

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnavailable wraps every lookup failure.
var ErrUnavailable = errors.New("price unavailable")

// Source fetches prices for a book symbol such as "US30".
type Source interface {
	Name() string
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
	// Open returns today's opening price.
	Open(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// SymbolMap translates book symbols into provider tickers. Lookups are
// case-insensitive; unmapped symbols pass through unchanged.
type SymbolMap map[string]string

func (m SymbolMap) Resolve(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	for k, v := range m {
		if strings.EqualFold(k, symbol) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return symbol
}

// Disabled is used when no provider is configured.
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Price(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, ErrUnavailable
}

func (Disabled) Open(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, ErrUnavailable
}

func parsePositive(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

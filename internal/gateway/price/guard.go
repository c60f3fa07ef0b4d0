package price

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Guard bounds every lookup with a timeout and short-circuits a provider
// that keeps failing. All failures are returned wrapped in ErrUnavailable.
type Guard struct {
	next    Source
	timeout time.Duration
	breaker *Breaker
}

func NewGuard(next Source, timeout time.Duration, breaker *Breaker) *Guard {
	return &Guard{next: next, timeout: timeout, breaker: breaker}
}

func (g *Guard) Name() string { return g.next.Name() }

func (g *Guard) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return g.do(ctx, "price", symbol, g.next.Price)
}

func (g *Guard) Open(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return g.do(ctx, "open", symbol, g.next.Open)
}

func (g *Guard) do(ctx context.Context, what, symbol string, fn func(context.Context, string) (decimal.Decimal, error)) (decimal.Decimal, error) {
	if g.breaker != nil && !g.breaker.Allow() {
		return decimal.Zero, fmt.Errorf("%w: %s breaker open", ErrUnavailable, g.next.Name())
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	v, err := fn(ctx, symbol)
	if err != nil {
		if g.breaker != nil {
			g.breaker.RecordFailure()
		}
		return decimal.Zero, fmt.Errorf("%w: %s %s %s: %v", ErrUnavailable, g.next.Name(), what, symbol, err)
	}
	if g.breaker != nil {
		g.breaker.RecordSuccess()
	}
	return v, nil
}

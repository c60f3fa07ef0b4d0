package book

import (
	"time"

	"us30bot/internal/position"
	"us30bot/internal/scoring"
	"us30bot/internal/signal"

	"github.com/shopspring/decimal"
)

// Handler applies one operation type to the book. It runs on the actor
// goroutine and may mutate the ledgers through the context.
type Handler interface {
	Type() OpType
	Handle(hc *HandlerContext, payload any) (any, error)
}

// HandlerContext exposes the book internals handlers need.
type HandlerContext struct {
	book *Book
}

func newHandlerContext(b *Book) *HandlerContext { return &HandlerContext{book: b} }

func (c *HandlerContext) Signals() *signal.Ledger     { return c.book.signals }
func (c *HandlerContext) Positions() *position.Ledger { return c.book.positions }
func (c *HandlerContext) Engine() *scoring.Engine     { return c.book.engine }
func (c *HandlerContext) Now() time.Time              { return c.book.now() }

// OpenPrice returns the current session opening price, if set.
func (c *HandlerContext) OpenPrice() *decimal.Decimal { return c.book.openPrice }

// SetOpenPrice replaces the opening price.
func (c *HandlerContext) SetOpenPrice(p decimal.Decimal) { c.book.openPrice = &p }

// Score computes the current score from the live ledger.
func (c *HandlerContext) Score() scoring.Snapshot {
	return c.book.engine.Compute(c.book.signals.All(), c.Now())
}

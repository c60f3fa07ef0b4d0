// Package store persists the book state document. Backends are the JSON file
// (jsonfile), SQLite through gorm (gormstore) and an in-memory store for
// tests and ephemeral runs.
package store

import (
	"context"
	"errors"

	"us30bot/internal/position"
	"us30bot/internal/signal"

	"github.com/shopspring/decimal"
)

// ErrCorrupt is wrapped by Load when stored state cannot be decoded. The
// returned document is still usable (empty).
var ErrCorrupt = errors.New("corrupt state")

// Document is the whole persisted book.
type Document struct {
	OpenPrice *decimal.Decimal      `json:"openPrice"`
	Positions []position.Position   `json:"positions"`
	Signals   []signal.Signal       `json:"signals"`
	Closes    []position.CloseEvent `json:"closes,omitempty"`
}

// Empty returns a document with non-nil slices.
func Empty() Document {
	return Document{
		Positions: []position.Position{},
		Signals:   []signal.Signal{},
	}
}

// StateStore loads and saves the book document. Load on a store that has
// never been written returns Empty() and no error.
type StateStore interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
	Close() error
}

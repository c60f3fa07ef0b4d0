// Package journal keeps an append-only audit trail of book operations.
package journal

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one journaled operation. Payload is the operation input as JSON.
type Entry struct {
	ID      string          `json:"id"`
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

// Journal appends entries and lists the most recent ones, oldest first.
type Journal interface {
	Append(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Append(context.Context, Entry) error          { return nil }
func (Nop) Recent(context.Context, int) ([]Entry, error) { return nil, nil }
func (Nop) Close() error                                 { return nil }

func tail(entries []Entry, limit int) []Entry {
	if limit <= 0 || limit >= len(entries) {
		return entries
	}
	return entries[len(entries)-limit:]
}

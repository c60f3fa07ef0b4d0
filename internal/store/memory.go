package store

import (
	"context"
	"sync"
)

// Memory keeps the document in process. Saved documents are copied so
// callers cannot mutate stored state.
type Memory struct {
	mu    sync.RWMutex
	doc   Document
	saves int
}

func NewMemory() *Memory {
	return &Memory{doc: Empty()}
}

func (m *Memory) Load(ctx context.Context) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.doc), nil
}

func (m *Memory) Save(ctx context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = clone(doc)
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *Memory) Close() error { return nil }

func clone(d Document) Document {
	out := Empty()
	if d.OpenPrice != nil {
		p := *d.OpenPrice
		out.OpenPrice = &p
	}
	out.Positions = append(out.Positions, d.Positions...)
	out.Signals = append(out.Signals, d.Signals...)
	if len(d.Closes) > 0 {
		out.Closes = append(out.Closes, d.Closes...)
	}
	return out
}

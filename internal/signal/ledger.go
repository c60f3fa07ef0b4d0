package signal

import (
	"time"

	"github.com/google/uuid"
)

// DefaultWindow is the authoritative recency window used for scoring. Older
// variants of the bot also used 60 minutes; 45 is the contract.
const DefaultWindow = 45 * time.Minute

// DefaultListLimit is how many entries /signals shows.
const DefaultListLimit = 10

// Ledger is the time-ordered, append-only signal store. It performs no
// locking: the owning book serializes access.
type Ledger struct {
	entries []Signal
}

func NewLedger(initial ...Signal) *Ledger {
	l := &Ledger{}
	for _, s := range initial {
		l.Record(s)
	}
	return l
}

// New builds a Signal from a classifier result.
func New(c Classified, rawText string, observedAt time.Time) Signal {
	return Signal{
		ID:         uuid.NewString(),
		Kind:       c.Kind,
		Weight:     c.Weight,
		Label:      c.Label,
		RawText:    rawText,
		ObservedAt: observedAt.UTC(),
	}
}

// Record appends s, keeping the ledger ordered by ObservedAt. Identical
// signals are recorded again; dedupe happens in scoring.
func (l *Ledger) Record(s Signal) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.ObservedAt = s.ObservedAt.UTC()
	n := len(l.entries)
	if n == 0 || !s.ObservedAt.Before(l.entries[n-1].ObservedAt) {
		l.entries = append(l.entries, s)
		return
	}
	i := n
	for i > 0 && s.ObservedAt.Before(l.entries[i-1].ObservedAt) {
		i--
	}
	l.entries = append(l.entries, Signal{})
	copy(l.entries[i+1:], l.entries[i:])
	l.entries[i] = s
}

// Recent returns signals with ObservedAt strictly after now-window, oldest
// first. A signal observed exactly at the boundary is excluded.
func (l *Ledger) Recent(window time.Duration, now time.Time) []Signal {
	return Recent(l.entries, window, now)
}

// Recent filters an ordered slice the same way Ledger.Recent does, so
// snapshot holders can apply the window without a ledger.
func Recent(entries []Signal, window time.Duration, now time.Time) []Signal {
	cutoff := now.Add(-window)
	out := make([]Signal, 0, len(entries))
	for _, s := range entries {
		if s.ObservedAt.After(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// ResetAll drops the entire history, not only the recency window.
func (l *Ledger) ResetAll() int {
	n := len(l.entries)
	l.entries = nil
	return n
}

// All returns a copy of the full history.
func (l *Ledger) All() []Signal {
	out := make([]Signal, len(l.entries))
	copy(out, l.entries)
	return out
}

// Last returns up to n most recent entries, oldest first.
func (l *Ledger) Last(n int) []Signal {
	return Last(l.entries, n)
}

func Last(entries []Signal, n int) []Signal {
	if n <= 0 || len(entries) == 0 {
		return nil
	}
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]Signal, n)
	copy(out, entries[len(entries)-n:])
	return out
}

func (l *Ledger) Len() int { return len(l.entries) }

// Package scoring turns the recent signal history into a 0-100 setup score
// and derives trade suggestions from it.
package scoring

import (
	"time"

	"us30bot/internal/signal"
)

const (
	// ConfluenceBonus is added once at least ConfluenceMinKinds distinct
	// kinds contribute a reason inside the window, whatever their sign.
	ConfluenceBonus    = 10
	ConfluenceMinKinds = 3

	HighThreshold  = 70
	EarlyThreshold = 40

	maxScore = 100
	minScore = 0
)

// Tier is the caller-visible notification class of a score.
type Tier string

const (
	TierNone  Tier = "none"
	TierEarly Tier = "early"
	TierHigh  Tier = "high"
)

// TierOf classifies a total against the notification thresholds.
func TierOf(total int) Tier {
	switch {
	case total >= HighThreshold:
		return TierHigh
	case total >= EarlyThreshold:
		return TierEarly
	default:
		return TierNone
	}
}

// Snapshot is a derived score. It is never stored.
type Snapshot struct {
	Total      int           `json:"total"`
	Reasons    []string      `json:"reasons"`
	Kinds      []signal.Kind `json:"kinds"`
	Confluence bool          `json:"confluence"`
	Window     time.Duration `json:"window"`
	ComputedAt time.Time     `json:"computedAt"`
}

func (s Snapshot) Tier() Tier { return TierOf(s.Total) }

// Lead returns the label of the heaviest kind in the snapshot, the first
// one recorded on a tie. It is empty for an empty snapshot.
func (s Snapshot) Lead() string {
	var lead signal.Kind
	for i, k := range s.Kinds {
		if i == 0 || k.Weight() > lead.Weight() {
			lead = k
		}
	}
	if lead == "" {
		return ""
	}
	return lead.Label()
}

// Engine computes scores over a fixed recency window.
type Engine struct {
	window time.Duration
}

func NewEngine(window time.Duration) *Engine {
	if window <= 0 {
		window = signal.DefaultWindow
	}
	return &Engine{window: window}
}

func (e *Engine) Window() time.Duration { return e.window }

// Compute scores the signals observed inside the window ending at now.
// Each kind contributes its weight once, however often it was recorded.
func (e *Engine) Compute(signals []signal.Signal, now time.Time) Snapshot {
	recent := signal.Recent(signals, e.window, now)

	snap := Snapshot{Window: e.window, ComputedAt: now.UTC(), Reasons: []string{}, Kinds: []signal.Kind{}}
	seen := make(map[signal.Kind]struct{}, len(recent))
	total := 0
	for _, s := range recent {
		if _, dup := seen[s.Kind]; dup {
			continue
		}
		seen[s.Kind] = struct{}{}
		w := s.Kind.Weight()
		if !s.Kind.Valid() {
			w = s.Weight
		}
		total += w
		snap.Kinds = append(snap.Kinds, s.Kind)
		snap.Reasons = append(snap.Reasons, s.Kind.Label())
	}
	if len(snap.Kinds) >= ConfluenceMinKinds {
		total += ConfluenceBonus
		snap.Confluence = true
	}
	snap.Total = clamp(total)
	return snap
}

func clamp(v int) int {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}

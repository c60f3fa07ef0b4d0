package scoring

import (
	"testing"
	"time"

	"us30bot/internal/signal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

func sig(t *testing.T, text string, ago time.Duration) signal.Signal {
	t.Helper()
	c, ok := signal.Classify(text)
	require.True(t, ok, text)
	return signal.New(c, text, t0.Add(-ago))
}

func TestComputeEmpty(t *testing.T) {
	snap := NewEngine(0).Compute(nil, t0)
	assert.Equal(t, 0, snap.Total)
	assert.Empty(t, snap.Reasons)
	assert.Equal(t, signal.DefaultWindow, snap.Window)
	assert.Equal(t, TierNone, snap.Tier())
}

func TestComputeDedupesByKind(t *testing.T) {
	e := NewEngine(signal.DefaultWindow)
	once := e.Compute([]signal.Signal{sig(t, "Zone -2%", time.Minute)}, t0)
	twice := e.Compute([]signal.Signal{
		sig(t, "Zone -2%", 2*time.Minute),
		sig(t, "Zone -3%", time.Minute),
	}, t0)
	assert.Equal(t, once.Total, twice.Total)
	assert.Equal(t, []string{"STDV support zone"}, twice.Reasons)
}

func TestComputeTwoTrendKinds(t *testing.T) {
	e := NewEngine(signal.DefaultWindow)
	snap := e.Compute([]signal.Signal{
		sig(t, "Momentum: Bullish 4h", 10*time.Minute),
		sig(t, "Momentum: Bullish 1h", 5*time.Minute),
	}, t0)
	// 80 + 70 clamps to 100; no confluence with only two kinds.
	assert.Equal(t, 100, snap.Total)
	assert.False(t, snap.Confluence)
	assert.Equal(t, []string{"Momentum bullish 4h", "Momentum bullish 1h"}, snap.Reasons)
	assert.Equal(t, TierHigh, snap.Tier())
}

func TestComputeConfluenceBonus(t *testing.T) {
	e := NewEngine(signal.DefaultWindow)
	two := e.Compute([]signal.Signal{
		sig(t, "Zone -2%", 3*time.Minute),
		sig(t, "42650", 2*time.Minute),
	}, t0)
	three := e.Compute([]signal.Signal{
		sig(t, "Zone -2%", 3*time.Minute),
		sig(t, "42650", 2*time.Minute),
		sig(t, "US30 crossing up 42700", time.Minute),
	}, t0)

	assert.Equal(t, 25, two.Total)
	assert.False(t, two.Confluence)
	assert.Equal(t, 25+10+ConfluenceBonus, three.Total)
	assert.True(t, three.Confluence)
	assert.Len(t, three.Reasons, 3)
}

func TestComputeConfluenceCountsNegativeKinds(t *testing.T) {
	e := NewEngine(signal.DefaultWindow)
	snap := e.Compute([]signal.Signal{
		sig(t, "42650", 3*time.Minute),
		sig(t, "Zone -2%", 2*time.Minute),
		sig(t, "VIX crossing 45", time.Minute),
	}, t0)
	assert.Equal(t, []string{"Grid price ping", "STDV support zone", "VIX risk-off"}, snap.Reasons)
	assert.True(t, snap.Confluence)
	assert.Equal(t, 10+15-10+ConfluenceBonus, snap.Total)
}

func TestSnapshotLeadIsHeaviestKind(t *testing.T) {
	e := NewEngine(signal.DefaultWindow)
	snap := e.Compute([]signal.Signal{
		sig(t, "MSS Bullish Break", 3*time.Minute),
		sig(t, "Momentum: Bearish 4h", 2*time.Minute),
		sig(t, "Momentum: Bullish 4h", time.Minute),
	}, t0)
	assert.Equal(t, "Momentum bearish 4h", snap.Lead())
	assert.Equal(t, Short, Propose(snap.Lead(), snap.Total, nil).Direction)
	assert.Empty(t, Snapshot{}.Lead())
}

func TestComputeMonotonicInDistinctKinds(t *testing.T) {
	e := NewEngine(signal.DefaultWindow)
	texts := []string{"42650", "Zone -2%", "stdv zone touch", "US30 crossing up 42700", "RSI 25", "Momentum: Bullish 1h"}
	var signals []signal.Signal
	prev := 0
	for i, text := range texts {
		signals = append(signals, sig(t, text, time.Duration(len(texts)-i)*time.Minute))
		got := e.Compute(signals, t0).Total
		assert.GreaterOrEqual(t, got, prev, text)
		prev = got
	}
}

func TestComputeIgnoresSignalsOutsideWindow(t *testing.T) {
	e := NewEngine(signal.DefaultWindow)
	snap := e.Compute([]signal.Signal{
		sig(t, "Momentum: Bullish 4h", signal.DefaultWindow),
		sig(t, "Zone -2%", signal.DefaultWindow+time.Minute),
		sig(t, "42650", time.Minute),
	}, t0)
	assert.Equal(t, 10, snap.Total)
	assert.Equal(t, []signal.Kind{signal.KindGridPing}, snap.Kinds)
}

func TestComputeClampsAtZero(t *testing.T) {
	e := NewEngine(signal.DefaultWindow)
	snap := e.Compute([]signal.Signal{sig(t, "VIX crossing 45", time.Minute)}, t0)
	assert.Equal(t, 0, snap.Total)
	assert.Equal(t, []string{"VIX risk-off"}, snap.Reasons)
}

func TestTierOf(t *testing.T) {
	assert.Equal(t, TierNone, TierOf(39))
	assert.Equal(t, TierEarly, TierOf(40))
	assert.Equal(t, TierEarly, TierOf(69))
	assert.Equal(t, TierHigh, TierOf(70))
}

package scoring

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferDirection(t *testing.T) {
	assert.Equal(t, Long, InferDirection("Momentum bullish 4h"))
	assert.Equal(t, Long, InferDirection("RSI < 30"))
	assert.Equal(t, Long, InferDirection("RSI crossing up 30"))
	assert.Equal(t, Long, InferDirection("RSI oversold"))
	assert.Equal(t, Short, InferDirection("MSS bearish break 1h"))
	assert.Equal(t, Short, InferDirection("RSI > 70"))
	assert.Equal(t, Short, InferDirection(""))
}

func TestProposeDistancesScaleWithScore(t *testing.T) {
	hi := Propose("Momentum bullish 4h", 90, nil)
	lo := Propose("Momentum bullish 4h", 70, nil)

	assert.True(t, hi.StopDistance.Equal(decimal.NewFromInt(45)), hi.StopDistance.String())
	assert.True(t, hi.TargetDistance.Equal(decimal.NewFromInt(190)))
	assert.True(t, lo.StopDistance.Equal(decimal.NewFromInt(55)))
	assert.True(t, lo.TargetDistance.Equal(decimal.NewFromInt(170)))
	assert.True(t, hi.StopDistance.LessThan(lo.StopDistance))
	assert.True(t, hi.TargetDistance.GreaterThan(lo.TargetDistance))
}

func TestProposeWithPrice(t *testing.T) {
	price := decimal.NewFromInt(42650)

	long := Propose("Momentum bullish 4h", 80, &price)
	require.NotNil(t, long.Entry)
	assert.Equal(t, Long, long.Direction)
	assert.Equal(t, "42600", long.StopLoss.String())
	assert.Equal(t, "42830", long.TakeProfit.String())

	short := Propose("MSS bearish break 4h", 80, &price)
	assert.Equal(t, Short, short.Direction)
	assert.Equal(t, "42700", short.StopLoss.String())
	assert.Equal(t, "42470", short.TakeProfit.String())
}

func TestProposeWithoutPriceRendersPlaceholder(t *testing.T) {
	s := Propose("Momentum bullish 4h", 80, nil)
	assert.Nil(t, s.Entry)
	text := s.Text("US30")
	assert.Contains(t, text, "US30 LONG")
	assert.Contains(t, text, "Entry: unknown/current")
	assert.Contains(t, text, "SL: entry - 50.0 pts")
	assert.Contains(t, text, "TP: entry + 180.0 pts")

	zero := decimal.Zero
	assert.Nil(t, Propose("x", 80, &zero).Entry)
}

func TestSuggestionTextWithPrice(t *testing.T) {
	price := decimal.RequireFromString("42650.5")
	text := Propose("RSI crossing up 30", 100, &price).Text("US30")
	assert.Contains(t, text, "Entry: 42650.50")
	assert.Contains(t, text, "SL: 42610.50 (40.0 pts)")
	assert.Contains(t, text, "TP: 42850.50 (200.0 pts)")
	assert.Contains(t, text, "Trigger: RSI crossing up 30")
}

package signal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyExplicitRSIPhrases(t *testing.T) {
	cases := []struct {
		text string
		kind Kind
	}{
		{"RSI crossing up 30.00", KindRSICrossUp30},
		{"rsi crossing up 30", KindRSICrossUp30},
		{"RSI below 30", KindRSIBelow30},
		{"US30 RSI <30", KindRSIBelow30},
		{"RSI above 70", KindRSIAbove70},
		{"RSI crossing down 70", KindRSICrossDown70},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			c, ok := Classify(tc.text)
			require.True(t, ok)
			assert.Equal(t, tc.kind, c.Kind)
			assert.Equal(t, tc.kind.Weight(), c.Weight)
		})
	}

	c, ok := Classify("RSI crossing up 30.00")
	require.True(t, ok)
	assert.GreaterOrEqual(t, c.Weight, 60)
}

func TestClassifyExplicitRSIIgnoresSurroundingWords(t *testing.T) {
	base, ok := Classify("RSI crossing up 30")
	require.True(t, ok)
	for _, text := range []string{
		"alert: RSI crossing up 30 on US30 now",
		"Momentum: Bullish 4h and RSI crossing up 30",
		"[TV] 15m RSI crossing up 30 (close 42650)",
		"RSI(14) crossing up 30",
		"US30 RSI 14 now crossing up 30.0",
	} {
		c, ok := Classify(text)
		require.True(t, ok, text)
		assert.Equal(t, base.Kind, c.Kind, text)
		assert.Equal(t, base.Weight, c.Weight, text)
	}
}

func TestClassifyExplicitRSIPhraseAnywhere(t *testing.T) {
	for text, want := range map[string]Kind{
		"US30 RSI is now below 30":      KindRSIBelow30,
		"RSI(14) on 5m dipped under 30": KindRSIBelow30,
		"rsi [14] just went above 70":   KindRSIAbove70,
		"RSI 14 is crossing down 70.":   KindRSICrossDown70,
	} {
		c, ok := Classify(text)
		require.True(t, ok, text)
		assert.Equal(t, want, c.Kind, text)
		assert.Equal(t, want.Weight(), c.Weight, text)
	}

	// 30.5 is not the "below 30" phrase; read as a number it is neutral
	_, ok := Classify("RSI below 30.5")
	assert.False(t, ok)
}

func TestClassifyNumericRSISkipsPeriod(t *testing.T) {
	_, ok := Classify("RSI 14 at 55")
	assert.False(t, ok)
	_, ok = Classify("RSI(14) 52.3")
	assert.False(t, ok)

	c, ok := Classify("RSI(14) = 24.5")
	require.True(t, ok)
	assert.Equal(t, KindRSIOversold, c.Kind)
	require.NotNil(t, c.Value)
	assert.InDelta(t, 24.5, *c.Value, 1e-9)

	c, ok = Classify("RSI 14 at 78")
	require.True(t, ok)
	assert.Equal(t, KindRSIOverbought, c.Kind)

	c, ok = Classify("RSI 28 now")
	require.True(t, ok)
	assert.Equal(t, KindRSIOversold, c.Kind)
}

func TestClassifyNumericRSIThresholds(t *testing.T) {
	for v := 0.0; v <= 100.0; v += 2.5 {
		text := fmt.Sprintf("RSI %.1f", v)
		c, ok := Classify(text)
		switch {
		case v < 30:
			require.True(t, ok, text)
			assert.Equal(t, KindRSIOversold, c.Kind, text)
			require.NotNil(t, c.Value)
			assert.InDelta(t, v, *c.Value, 1e-9)
		case v > 70:
			require.True(t, ok, text)
			assert.Equal(t, KindRSIOverbought, c.Kind, text)
		default:
			assert.False(t, ok, text)
		}
	}
}

func TestClassifyNeutralRSIDoesNotFallThrough(t *testing.T) {
	_, ok := Classify("RSI 50 momentum: bullish 4h")
	assert.False(t, ok)
}

func TestClassifyMomentumAndMSSTimeframes(t *testing.T) {
	m4, ok := Classify("Momentum: Bullish 4h")
	require.True(t, ok)
	m1, ok := Classify("Momentum: Bullish 1h")
	require.True(t, ok)
	m0, ok := Classify("Momentum: Bullish")
	require.True(t, ok)

	assert.Equal(t, KindMomentumBull4h, m4.Kind)
	assert.Equal(t, 80, m4.Weight)
	assert.Equal(t, KindMomentumBull1h, m1.Kind)
	assert.Equal(t, 70, m1.Weight)
	assert.Greater(t, m4.Weight, m1.Weight)
	assert.Greater(t, m1.Weight, m0.Weight)

	bear, ok := Classify("momentum bearish 4h")
	require.True(t, ok)
	assert.Equal(t, KindMomentumBear4h, bear.Kind)

	mss4, ok := Classify("MSS Bullish Break 4h")
	require.True(t, ok)
	mss1, ok := Classify("MSS Bearish Break 1h")
	require.True(t, ok)
	assert.Equal(t, KindMSSBull4h, mss4.Kind)
	assert.Equal(t, KindMSSBear1h, mss1.Kind)
	assert.Greater(t, mss4.Weight, mss1.Weight)
}

func TestClassifyWeightOrdering(t *testing.T) {
	zone, ok := Classify("STDV Zone -2% touched")
	require.True(t, ok)
	grid, ok := Classify("42650")
	require.True(t, ok)
	h1, _ := Classify("MSS Bullish Break 1h")
	h4, _ := Classify("MSS Bullish Break 4h")

	assert.Greater(t, h4.Weight, h1.Weight)
	assert.Greater(t, h1.Weight, zone.Weight)
	assert.Greater(t, h1.Weight, grid.Weight)
}

func TestClassifyZones(t *testing.T) {
	c, ok := Classify("Zone -2%")
	require.True(t, ok)
	assert.Equal(t, KindZoneSupport, c.Kind)
	require.NotNil(t, c.Value)
	assert.InDelta(t, -2.0, *c.Value, 1e-9)

	c, ok = Classify("zone +3% reached")
	require.True(t, ok)
	assert.Equal(t, KindZoneResistance, c.Kind)

	c, ok = Classify("price in stdv zone")
	require.True(t, ok)
	assert.Equal(t, KindZoneTouch, c.Kind)
}

func TestClassifyGrid(t *testing.T) {
	for _, text := range []string{"42650", " 142650 ", "42650.5"} {
		c, ok := Classify(text)
		require.True(t, ok, text)
		assert.Equal(t, KindGridPing, c.Kind)
	}
	for _, text := range []string{"4265", "1426500", "42650 long"} {
		c, ok := Classify(text)
		if ok {
			assert.NotEqual(t, KindGridPing, c.Kind, text)
		}
	}
}

func TestClassifyVIX(t *testing.T) {
	c, ok := Classify("VIX crossing 42")
	require.True(t, ok)
	assert.Equal(t, KindVIXRiskOff, c.Kind)
	assert.Negative(t, c.Weight)

	c, ok = Classify("vix crossing down 18.5")
	require.True(t, ok)
	assert.Equal(t, KindVIXRiskOn, c.Kind)
	assert.Positive(t, c.Weight)

	_, ok = Classify("VIX crossing 30")
	assert.False(t, ok)
}

func TestClassifyPriceBreakAndMisses(t *testing.T) {
	c, ok := Classify("US30 crossing up 44000")
	require.True(t, ok)
	assert.Equal(t, KindPriceBreakUp, c.Kind)

	for _, text := range []string{"", "hello there", "/unknown", "buy the dip"} {
		_, ok := Classify(text)
		assert.False(t, ok, text)
	}
}

func TestKindMetadata(t *testing.T) {
	for k := range kindTable {
		assert.True(t, k.Valid())
		assert.NotEmpty(t, k.Label())
	}
	assert.False(t, Kind("bogus").Valid())
	assert.Equal(t, "bogus", Kind("bogus").Label())
	assert.True(t, KindMomentumBull4h.Bullish())
	assert.False(t, KindMSSBear1h.Bullish())
}

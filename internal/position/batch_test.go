package position

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatchLineFull(t *testing.T) {
	p, err := ParseBatchLine("LONG | 2 lot @ 42500 | TP: 43000 | SL: manual | Tag: swing entry")
	require.NoError(t, err)
	assert.Equal(t, Long, p.Direction)
	assert.Equal(t, "2", p.LotSize.String())
	assert.Equal(t, "42500", p.EntryPrice.String())
	assert.Equal(t, "43000", p.TakeProfit.String())
	assert.Equal(t, LevelManual, p.StopLoss.Kind)
	assert.Equal(t, "swing entry", p.Tag)
}

func TestParseBatchLineMinimal(t *testing.T) {
	p, err := ParseBatchLine("short @ 42800,5")
	require.NoError(t, err)
	assert.Equal(t, Short, p.Direction)
	assert.Equal(t, "42800.5", p.EntryPrice.String())
	assert.True(t, p.LotSize.IsZero())
	assert.False(t, p.TakeProfit.IsSet())
}

func TestParseBatchLineErrors(t *testing.T) {
	for _, line := range []string{
		"SIDEWAYS | 1 lot @ 42500",
		"LONG | 2 lot",
		"LONG | 2 lot @ 42500 | TP: soon",
		"LONG | 1 lot @ 42500 | SL: open",
		"LONG | 1 lot @ 42500 | whatever",
		"LONG @ 0",
	} {
		_, err := ParseBatchLine(line)
		assert.Error(t, err, line)
	}
}

func TestOpenBatchPartialSuccess(t *testing.T) {
	l := newTestLedger()
	res := l.OpenBatch(`/batch
LONG | 2 lot @ 42500 | TP: 43000 | SL: manual | Tag: a
SHORT | 1 lot @ 42900 | SL: 43050
garbage line
LONG | 1 lot | TP: 43000
LONG | 0.5 lot @ 42450 | Tag: b`)

	assert.Equal(t, 3, res.Added)
	assert.Len(t, res.Skipped, 2)
	assert.Equal(t, 4, res.Skipped[0].Line)
	assert.Equal(t, 3, l.Status().Count())
	assert.Equal(t, "2.5", l.Status().Long.TotalLots.String())
}

func TestOpenBatchCommandOnFirstLine(t *testing.T) {
	l := newTestLedger()
	res := l.OpenBatch("/batch LONG | 1 lot @ 42500")
	assert.Equal(t, 1, res.Added)
	assert.Empty(t, res.Skipped)
}

func TestLevelJSON(t *testing.T) {
	type doc struct {
		SL Level `json:"sl"`
		TP Level `json:"tp"`
		X  Level `json:"x"`
	}
	in := doc{SL: ManualLevel(), TP: PriceLevel(dec("43000.5"))}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sl":"manual","tp":43000.5,"x":null}`, string(raw))

	var out doc
	require.NoError(t, json.Unmarshal([]byte(`{"sl":"42500","tp":"open","x":null}`), &out))
	assert.True(t, out.SL.Equal(PriceLevel(dec("42500"))))
	assert.Equal(t, LevelOpen, out.TP.Kind)
	assert.False(t, out.X.IsSet())
}

func TestEvaluateSetup(t *testing.T) {
	s, ok := EvaluateSetup(dec("42650"), PriceLevel(dec("42500")), PriceLevel(dec("43000")))
	require.True(t, ok)
	assert.Equal(t, 90, s.Score)
	assert.Equal(t, "2.33", s.RR.StringFixed(2))

	s, ok = EvaluateSetup(dec("42650"), PriceLevel(dec("42640")), PriceLevel(dec("42655")))
	require.True(t, ok)
	// rr 0.5 (-15), reward 5 (+0), risk 10 (+5)
	assert.Equal(t, 40, s.Score)

	_, ok = EvaluateSetup(dec("42650"), ManualLevel(), PriceLevel(dec("43000")))
	assert.False(t, ok)
	_, ok = EvaluateSetup(dec("42650"), PriceLevel(dec("42650")), PriceLevel(dec("43000")))
	assert.False(t, ok)
}

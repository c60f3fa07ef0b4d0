package scoring

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Direction of a suggested trade.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

var bullishMarkers = []string{
	"bullish",
	"oversold",
	"rsi < 30",
	"rsi <30",
	"below 30",
	"crossing up",
	"support",
	"risk-on",
	"break up",
}

var (
	stopBase     = decimal.NewFromInt(40)
	stopPerPoint = decimal.RequireFromString("0.5")
	targetBase   = decimal.NewFromInt(100)
	hundred      = decimal.NewFromInt(100)
)

const unknownEntryTx = "unknown/current"

// Suggestion is a directional entry/SL/TP proposal. Entry, StopLoss and
// TakeProfit are nil when no live price was available; the distances are
// always set.
type Suggestion struct {
	Direction      Direction        `json:"direction"`
	Score          int              `json:"score"`
	Label          string           `json:"label"`
	Entry          *decimal.Decimal `json:"entry,omitempty"`
	StopLoss       *decimal.Decimal `json:"stopLoss,omitempty"`
	TakeProfit     *decimal.Decimal `json:"takeProfit,omitempty"`
	StopDistance   decimal.Decimal  `json:"stopDistance"`
	TargetDistance decimal.Decimal  `json:"targetDistance"`
}

// InferDirection returns LONG when the label carries a bullish or oversold
// marker, SHORT otherwise.
func InferDirection(label string) Direction {
	l := strings.ToLower(label)
	for _, m := range bullishMarkers {
		if strings.Contains(l, m) {
			return Long
		}
	}
	return Short
}

// Propose derives a suggestion. Higher scores get a smaller stop and a larger
// target: stop = 40 + (100-score)*0.5, target = 100 + score.
func Propose(label string, score int, price *decimal.Decimal) Suggestion {
	score = clamp(score)
	sc := decimal.NewFromInt(int64(score))
	s := Suggestion{
		Direction:      InferDirection(label),
		Score:          score,
		Label:          label,
		StopDistance:   stopBase.Add(hundred.Sub(sc).Mul(stopPerPoint)),
		TargetDistance: targetBase.Add(sc),
	}
	if price == nil || !price.IsPositive() {
		return s
	}
	entry := *price
	var sl, tp decimal.Decimal
	if s.Direction == Long {
		sl = entry.Sub(s.StopDistance)
		tp = entry.Add(s.TargetDistance)
	} else {
		sl = entry.Add(s.StopDistance)
		tp = entry.Sub(s.TargetDistance)
	}
	s.Entry = &entry
	s.StopLoss = &sl
	s.TakeProfit = &tp
	return s
}

// Text renders the suggestion as plain notification text.
func (s Suggestion) Text(symbol string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Signal suggestion (score %d/100)\n", s.Score)
	fmt.Fprintf(&b, "%s %s\n", symbol, s.Direction)
	if s.Entry == nil {
		fmt.Fprintf(&b, "Entry: %s\n", unknownEntryTx)
		sign := "-"
		tpSign := "+"
		if s.Direction == Short {
			sign, tpSign = "+", "-"
		}
		fmt.Fprintf(&b, "SL: entry %s %s pts\n", sign, s.StopDistance.StringFixed(1))
		fmt.Fprintf(&b, "TP: entry %s %s pts\n", tpSign, s.TargetDistance.StringFixed(1))
	} else {
		fmt.Fprintf(&b, "Entry: %s\n", s.Entry.StringFixed(2))
		fmt.Fprintf(&b, "SL: %s (%s pts)\n", s.StopLoss.StringFixed(2), s.StopDistance.StringFixed(1))
		fmt.Fprintf(&b, "TP: %s (%s pts)\n", s.TakeProfit.StringFixed(2), s.TargetDistance.StringFixed(1))
	}
	if s.Label != "" {
		fmt.Fprintf(&b, "Trigger: %s", s.Label)
	}
	return strings.TrimRight(b.String(), "\n")
}

package signal

import (
	"time"
)

// Kind identifies a recognized signal category. Scoring dedupes by Kind.
type Kind string

const (
	KindRSIOversold     Kind = "rsi_oversold"
	KindRSIOverbought   Kind = "rsi_overbought"
	KindRSIBelow30      Kind = "rsi_below_30"
	KindRSICrossUp30    Kind = "rsi_cross_up_30"
	KindRSIAbove70      Kind = "rsi_above_70"
	KindRSICrossDown70  Kind = "rsi_cross_down_70"
	KindMomentumBull    Kind = "momentum_bullish"
	KindMomentumBull1h  Kind = "momentum_bullish_1h"
	KindMomentumBull4h  Kind = "momentum_bullish_4h"
	KindMomentumBear    Kind = "momentum_bearish"
	KindMomentumBear1h  Kind = "momentum_bearish_1h"
	KindMomentumBear4h  Kind = "momentum_bearish_4h"
	KindMSSBull         Kind = "mss_bullish"
	KindMSSBull1h       Kind = "mss_bullish_1h"
	KindMSSBull4h       Kind = "mss_bullish_4h"
	KindMSSBear         Kind = "mss_bearish"
	KindMSSBear1h       Kind = "mss_bearish_1h"
	KindMSSBear4h       Kind = "mss_bearish_4h"
	KindZoneSupport     Kind = "stdv_zone_support"
	KindZoneResistance  Kind = "stdv_zone_resistance"
	KindZoneTouch       Kind = "stdv_zone_touch"
	KindGridPing        Kind = "grid_ping"
	KindVIXRiskOff      Kind = "vix_risk_off"
	KindVIXRiskOn       Kind = "vix_risk_on"
	KindPriceBreakUp    Kind = "price_break_up"
	KindPriceBreakDown  Kind = "price_break_down"
)

// Fixed weights. Relative ordering matters more than the exact numbers:
// 4h > 1h > untimed > zone/grid.
const (
	weightRSIOversold    = 60
	weightRSIOverbought  = 40
	weightRSIBelow30     = 60
	weightRSICrossUp30   = 75
	weightRSIAbove70     = 40
	weightRSICrossDown70 = 60
	weightTrendUntimed   = 60
	weightTrend1h        = 70
	weightTrend4h        = 80
	weightZoneSupport    = 15
	weightZoneResistance = 10
	weightZoneTouch      = 10
	weightGridPing       = 10
	weightVIXRiskOff     = -10
	weightVIXRiskOn      = 5
	weightPriceBreak     = 10
)

type kindInfo struct {
	weight int
	label  string
}

var kindTable = map[Kind]kindInfo{
	KindRSIOversold:    {weightRSIOversold, "RSI oversold"},
	KindRSIOverbought:  {weightRSIOverbought, "RSI overbought"},
	KindRSIBelow30:     {weightRSIBelow30, "RSI < 30"},
	KindRSICrossUp30:   {weightRSICrossUp30, "RSI crossing up 30"},
	KindRSIAbove70:     {weightRSIAbove70, "RSI > 70"},
	KindRSICrossDown70: {weightRSICrossDown70, "RSI crossing down 70"},
	KindMomentumBull:   {weightTrendUntimed, "Momentum bullish"},
	KindMomentumBull1h: {weightTrend1h, "Momentum bullish 1h"},
	KindMomentumBull4h: {weightTrend4h, "Momentum bullish 4h"},
	KindMomentumBear:   {weightTrendUntimed, "Momentum bearish"},
	KindMomentumBear1h: {weightTrend1h, "Momentum bearish 1h"},
	KindMomentumBear4h: {weightTrend4h, "Momentum bearish 4h"},
	KindMSSBull:        {weightTrendUntimed, "MSS bullish break"},
	KindMSSBull1h:      {weightTrend1h, "MSS bullish break 1h"},
	KindMSSBull4h:      {weightTrend4h, "MSS bullish break 4h"},
	KindMSSBear:        {weightTrendUntimed, "MSS bearish break"},
	KindMSSBear1h:      {weightTrend1h, "MSS bearish break 1h"},
	KindMSSBear4h:      {weightTrend4h, "MSS bearish break 4h"},
	KindZoneSupport:    {weightZoneSupport, "STDV support zone"},
	KindZoneResistance: {weightZoneResistance, "STDV resistance zone"},
	KindZoneTouch:      {weightZoneTouch, "STDV zone touch"},
	KindGridPing:       {weightGridPing, "Grid price ping"},
	KindVIXRiskOff:     {weightVIXRiskOff, "VIX risk-off"},
	KindVIXRiskOn:      {weightVIXRiskOn, "VIX risk-on"},
	KindPriceBreakUp:   {weightPriceBreak, "Price break up"},
	KindPriceBreakDown: {weightPriceBreak, "Price break down"},
}

// Weight returns the fixed score contribution of k (0 for unknown kinds).
func (k Kind) Weight() int {
	return kindTable[k].weight
}

// Label is the human-readable reason text used in score breakdowns.
func (k Kind) Label() string {
	if info, ok := kindTable[k]; ok {
		return info.label
	}
	return string(k)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

// Bullish reports whether the kind leans long.
func (k Kind) Bullish() bool {
	switch k {
	case KindRSIOversold, KindRSIBelow30, KindRSICrossUp30,
		KindMomentumBull, KindMomentumBull1h, KindMomentumBull4h,
		KindMSSBull, KindMSSBull1h, KindMSSBull4h,
		KindZoneSupport, KindVIXRiskOn, KindPriceBreakUp:
		return true
	}
	return false
}

// Classified is the classifier output for one text.
type Classified struct {
	Kind   Kind   `json:"kind"`
	Weight int    `json:"weight"`
	Label  string `json:"label"`
	// Value carries the numeric reading the rule keyed on (RSI value, VIX
	// level, zone percent, grid price), when there was one.
	Value *float64 `json:"value,omitempty"`
}

// Signal is an observed, recorded market event. Signals are never mutated
// after Record.
type Signal struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Weight     int       `json:"weight"`
	Label      string    `json:"label"`
	RawText    string    `json:"rawText"`
	ObservedAt time.Time `json:"observedAt"`
}

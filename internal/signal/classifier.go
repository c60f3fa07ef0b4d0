package signal

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reRSIBelow30     = rsiPhrase(`(?:\bbelow|\bunder|<)\s*30`)
	reRSICrossUp30   = rsiPhrase(`\bcrossing\s+up\s*30`)
	reRSIAbove70     = rsiPhrase(`(?:\babove|\bover|>)\s*70`)
	reRSICrossDown70 = rsiPhrase(`\bcrossing\s+down\s*70`)
	reRSIWord        = regexp.MustCompile(`\brsi\b`)

	// A period right after "rsi", as in "rsi(14)" or "rsi 14 at 55", is
	// skipped before the reading is taken.
	reRSINumeric = regexp.MustCompile(`\brsi\b\s*(?:\(\s*\d+\s*\)|\[\s*\d+\s*\]|\d{1,3}\s*(?:(?:at|is|reading)\b|[=:@]))?\D*?(\d+(?:\.\d+)?)`)

	reMomentum  = regexp.MustCompile(`momentum\s*:?\s*(bullish|bearish)`)
	reMSS       = regexp.MustCompile(`mss\s*:?\s*(bullish|bearish)`)
	reTimeframe = regexp.MustCompile(`\b(1h|4h|60m|240m)\b`)

	reZonePct = regexp.MustCompile(`zone\s*([-+−]?)\s*(\d+(?:\.\d+)?)\s*%`)
	reStdv    = regexp.MustCompile(`\bstdv\b`)

	reGrid = regexp.MustCompile(`^\d{5,6}(?:[.,]\d{1,2})?$`)

	reVIXWord    = regexp.MustCompile(`\bvix\b`)
	reVIX        = regexp.MustCompile(`vix\s+crossing\s+(?:up\s+|down\s+)?(\d+(?:\.\d+)?)`)
	rePriceBreak = regexp.MustCompile(`crossing\s+(up|down)\b`)
)

// rsiPhrase matches an explicit RSI phrase anywhere in the text. The level
// may carry ".0" decimals but must not continue into a longer number.
func rsiPhrase(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr + `(?:\.0+)?(?:$|[^.\d]|\.(?:$|\D))`)
}

const (
	rsiOversoldBelow   = 30.0
	rsiOverboughtAbove = 70.0
	vixRiskOffAtLeast  = 40.0
	vixRiskOnAtMost    = 20.0
)

// Classify maps free text to at most one classified signal. Families are
// tried in priority order and the first family that claims the text decides
// the outcome, including "no signal": an RSI reading inside [30,70] is not
// reinterpreted by a later family.
func Classify(text string) (Classified, bool) {
	norm := strings.ToLower(strings.TrimSpace(text))
	if norm == "" {
		return Classified{}, false
	}
	for _, family := range families {
		if c, claimed, ok := family(norm); claimed {
			return c, ok
		}
	}
	return Classified{}, false
}

// family returns (result, claimed, ok). claimed=false lets the next family try.
type family func(norm string) (Classified, bool, bool)

var families = []family{
	classifyRSI,
	classifyMomentum,
	classifyMSS,
	classifyZone,
	classifyGrid,
	classifyVIX,
	classifyPriceBreak,
}

func classifyRSI(norm string) (Classified, bool, bool) {
	if !reRSIWord.MatchString(norm) {
		return Classified{}, false, false
	}
	switch {
	case reRSICrossUp30.MatchString(norm):
		return classified(KindRSICrossUp30, nil), true, true
	case reRSICrossDown70.MatchString(norm):
		return classified(KindRSICrossDown70, nil), true, true
	case reRSIBelow30.MatchString(norm):
		return classified(KindRSIBelow30, nil), true, true
	case reRSIAbove70.MatchString(norm):
		return classified(KindRSIAbove70, nil), true, true
	}
	m := reRSINumeric.FindStringSubmatch(norm)
	if m == nil {
		return Classified{}, true, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Classified{}, true, false
	}
	switch {
	case v < rsiOversoldBelow:
		return classified(KindRSIOversold, &v), true, true
	case v > rsiOverboughtAbove:
		return classified(KindRSIOverbought, &v), true, true
	default:
		return Classified{}, true, false
	}
}

func classifyMomentum(norm string) (Classified, bool, bool) {
	m := reMomentum.FindStringSubmatch(norm)
	if m == nil {
		return Classified{}, false, false
	}
	kinds := [2][3]Kind{
		{KindMomentumBull, KindMomentumBull1h, KindMomentumBull4h},
		{KindMomentumBear, KindMomentumBear1h, KindMomentumBear4h},
	}
	return classified(timedKind(kinds, m[1], norm), nil), true, true
}

func classifyMSS(norm string) (Classified, bool, bool) {
	m := reMSS.FindStringSubmatch(norm)
	if m == nil {
		return Classified{}, false, false
	}
	kinds := [2][3]Kind{
		{KindMSSBull, KindMSSBull1h, KindMSSBull4h},
		{KindMSSBear, KindMSSBear1h, KindMSSBear4h},
	}
	return classified(timedKind(kinds, m[1], norm), nil), true, true
}

// timedKind picks [direction][untimed|1h|4h]. When both 1h and 4h appear the
// longer timeframe wins.
func timedKind(kinds [2][3]Kind, direction, norm string) Kind {
	row := kinds[0]
	if direction == "bearish" {
		row = kinds[1]
	}
	tf := 0
	for _, m := range reTimeframe.FindAllStringSubmatch(norm, -1) {
		switch m[1] {
		case "4h", "240m":
			tf = 2
		case "1h", "60m":
			if tf < 1 {
				tf = 1
			}
		}
	}
	return row[tf]
}

func classifyZone(norm string) (Classified, bool, bool) {
	if m := reZonePct.FindStringSubmatch(norm); m != nil {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return Classified{}, true, false
		}
		if m[1] == "-" || m[1] == "−" {
			v = -v
			return classified(KindZoneSupport, &v), true, true
		}
		return classified(KindZoneResistance, &v), true, true
	}
	if reStdv.MatchString(norm) && strings.Contains(norm, "zone") {
		return classified(KindZoneTouch, nil), true, true
	}
	return Classified{}, false, false
}

func classifyGrid(norm string) (Classified, bool, bool) {
	if !reGrid.MatchString(norm) {
		return Classified{}, false, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(norm, ",", "."), 64)
	if err != nil {
		return Classified{}, true, false
	}
	return classified(KindGridPing, &v), true, true
}

func classifyVIX(norm string) (Classified, bool, bool) {
	if !reVIXWord.MatchString(norm) {
		return Classified{}, false, false
	}
	m := reVIX.FindStringSubmatch(norm)
	if m == nil {
		return Classified{}, true, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Classified{}, true, false
	}
	switch {
	case v >= vixRiskOffAtLeast:
		return classified(KindVIXRiskOff, &v), true, true
	case v <= vixRiskOnAtMost:
		return classified(KindVIXRiskOn, &v), true, true
	default:
		return Classified{}, true, false
	}
}

func classifyPriceBreak(norm string) (Classified, bool, bool) {
	m := rePriceBreak.FindStringSubmatch(norm)
	if m == nil {
		return Classified{}, false, false
	}
	if m[1] == "up" {
		return classified(KindPriceBreakUp, nil), true, true
	}
	return classified(KindPriceBreakDown, nil), true, true
}

func classified(k Kind, value *float64) Classified {
	return Classified{Kind: k, Weight: k.Weight(), Label: k.Label(), Value: value}
}

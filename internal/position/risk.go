package position

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SetupScore rates a trade from its reward-to-risk geometry. It is used for
// positions opened without an explicit score.
type SetupScore struct {
	Score  int             `json:"score"`
	RR     decimal.Decimal `json:"rr"`
	Risk   decimal.Decimal `json:"risk"`
	Reward decimal.Decimal `json:"reward"`
}

func (s SetupScore) Reason() string {
	return fmt.Sprintf("R:R %s, risk %s pts, target %s pts",
		s.RR.StringFixed(2), s.Risk.StringFixed(1), s.Reward.StringFixed(1))
}

var (
	rrStrong = decimal.NewFromInt(2)
	rrGood   = decimal.RequireFromString("1.5")
	rrWeak   = decimal.NewFromInt(1)
)

// EvaluateSetup scores entry/stop/target. It returns false when either level
// is not numeric or the stop equals the entry.
func EvaluateSetup(entry decimal.Decimal, sl, tp Level) (SetupScore, bool) {
	stop, ok := sl.Numeric()
	if !ok {
		return SetupScore{}, false
	}
	target, ok := tp.Numeric()
	if !ok {
		return SetupScore{}, false
	}
	risk := entry.Sub(stop).Abs()
	if risk.IsZero() {
		return SetupScore{}, false
	}
	reward := target.Sub(entry).Abs()
	rr := reward.Div(risk)

	score := 50
	switch {
	case rr.GreaterThan(rrStrong):
		score += 30
	case rr.GreaterThan(rrGood):
		score += 15
	case rr.LessThan(rrWeak):
		score -= 15
	}
	switch {
	case reward.GreaterThan(decimal.NewFromInt(100)):
		score += 10
	case reward.GreaterThan(decimal.NewFromInt(50)):
		score += 5
	}
	switch {
	case risk.GreaterThan(decimal.NewFromInt(150)):
		score -= 10
	case risk.LessThan(decimal.NewFromInt(20)):
		score += 5
	}
	score = max(0, min(100, score))
	return SetupScore{Score: score, RR: rr, Risk: risk, Reward: reward}, true
}

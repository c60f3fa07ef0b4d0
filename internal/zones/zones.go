// Package zones computes the standard-deviation style percentage levels
// around a session opening price.
package zones

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxOffset bounds the ±N% ladder.
const MaxOffset = 5

// Role is the cosmetic interpretation of a level.
type Role string

const (
	RoleSupport    Role = "support/pullback"
	RoleReference  Role = "reference"
	RoleResistance Role = "resistance/extension"
)

// Level is one rung of the ladder.
type Level struct {
	Offset int             `json:"offset"`
	Label  string          `json:"label"`
	Price  decimal.Decimal `json:"price"`
	Role   Role            `json:"role"`
}

// Set is ordered from -MaxOffset to +MaxOffset, with the reference (0%) rung
// in the middle.
type Set struct {
	OpenPrice decimal.Decimal `json:"openPrice"`
	Levels    []Level         `json:"levels"`
}

var hundred = decimal.NewFromInt(100)

// Compute returns the ladder for openPrice: level = open * (1 + offset/100),
// rounded to 2 decimals.
func Compute(openPrice decimal.Decimal) Set {
	set := Set{OpenPrice: openPrice, Levels: make([]Level, 0, 2*MaxOffset+1)}
	for off := -MaxOffset; off <= MaxOffset; off++ {
		factor := decimal.NewFromInt(1).Add(decimal.NewFromInt(int64(off)).Div(hundred))
		set.Levels = append(set.Levels, Level{
			Offset: off,
			Label:  OffsetLabel(off),
			Price:  openPrice.Mul(factor).Round(2),
			Role:   roleOf(off),
		})
	}
	return set
}

// OffsetLabel formats an offset the way operators type it: "-2%", "+0%".
func OffsetLabel(off int) string {
	return fmt.Sprintf("%+d%%", off)
}

// Nearest returns the level closest to price.
func (s Set) Nearest(price decimal.Decimal) (Level, bool) {
	if len(s.Levels) == 0 {
		return Level{}, false
	}
	best := s.Levels[0]
	bestDist := price.Sub(best.Price).Abs()
	for _, l := range s.Levels[1:] {
		if d := price.Sub(l.Price).Abs(); d.LessThan(bestDist) {
			best, bestDist = l, d
		}
	}
	return best, true
}

func roleOf(off int) Role {
	switch {
	case off < 0:
		return RoleSupport
	case off > 0:
		return RoleResistance
	default:
		return RoleReference
	}
}

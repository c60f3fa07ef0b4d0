package position

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// LevelKind tells how a stop or target is expressed.
type LevelKind uint8

const (
	LevelNone LevelKind = iota
	LevelPrice
	LevelManual
	LevelOpen
)

const (
	manualToken = "manual"
	openToken   = "open"
)

// Level is an optional stop-loss or take-profit. It is either absent, a
// numeric price, or one of the symbolic sentinels "manual" (stop managed by
// hand) and "open" (no fixed target).
type Level struct {
	Kind  LevelKind
	Price decimal.Decimal
}

// PriceLevel returns a numeric level.
func PriceLevel(p decimal.Decimal) Level { return Level{Kind: LevelPrice, Price: p} }

// ManualLevel returns the "manual" sentinel.
func ManualLevel() Level { return Level{Kind: LevelManual} }

// OpenLevel returns the "open" sentinel.
func OpenLevel() Level { return Level{Kind: LevelOpen} }

// ParseLevel accepts "", "manual", "open" or a number (comma or dot decimals).
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "none":
		return Level{}, nil
	case manualToken:
		return ManualLevel(), nil
	case openToken:
		return OpenLevel(), nil
	}
	d, err := ParseDecimal(s)
	if err != nil {
		return Level{}, fmt.Errorf("invalid level %q: %w", s, err)
	}
	return PriceLevel(d), nil
}

// ParseDecimal parses a price typed by a human: "42650", "42650.5", "42650,5".
func ParseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
}

// IsSet reports whether the level carries any value.
func (l Level) IsSet() bool { return l.Kind != LevelNone }

// Numeric returns the price for numeric levels.
func (l Level) Numeric() (decimal.Decimal, bool) {
	if l.Kind != LevelPrice {
		return decimal.Zero, false
	}
	return l.Price, true
}

func (l Level) String() string {
	switch l.Kind {
	case LevelPrice:
		return l.Price.String()
	case LevelManual:
		return manualToken
	case LevelOpen:
		return openToken
	default:
		return "-"
	}
}

// Equal compares kind and, for numeric levels, value.
func (l Level) Equal(o Level) bool {
	if l.Kind != o.Kind {
		return false
	}
	return l.Kind != LevelPrice || l.Price.Equal(o.Price)
}

// MarshalJSON renders null, a JSON number, or the sentinel string.
func (l Level) MarshalJSON() ([]byte, error) {
	switch l.Kind {
	case LevelPrice:
		return []byte(l.Price.String()), nil
	case LevelManual, LevelOpen:
		return json.Marshal(l.String())
	default:
		return []byte("null"), nil
	}
}

func (l *Level) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = Level{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseLevel(s)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid level %s: %w", data, err)
	}
	*l = PriceLevel(d)
	return nil
}

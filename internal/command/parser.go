package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"us30bot/internal/position"
	"us30bot/internal/signal"

	"github.com/shopspring/decimal"
)

var (
	numberRe = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
	symbolRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._]{1,15}$`)
	hundred  = decimal.NewFromInt(100)
)

type parseFunc func(args []string, full string) (Command, error)

var parsers = map[Name]parseFunc{
	NameTrade:        parseTrade,
	NameBatch:        parseBatch,
	NameClose:        parseClose,
	NameUpdate:       parseUpdate,
	NameOpenPrice:    parseOpenPrice,
	NameSignals:      parseSignals,
	NameAuto:         parseAuto,
	NameZones:        constant(Zones{}),
	NameResetSignals: constant(ResetSignals{}),
	NameStatus:       constant(Status{}),
	NameStats:        constant(Stats{}),
	NamePrice:        constant(Price{}),
	NameHelp:         constant(Help{}),
}

func constant(c Command) parseFunc {
	return func([]string, string) (Command, error) { return c, nil }
}

// Parse turns operator text into a Command. Text not starting with '/'
// returns ErrNotCommand. Command names are case-insensitive and may carry a
// Telegram "@botname" suffix.
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return nil, ErrNotCommand
	}
	firstLine, _, _ := strings.Cut(text, "\n")
	fields := strings.Fields(firstLine)
	head := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	name := Name(head)
	p, ok := parsers[name]
	if !ok {
		return nil, fmt.Errorf("%w: /%s", ErrUnknownCommand, head)
	}
	return p(fields[1:], text)
}

// kv splits "key=value" or "key:value"; keys are lowercased.
func kv(tok string) (key, val string, ok bool) {
	i := strings.IndexAny(tok, "=:")
	if i <= 0 {
		return "", "", false
	}
	return strings.ToLower(tok[:i]), tok[i+1:], true
}

func isNumber(tok string) bool { return numberRe.MatchString(tok) }

func isDirection(tok string) bool {
	_, err := position.ParseDirection(tok)
	return err == nil
}

// leadingSymbol consumes an optional instrument token.
func leadingSymbol(args []string) (string, []string) {
	if len(args) == 0 {
		return "", args
	}
	tok := args[0]
	if isNumber(tok) || isDirection(tok) || strings.ContainsAny(tok, "=:@%") || !symbolRe.MatchString(tok) {
		return "", args
	}
	if strings.EqualFold(tok, "all") {
		return "", args
	}
	return strings.ToUpper(tok), args[1:]
}

func leadingDirection(args []string) (*position.Direction, []string) {
	if len(args) == 0 {
		return nil, args
	}
	d, err := position.ParseDirection(args[0])
	if err != nil {
		return nil, args
	}
	return &d, args[1:]
}

func parseTrade(args []string, _ string) (Command, error) {
	t := Trade{}
	t.Symbol, args = leadingSymbol(args)
	dir, args := leadingDirection(args)
	if len(args) == 0 || !isNumber(args[0]) {
		return nil, usageErr(NameTrade, "entry price required")
	}
	entry, err := position.ParseDecimal(args[0])
	if err != nil || !entry.IsPositive() {
		return nil, usageErr(NameTrade, "invalid entry %q", args[0])
	}
	t.Entry = entry

	positional := 0
	for _, tok := range args[1:] {
		if key, val, ok := kv(tok); ok {
			if err := t.set(key, val); err != nil {
				return nil, err
			}
			continue
		}
		lvl, err := position.ParseLevel(tok)
		if err != nil {
			return nil, usageErr(NameTrade, "unexpected %q", tok)
		}
		switch positional {
		case 0:
			t.StopLoss = lvl
		case 1:
			t.TakeProfit = lvl
		default:
			return nil, usageErr(NameTrade, "unexpected %q", tok)
		}
		positional++
	}

	if dir != nil {
		t.Direction = *dir
	} else if d, ok := inferDirection(t.Entry, t.StopLoss, t.TakeProfit); ok {
		t.Direction = d
	} else {
		return nil, usageErr(NameTrade, "direction required")
	}
	return t, nil
}

func (t *Trade) set(key, val string) error {
	switch key {
	case "sl":
		lvl, err := position.ParseLevel(val)
		if err != nil || lvl.Kind == position.LevelOpen {
			return usageErr(NameTrade, "invalid SL %q", val)
		}
		t.StopLoss = lvl
	case "tp":
		lvl, err := position.ParseLevel(val)
		if err != nil || lvl.Kind == position.LevelManual {
			return usageErr(NameTrade, "invalid TP %q", val)
		}
		t.TakeProfit = lvl
	case "lot", "lots", "size":
		lot, err := position.ParseDecimal(val)
		if err != nil || !lot.IsPositive() {
			return usageErr(NameTrade, "invalid lot %q", val)
		}
		t.Lot = lot
	case "score":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 || n > 100 {
			return usageErr(NameTrade, "score must be 0-100, got %q", val)
		}
		t.Score = &n
	case "tag":
		t.Tag = val
	default:
		return usageErr(NameTrade, "unknown field %q", key)
	}
	return nil
}

// inferDirection derives the side from a numeric stop or target.
func inferDirection(entry decimal.Decimal, sl, tp position.Level) (position.Direction, bool) {
	if s, ok := sl.Numeric(); ok && !s.Equal(entry) {
		if s.LessThan(entry) {
			return position.Long, true
		}
		return position.Short, true
	}
	if p, ok := tp.Numeric(); ok && !p.Equal(entry) {
		if p.GreaterThan(entry) {
			return position.Long, true
		}
		return position.Short, true
	}
	return "", false
}

func parseBatch(_ []string, full string) (Command, error) {
	i := strings.IndexAny(full, " \t\r\n")
	if i < 0 || strings.TrimSpace(full[i:]) == "" {
		return nil, usageErr(NameBatch, "no trade lines")
	}
	return Batch{Text: full}, nil
}

func parseClose(args []string, _ string) (Command, error) {
	if len(args) > 0 && strings.EqualFold(args[0], "all") {
		c := Close{Mode: CloseAll, Percent: hundred}
		rest := args[1:]
		c.Direction, rest = leadingDirection(rest)
		if len(rest) > 0 {
			return nil, usageErr(NameClose, "unexpected %q", rest[0])
		}
		return c, nil
	}

	c := Close{Mode: CloseTarget, Percent: hundred}
	c.Match.Symbol, args = leadingSymbol(args)
	c.Match.Direction, args = leadingDirection(args)
	if len(args) == 0 || !isNumber(args[0]) {
		return nil, usageErr(NameClose, "entry price required")
	}
	entry, err := position.ParseDecimal(args[0])
	if err != nil {
		return nil, usageErr(NameClose, "invalid entry %q", args[0])
	}
	c.Match.EntryPrice = entry

	sawPercent := false
	for _, tok := range args[1:] {
		switch {
		case strings.HasPrefix(tok, "@"):
			if err := c.setExit(strings.TrimPrefix(tok, "@")); err != nil {
				return nil, err
			}
		case strings.HasPrefix(strings.ToLower(tok), "exit="):
			if err := c.setExit(tok[len("exit="):]); err != nil {
				return nil, err
			}
		case !sawPercent && isNumber(strings.TrimSuffix(tok, "%")):
			pct, err := position.ParseDecimal(strings.TrimSuffix(tok, "%"))
			if err != nil || !pct.IsPositive() {
				return nil, usageErr(NameClose, "invalid percent %q", tok)
			}
			c.Percent = decimal.Min(pct, hundred)
			sawPercent = true
		default:
			return nil, usageErr(NameClose, "unexpected %q", tok)
		}
	}
	return c, nil
}

func (c *Close) setExit(val string) error {
	x, err := position.ParseDecimal(val)
	if err != nil || !x.IsPositive() {
		return usageErr(NameClose, "invalid exit price %q", val)
	}
	c.Exit = &x
	return nil
}

func parseUpdate(args []string, _ string) (Command, error) {
	u := Update{}
	u.Spec.Symbol, args = leadingSymbol(args)
	if len(args) == 0 || !isNumber(args[0]) {
		return nil, usageErr(NameUpdate, "entry price required")
	}
	entry, err := position.ParseDecimal(args[0])
	if err != nil {
		return nil, usageErr(NameUpdate, "invalid entry %q", args[0])
	}
	u.Spec.EntryPrice = entry
	for _, tok := range args[1:] {
		key, val, ok := kv(tok)
		if !ok {
			return nil, usageErr(NameUpdate, "unexpected %q", tok)
		}
		switch key {
		case "sl":
			lvl, err := position.ParseLevel(val)
			if err != nil || lvl.Kind == position.LevelOpen {
				return nil, usageErr(NameUpdate, "invalid SL %q", val)
			}
			u.Spec.StopLoss = &lvl
		case "tp":
			lvl, err := position.ParseLevel(val)
			if err != nil || lvl.Kind == position.LevelManual {
				return nil, usageErr(NameUpdate, "invalid TP %q", val)
			}
			u.Spec.TakeProfit = &lvl
		case "tag":
			tag := val
			u.Spec.Tag = &tag
		default:
			return nil, usageErr(NameUpdate, "unknown field %q", key)
		}
	}
	if u.Spec.Empty() {
		return nil, usageErr(NameUpdate, "nothing to update")
	}
	return u, nil
}

func parseOpenPrice(args []string, _ string) (Command, error) {
	if len(args) == 0 {
		return OpenPrice{}, nil
	}
	p, err := position.ParseDecimal(args[0])
	if err != nil || !p.IsPositive() || len(args) > 1 {
		return nil, usageErr(NameOpenPrice, "invalid price %q", strings.Join(args, " "))
	}
	return OpenPrice{Price: &p}, nil
}

func parseSignals(args []string, _ string) (Command, error) {
	if len(args) == 0 {
		return Signals{Limit: signal.DefaultListLimit}, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return nil, usageErr(NameSignals, "invalid count %q", args[0])
	}
	return Signals{Limit: n}, nil
}

func parseAuto(args []string, _ string) (Command, error) {
	if len(args) == 0 {
		return Auto{Action: AutoStatus}, nil
	}
	switch a := AutoAction(strings.ToLower(args[0])); a {
	case AutoOn, AutoOff, AutoStatus:
		return Auto{Action: a}, nil
	}
	return nil, usageErr(NameAuto, "unknown action %q", args[0])
}

package position

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LineError explains why a batch line was skipped.
type LineError struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParsedLine is a batch line that produced a position.
type ParsedLine struct {
	Line     int
	Text     string
	Position Position
}

var (
	batchHeadRe  = regexp.MustCompile(`(?i)^(long|short)\b(.*)$`)
	batchLotRe   = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*lots?\b`)
	batchEntryRe = regexp.MustCompile(`@\s*(\d+(?:[.,]\d+)?)`)
	batchFieldRe = regexp.MustCompile(`(?i)^(tp|sl|tag|score|symbol)\s*[:=]\s*(.*)$`)

	errMissingEntry = errors.New("missing entry price (@ <price>)")
)

// ParseBatch reads lines of the form
//
//	LONG | 2 lot @ 42500 | TP: 43000 | SL: manual | Tag: breakout
//
// Blank lines and a leading /batch command line are ignored. Every other
// line either parses or is reported in the skipped list. Entry is required;
// lot defaults to 1 and SL, TP and tag are optional.
func ParseBatch(text string) ([]ParsedLine, []LineError) {
	var (
		parsed  []ParsedLine
		skipped []LineError
	)
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if i == 0 && strings.HasPrefix(line, "/") {
			// the command token may share the first line with a trade
			_, rest, _ := strings.Cut(line, " ")
			line = strings.TrimSpace(rest)
			if line == "" {
				continue
			}
		}
		p, err := ParseBatchLine(line)
		if err != nil {
			skipped = append(skipped, LineError{Line: i + 1, Text: line, Reason: err.Error()})
			continue
		}
		parsed = append(parsed, ParsedLine{Line: i + 1, Text: line, Position: p})
	}
	return parsed, skipped
}

// ParseBatchLine parses one batch line into an unsaved position.
func ParseBatchLine(line string) (Position, error) {
	segs := strings.Split(line, "|")
	head := batchHeadRe.FindStringSubmatch(strings.TrimSpace(segs[0]))
	if head == nil {
		return Position{}, ErrInvalidDirection
	}
	dir, err := ParseDirection(head[1])
	if err != nil {
		return Position{}, err
	}
	p := Position{Direction: dir}
	haveEntry := false

	rest := append([]string{head[2]}, segs[1:]...)
	for _, seg := range rest {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if m := batchFieldRe.FindStringSubmatch(seg); m != nil {
			if err := applyBatchField(&p, strings.ToLower(m[1]), strings.TrimSpace(m[2])); err != nil {
				return Position{}, err
			}
			continue
		}
		known := false
		if m := batchLotRe.FindStringSubmatch(seg); m != nil {
			lot, err := ParseDecimal(m[1])
			if err != nil || !lot.IsPositive() {
				return Position{}, fmt.Errorf("invalid lot size %q", m[1])
			}
			p.LotSize = lot
			known = true
		}
		if m := batchEntryRe.FindStringSubmatch(seg); m != nil {
			entry, err := ParseDecimal(m[1])
			if err != nil {
				return Position{}, fmt.Errorf("invalid entry %q", m[1])
			}
			p.EntryPrice = entry
			haveEntry = true
			known = true
		}
		if !known {
			return Position{}, fmt.Errorf("unrecognized field %q", seg)
		}
	}
	if !haveEntry {
		return Position{}, errMissingEntry
	}
	if !p.EntryPrice.IsPositive() {
		return Position{}, ErrInvalidEntry
	}
	return p, nil
}

func applyBatchField(p *Position, key, val string) error {
	switch key {
	case "tp":
		lvl, err := ParseLevel(val)
		if err != nil {
			return err
		}
		if lvl.Kind == LevelManual {
			return fmt.Errorf("take profit cannot be %q", val)
		}
		p.TakeProfit = lvl
	case "sl":
		lvl, err := ParseLevel(val)
		if err != nil {
			return err
		}
		if lvl.Kind == LevelOpen {
			return fmt.Errorf("stop loss cannot be %q", val)
		}
		p.StopLoss = lvl
	case "tag":
		p.Tag = val
	case "symbol":
		p.Symbol = strings.ToUpper(val)
	case "score":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 || n > 100 {
			return fmt.Errorf("invalid score %q", val)
		}
		p.Score = &n
	}
	return nil
}

// Package command parses operator chat commands into typed values. Each
// command has its own small grammar; a malformed command yields a
// *UsageError carrying the expected form.
package command

import (
	"errors"
	"fmt"
	"strings"

	"us30bot/internal/position"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotCommand means the text does not start with '/' and should be
	// offered to the signal classifier.
	ErrNotCommand = errors.New("not a command")
	// ErrUnknownCommand wraps slash commands that have no grammar.
	ErrUnknownCommand = errors.New("unknown command")
)

// Name identifies a command.
type Name string

const (
	NameTrade        Name = "trade"
	NameBatch        Name = "batch"
	NameClose        Name = "close"
	NameUpdate       Name = "update"
	NameOpenPrice    Name = "openprice"
	NameZones        Name = "zones"
	NameSignals      Name = "signals"
	NameResetSignals Name = "resetsignals"
	NameStatus       Name = "status"
	NameStats        Name = "stats"
	NamePrice        Name = "price"
	NameAuto         Name = "auto"
	NameHelp         Name = "help"
)

// Command is any parsed command.
type Command interface {
	Name() Name
}

// UsageError reports a malformed command.
type UsageError struct {
	Name   Name
	Usage  string
	Reason string
}

func (e *UsageError) Error() string {
	if e.Reason == "" {
		return "usage: " + e.Usage
	}
	return fmt.Sprintf("%s; usage: %s", e.Reason, e.Usage)
}

func usageErr(n Name, format string, args ...any) *UsageError {
	return &UsageError{Name: n, Usage: usages[n], Reason: fmt.Sprintf(format, args...)}
}

// Trade opens one position.
type Trade struct {
	Symbol     string
	Direction  position.Direction
	Entry      decimal.Decimal
	StopLoss   position.Level
	TakeProfit position.Level
	Lot        decimal.Decimal
	Score      *int
	Tag        string
}

func (Trade) Name() Name { return NameTrade }

// Position converts the command into an unsaved position.
func (t Trade) Position() position.Position {
	return position.Position{
		Symbol:     t.Symbol,
		Direction:  t.Direction,
		EntryPrice: t.Entry,
		StopLoss:   t.StopLoss,
		TakeProfit: t.TakeProfit,
		LotSize:    t.Lot,
		Score:      t.Score,
		Tag:        t.Tag,
	}
}

// Batch opens every parseable line of Text.
type Batch struct{ Text string }

func (Batch) Name() Name { return NameBatch }

// CloseMode distinguishes targeted and bulk closes.
type CloseMode uint8

const (
	CloseTarget CloseMode = iota
	CloseAll
)

// Close removes or partially closes positions. For CloseAll only Direction
// is meaningful.
type Close struct {
	Mode      CloseMode
	Match     position.MatchSpec
	Direction *position.Direction
	Percent   decimal.Decimal
	Exit      *decimal.Decimal
}

func (Close) Name() Name { return NameClose }

// Partial reports whether less than the whole position is closed.
func (c Close) Partial() bool {
	return c.Mode == CloseTarget && c.Percent.LessThan(decimal.NewFromInt(100))
}

// Update overwrites SL, TP or tag.
type Update struct{ Spec position.UpdateSpec }

func (Update) Name() Name { return NameUpdate }

// OpenPrice sets the session opening price. A nil Price asks the price
// source for today's open.
type OpenPrice struct{ Price *decimal.Decimal }

func (OpenPrice) Name() Name { return NameOpenPrice }

// Signals lists the most recent Limit signals and the current score.
type Signals struct{ Limit int }

func (Signals) Name() Name { return NameSignals }

// AutoAction controls the background analyzer.
type AutoAction string

const (
	AutoOn     AutoAction = "on"
	AutoOff    AutoAction = "off"
	AutoStatus AutoAction = "status"
)

type Auto struct{ Action AutoAction }

func (Auto) Name() Name { return NameAuto }

type (
	Zones        struct{}
	ResetSignals struct{}
	Status       struct{}
	Stats        struct{}
	Price        struct{}
	Help         struct{}
)

func (Zones) Name() Name        { return NameZones }
func (ResetSignals) Name() Name { return NameResetSignals }
func (Status) Name() Name       { return NameStatus }
func (Stats) Name() Name        { return NameStats }
func (Price) Name() Name        { return NamePrice }
func (Help) Name() Name         { return NameHelp }

var usages = map[Name]string{
	NameTrade:        "/trade [SYMBOL] [long|short] <entry> [SL] [TP] [SL=x] [TP=y] [lot=n] [score=n] [tag=x]",
	NameBatch:        "/batch, then one line per trade: LONG | 2 lot @ 42500 | TP: 43000 | SL: manual | Tag: x",
	NameClose:        "/close [SYMBOL] [long|short] <entry> [percent%] [@exit] | /close all [long|short]",
	NameUpdate:       "/update [SYMBOL] <entry> [SL=x] [TP=y] [tag=x]",
	NameOpenPrice:    "/openprice [price]",
	NameZones:        "/zones",
	NameSignals:      "/signals [n]",
	NameResetSignals: "/resetsignals",
	NameStatus:       "/status",
	NameStats:        "/stats",
	NamePrice:        "/price",
	NameAuto:         "/auto on|off|status",
	NameHelp:         "/help",
}

var helpOrder = []Name{
	NameTrade, NameBatch, NameClose, NameUpdate, NameOpenPrice, NameZones,
	NameSignals, NameResetSignals, NameStatus, NameStats, NamePrice, NameAuto, NameHelp,
}

// Usage returns the usage line for a command.
func Usage(n Name) string { return usages[n] }

// HelpText lists every command's usage, one per line.
func HelpText() string {
	lines := make([]string, 0, len(helpOrder))
	for _, n := range helpOrder {
		lines = append(lines, usages[n])
	}
	return strings.Join(lines, "\n")
}

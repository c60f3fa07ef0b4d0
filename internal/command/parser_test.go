package command

import (
	"errors"
	"testing"

	"us30bot/internal/position"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotCommand(t *testing.T) {
	_, err := Parse("RSI crossing up 30")
	assert.ErrorIs(t, err, ErrNotCommand)

	_, err = Parse("/moon")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestParseTradeFull(t *testing.T) {
	cmd, err := Parse("/trade US30 long 42650 SL=42500 TP=43000 score=80 tag=Breakout")
	require.NoError(t, err)
	tr, ok := cmd.(Trade)
	require.True(t, ok)
	assert.Equal(t, "US30", tr.Symbol)
	assert.Equal(t, position.Long, tr.Direction)
	assert.Equal(t, "42650", tr.Entry.String())
	assert.Equal(t, "42500", tr.StopLoss.String())
	assert.Equal(t, "43000", tr.TakeProfit.String())
	require.NotNil(t, tr.Score)
	assert.Equal(t, 80, *tr.Score)
	assert.Equal(t, "Breakout", tr.Tag)
}

func TestParseTradeVariants(t *testing.T) {
	cmd, err := Parse("/TRADE@us30_bot short 42650 sl=manual tp=open lot=0.5")
	require.NoError(t, err)
	tr := cmd.(Trade)
	assert.Empty(t, tr.Symbol)
	assert.Equal(t, position.Short, tr.Direction)
	assert.Equal(t, position.LevelManual, tr.StopLoss.Kind)
	assert.Equal(t, position.LevelOpen, tr.TakeProfit.Kind)
	assert.Equal(t, "0.5", tr.Lot.String())

	// positional SL/TP, direction inferred from the stop
	cmd, err = Parse("/trade 42650,5 42800 42300")
	require.NoError(t, err)
	tr = cmd.(Trade)
	assert.Equal(t, position.Short, tr.Direction)
	assert.Equal(t, "42650.5", tr.Entry.String())
	assert.Equal(t, "42800", tr.StopLoss.String())
	assert.Equal(t, "42300", tr.TakeProfit.String())
}

func TestParseTradeUsageErrors(t *testing.T) {
	for _, text := range []string{
		"/trade",
		"/trade US30 long",
		"/trade long 42650 score=120",
		"/trade long 42650 sl=open",
		"/trade long 42650 foo=bar",
		"/trade 42650",
		"/trade long 42650 1 2 3",
	} {
		_, err := Parse(text)
		var ue *UsageError
		require.True(t, errors.As(err, &ue), text)
		assert.Equal(t, NameTrade, ue.Name)
		assert.NotEmpty(t, ue.Usage)
		assert.NotEmpty(t, ue.Reason, text)
	}
}

func TestParseClose(t *testing.T) {
	cmd, err := Parse("/close US30 42650")
	require.NoError(t, err)
	c := cmd.(Close)
	assert.Equal(t, CloseTarget, c.Mode)
	assert.Equal(t, "US30", c.Match.Symbol)
	assert.Nil(t, c.Match.Direction)
	assert.Equal(t, "42650", c.Match.EntryPrice.String())
	assert.False(t, c.Partial())

	cmd, err = Parse("/close short 42650 50% @42500")
	require.NoError(t, err)
	c = cmd.(Close)
	require.NotNil(t, c.Match.Direction)
	assert.Equal(t, position.Short, *c.Match.Direction)
	assert.Equal(t, "50", c.Percent.String())
	assert.True(t, c.Partial())
	require.NotNil(t, c.Exit)
	assert.Equal(t, "42500", c.Exit.String())

	cmd, err = Parse("/close 42650 150 exit=42700")
	require.NoError(t, err)
	c = cmd.(Close)
	assert.Equal(t, "100", c.Percent.String())
	assert.False(t, c.Partial())
}

func TestParseCloseAll(t *testing.T) {
	cmd, err := Parse("/close all")
	require.NoError(t, err)
	c := cmd.(Close)
	assert.Equal(t, CloseAll, c.Mode)
	assert.Nil(t, c.Direction)

	cmd, err = Parse("/close ALL Short")
	require.NoError(t, err)
	c = cmd.(Close)
	require.NotNil(t, c.Direction)
	assert.Equal(t, position.Short, *c.Direction)

	_, err = Parse("/close all sideways")
	var ue *UsageError
	assert.ErrorAs(t, err, &ue)
}

func TestParseCloseErrors(t *testing.T) {
	for _, text := range []string{"/close", "/close US30", "/close 42650 0%", "/close 42650 50 60", "/close 42650 @abc"} {
		_, err := Parse(text)
		var ue *UsageError
		assert.ErrorAs(t, err, &ue, text)
	}
}

func TestParseUpdate(t *testing.T) {
	cmd, err := Parse("/update 42650 SL=42600 tag=Trail")
	require.NoError(t, err)
	u := cmd.(Update)
	assert.Equal(t, "42650", u.Spec.EntryPrice.String())
	require.NotNil(t, u.Spec.StopLoss)
	assert.Equal(t, "42600", u.Spec.StopLoss.String())
	assert.Nil(t, u.Spec.TakeProfit)
	require.NotNil(t, u.Spec.Tag)
	assert.Equal(t, "Trail", *u.Spec.Tag)

	_, err = Parse("/update 42650")
	var ue *UsageError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "nothing to update", ue.Reason)
}

func TestParseBatch(t *testing.T) {
	cmd, err := Parse("/batch\nLONG | 1 lot @ 42500")
	require.NoError(t, err)
	assert.Contains(t, cmd.(Batch).Text, "LONG | 1 lot @ 42500")

	_, err = Parse("/batch")
	var ue *UsageError
	assert.ErrorAs(t, err, &ue)
}

func TestParseSimpleCommands(t *testing.T) {
	cmd, err := Parse("/openprice 44100")
	require.NoError(t, err)
	require.NotNil(t, cmd.(OpenPrice).Price)
	assert.Equal(t, "44100", cmd.(OpenPrice).Price.String())

	cmd, err = Parse("/openprice")
	require.NoError(t, err)
	assert.Nil(t, cmd.(OpenPrice).Price)

	_, err = Parse("/openprice abc")
	var ue *UsageError
	assert.ErrorAs(t, err, &ue)

	cmd, err = Parse("/signals")
	require.NoError(t, err)
	assert.Equal(t, 10, cmd.(Signals).Limit)
	cmd, err = Parse("/signals 3")
	require.NoError(t, err)
	assert.Equal(t, 3, cmd.(Signals).Limit)

	cmd, err = Parse("/auto ON")
	require.NoError(t, err)
	assert.Equal(t, AutoOn, cmd.(Auto).Action)
	_, err = Parse("/auto maybe")
	assert.ErrorAs(t, err, &ue)

	for text, name := range map[string]Name{
		"/zones":        NameZones,
		"/resetsignals": NameResetSignals,
		"/status":       NameStatus,
		"/stats":        NameStats,
		"/price":        NamePrice,
		"/help extra":   NameHelp,
	} {
		cmd, err := Parse(text)
		require.NoError(t, err, text)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestHelpTextListsEveryCommand(t *testing.T) {
	help := HelpText()
	for n := range usages {
		assert.Contains(t, help, "/"+string(n))
	}
}

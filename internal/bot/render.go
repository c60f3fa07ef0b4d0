package bot

import (
	"fmt"
	"sort"
	"strings"

	"us30bot/internal/command"
	"us30bot/internal/gateway/notifier"
	"us30bot/internal/position"
	"us30bot/internal/scoring"
	"us30bot/internal/signal"
	"us30bot/internal/zones"
)

func positionLine(p position.Position) string {
	parts := []string{
		fmt.Sprintf("%s %s @ %s", p.Symbol, p.Direction.Upper(), p.EntryPrice.String()),
		"lot " + p.LotSize.String(),
		"SL " + p.StopLoss.String(),
		"TP " + p.TakeProfit.String(),
	}
	if p.Score != nil {
		parts = append(parts, fmt.Sprintf("score %d", *p.Score))
	}
	if p.Tag != "" {
		parts = append(parts, "tag "+p.Tag)
	}
	return strings.Join(parts, " | ")
}

func renderOpened(p position.Position) string {
	out := "Trade added: " + positionLine(p)
	if setup, ok := position.EvaluateSetup(p.EntryPrice, p.StopLoss, p.TakeProfit); ok {
		out += fmt.Sprintf("\nSetup quality %d/100 (%s)", setup.Score, setup.Reason())
	}
	return out
}

func renderBatch(res position.BatchResult) string {
	if res.Added == 0 && len(res.Skipped) == 0 {
		return "No valid trades found."
	}
	msg := notifier.StructuredMessage{Title: fmt.Sprintf("%d position(s) added.", res.Added)}
	if res.Added == 0 {
		msg.Title = "No valid trades found."
	}
	skipped := make([]string, 0, len(res.Skipped))
	for _, e := range res.Skipped {
		skipped = append(skipped, e.Error())
	}
	msg.Sections = append(msg.Sections, notifier.MessageSection{Title: "Skipped lines:", Lines: skipped})
	return msg.Render()
}

func renderClose(out position.PartialCloseOutcome, c command.Close) string {
	target := c.Match.EntryPrice.String()
	if c.Match.Direction != nil {
		target = c.Match.Direction.Upper() + " " + target
	}
	if out.Matched == 0 {
		return fmt.Sprintf("No open position matches %s.", target)
	}
	var b strings.Builder
	if out.Full {
		fmt.Fprintf(&b, "Closed %d position(s) at %s.", out.Matched, target)
	} else {
		fmt.Fprintf(&b, "Partially closed %s%% of %d position(s) at %s; lot sizes unchanged.",
			out.Percent.String(), out.Matched, target)
	}
	if c.Exit != nil {
		fmt.Fprintf(&b, "\nExit %s, realized %s pts x lot", c.Exit.String(), out.Realized().StringFixed(2))
	}
	return b.String()
}

func renderCloseAll(n int, dir *position.Direction) string {
	scope := "all"
	if dir != nil {
		scope = "all " + dir.Upper()
	}
	if n == 0 {
		return fmt.Sprintf("No positions to close (%s).", scope)
	}
	return fmt.Sprintf("Closed %s: %d position(s).", scope, n)
}

func renderUpdate(n int, spec position.UpdateSpec) string {
	if n == 0 {
		return fmt.Sprintf("No open position at %s.", spec.EntryPrice.String())
	}
	var fields []string
	if spec.StopLoss != nil {
		fields = append(fields, "SL "+spec.StopLoss.String())
	}
	if spec.TakeProfit != nil {
		fields = append(fields, "TP "+spec.TakeProfit.String())
	}
	if spec.Tag != nil {
		fields = append(fields, "tag "+*spec.Tag)
	}
	return fmt.Sprintf("Updated %d position(s) at %s: %s", n, spec.EntryPrice.String(), strings.Join(fields, ", "))
}

func renderZones(title string, set zones.Set) string {
	lines := make([]string, 0, len(set.Levels))
	for _, l := range set.Levels {
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", l.Label, l.Price.StringFixed(2), l.Role))
	}
	return notifier.StructuredMessage{
		Title:    fmt.Sprintf("%s: %s", title, set.OpenPrice.StringFixed(2)),
		Sections: []notifier.MessageSection{{Title: "STDV zones:", Lines: lines}},
	}.Render()
}

func scoreLine(s scoring.Snapshot) string {
	line := fmt.Sprintf("Current score: %d/100 (%s)", s.Total, s.Tier())
	if s.Confluence {
		line += ", confluence bonus"
	}
	return line
}

func renderSignals(list []signal.Signal, score scoring.Snapshot) string {
	if len(list) == 0 {
		return "No signals stored.\n" + scoreLine(score)
	}
	lines := make([]string, 0, len(list))
	for _, s := range list {
		lines = append(lines, fmt.Sprintf("%s (%s, %+d)", s.RawText, s.ObservedAt.UTC().Format("15:04:05"), s.Weight))
	}
	return notifier.StructuredMessage{
		Title: "Recent signals:",
		Sections: []notifier.MessageSection{
			{Lines: lines},
			{Title: "Counted in window:", Lines: score.Reasons},
		},
		Footer: scoreLine(score),
	}.Render()
}

func renderStatus(symbol string, v position.StatusView, score scoring.Snapshot) string {
	if v.Count() == 0 {
		return fmt.Sprintf("No open %s positions.\n%s", symbol, scoreLine(score))
	}
	group := func(g position.Group) []string {
		lines := make([]string, 0, len(g.Positions))
		for _, p := range g.Positions {
			lines = append(lines, positionLine(p))
		}
		return lines
	}
	return notifier.StructuredMessage{
		Title: fmt.Sprintf("Open positions: %d", v.Count()),
		Sections: []notifier.MessageSection{
			{Title: fmt.Sprintf("LONG (%s lots):", v.Long.TotalLots.String()), Lines: group(v.Long)},
			{Title: fmt.Sprintf("SHORT (%s lots):", v.Short.TotalLots.String()), Lines: group(v.Short)},
		},
		Footer: scoreLine(score),
	}.Render()
}

func renderStats(s position.Stats) string {
	tags := make([]string, 0, len(s.ByTag))
	for tag, n := range s.ByTag {
		tags = append(tags, fmt.Sprintf("%s: %d", tag, n))
	}
	sort.Strings(tags)
	return notifier.StructuredMessage{
		Title: "Trade statistics",
		Sections: []notifier.MessageSection{
			{Title: "Open:", Lines: []string{
				fmt.Sprintf("%d positions (%d long / %d short)", s.Open, s.Long, s.Short),
				fmt.Sprintf("lots %s long / %s short", s.LongLots.String(), s.ShortLots.String()),
			}},
			{Title: "Closed:", Lines: []string{
				fmt.Sprintf("%d full, %d partial", s.FullCloses, s.PartialCloses),
				fmt.Sprintf("%d wins, %d losses", s.Wins, s.Losses),
				fmt.Sprintf("realized %s pts x lot", s.RealizedPoints.StringFixed(2)),
			}},
			{Title: "Open by tag:", Lines: tags},
		},
	}.Render()
}

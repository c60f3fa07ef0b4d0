package apihttp

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"us30bot/internal/position"
	"us30bot/internal/zones"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	colorSupport    = "#26a69a"
	colorReference  = "#42a5f5"
	colorResistance = "#ef5350"
)

func (h *apiHandlers) handleZoneChart(c *gin.Context) {
	snap := h.book.Snapshot()
	set, ok := snap.Zones()
	if !ok {
		c.String(http.StatusNotFound, "opening price not set")
		return
	}
	var buf bytes.Buffer
	if err := renderZoneChart(&buf, snap.Symbol, set, snap.Positions); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// renderZoneChart draws the STDV ladder as bars, with open entries listed
// in the subtitle.
func renderZoneChart(w io.Writer, symbol string, set zones.Set, positions []position.Position) error {
	bar := charts.NewBar()
	subtitle := fmt.Sprintf("open %s", set.OpenPrice.StringFixed(2))
	if n := len(positions); n > 0 {
		subtitle += fmt.Sprintf(" | %d open position(s)", n)
		for i, p := range positions {
			if i == 5 {
				subtitle += " ..."
				break
			}
			subtitle += fmt.Sprintf(" | %s %s", p.Direction.Upper(), p.EntryPrice.String())
		}
	}
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: symbol + " STDV zones", Width: "960px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: symbol + " STDV zones", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)

	labels := make([]string, 0, len(set.Levels))
	data := make([]opts.BarData, 0, len(set.Levels))
	for _, l := range set.Levels {
		labels = append(labels, l.Label)
		v, _ := l.Price.Float64()
		data = append(data, opts.BarData{
			Name:      string(l.Role),
			Value:     v,
			ItemStyle: &opts.ItemStyle{Color: zoneColor(l.Role)},
		})
	}
	bar.SetXAxis(labels).AddSeries("price", data)
	return bar.Render(w)
}

func zoneColor(r zones.Role) string {
	switch r {
	case zones.RoleSupport:
		return colorSupport
	case zones.RoleResistance:
		return colorResistance
	default:
		return colorReference
	}
}

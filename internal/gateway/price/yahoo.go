package price

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const yahooUserAgent = "Mozilla/5.0 (compatible; us30bot)"

// Yahoo reads the public v8 chart endpoint.
type Yahoo struct {
	baseURL string
	symbols SymbolMap
	client  *http.Client
}

func NewYahoo(baseURL string, symbols SymbolMap, timeout time.Duration) *Yahoo {
	return &Yahoo{
		baseURL: baseURL,
		symbols: symbols,
		client:  &http.Client{Timeout: timeout + time.Second},
	}
}

func (y *Yahoo) Name() string { return ProviderYahoo }

func (y *Yahoo) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	body, err := y.chart(ctx, symbol, "1m", "1d")
	if err != nil {
		return decimal.Zero, err
	}
	res := gjson.GetBytes(body, "chart.result.0.meta.regularMarketPrice")
	if d, ok := parsePositive(res.Raw); ok {
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("yahoo: no market price for %s", symbol)
}

// Open returns the open of the most recent 00:00 UTC hourly candle. When the
// instrument has no candle at midnight, the first candle of the latest day
// is used instead.
func (y *Yahoo) Open(ctx context.Context, symbol string) (decimal.Decimal, error) {
	body, err := y.chart(ctx, symbol, "1h", "5d")
	if err != nil {
		return decimal.Zero, err
	}
	stamps := gjson.GetBytes(body, "chart.result.0.timestamp").Array()
	opens := gjson.GetBytes(body, "chart.result.0.indicators.quote.0.open").Array()

	var (
		midnight, dayFirst decimal.Decimal
		haveMidnight       bool
		lastDay            string
	)
	for i, ts := range stamps {
		if i >= len(opens) || opens[i].Type != gjson.Number {
			continue
		}
		open, ok := parsePositive(opens[i].Raw)
		if !ok {
			continue
		}
		at := time.Unix(ts.Int(), 0).UTC()
		if day := at.Format(time.DateOnly); day != lastDay {
			lastDay = day
			dayFirst = open
		}
		if at.Hour() == 0 && at.Minute() == 0 {
			midnight = open
			haveMidnight = true
		}
	}
	switch {
	case haveMidnight:
		return midnight.Round(2), nil
	case lastDay != "":
		return dayFirst.Round(2), nil
	default:
		return decimal.Zero, fmt.Errorf("yahoo: no candles for %s", symbol)
	}
}

func (y *Yahoo) chart(ctx context.Context, symbol, interval, rng string) ([]byte, error) {
	ticker := y.symbols.Resolve(symbol)
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		y.baseURL, url.PathEscape(ticker), interval, rng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d for %s", resp.StatusCode, ticker)
	}
	if msg := gjson.GetBytes(body, "chart.error.description"); msg.Exists() && msg.String() != "" {
		return nil, fmt.Errorf("yahoo: %s", msg.String())
	}
	return body, nil
}

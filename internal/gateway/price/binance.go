package price

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

// Binance reads USD-M futures mark prices and daily klines. It only makes
// sense when the book symbol is mapped to a listed contract.
type Binance struct {
	client  *futures.Client
	symbols SymbolMap
}

func NewBinance(baseURL string, symbols SymbolMap, timeout time.Duration) *Binance {
	client := futures.NewClient("", "")
	client.BaseURL = strings.TrimSpace(baseURL)
	client.HTTPClient = &http.Client{Timeout: timeout + time.Second}
	return &Binance{client: client, symbols: symbols}
}

func (b *Binance) Name() string { return ProviderBinance }

func (b *Binance) ticker(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(b.symbols.Resolve(symbol), "/", ""))
}

func (b *Binance) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ticker := b.ticker(symbol)
	res, err := b.client.NewPremiumIndexService().Symbol(ticker).Do(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	for _, entry := range res {
		if entry == nil || !strings.EqualFold(entry.Symbol, ticker) {
			continue
		}
		if d, ok := parsePositive(entry.MarkPrice); ok {
			return d, nil
		}
	}
	return decimal.Zero, fmt.Errorf("binance: no mark price for %s", ticker)
}

// Open returns the open of the current daily kline (00:00 UTC).
func (b *Binance) Open(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ticker := b.ticker(symbol)
	kls, err := b.client.NewKlinesService().Symbol(ticker).Interval("1d").Limit(1).Do(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	for i := len(kls) - 1; i >= 0; i-- {
		if kls[i] == nil {
			continue
		}
		if d, ok := parsePositive(kls[i].Open); ok {
			return d.Round(2), nil
		}
	}
	return decimal.Zero, fmt.Errorf("binance: no daily kline for %s", ticker)
}

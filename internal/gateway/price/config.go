package price

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProviderYahoo   = "yahoo"
	ProviderBinance = "binance"
	ProviderNone    = "none"
)

type Config struct {
	Provider       string
	Timeout        time.Duration
	SymbolMap      SymbolMap
	YahooBaseURL   string
	BinanceBaseURL string

	BreakerThreshold int
	BreakerCooldown  time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	out.Provider = strings.ToLower(strings.TrimSpace(out.Provider))
	if out.Provider == "" {
		out.Provider = ProviderYahoo
	}
	if out.Timeout <= 0 {
		out.Timeout = 3 * time.Second
	}
	out.YahooBaseURL = strings.TrimRight(strings.TrimSpace(out.YahooBaseURL), "/")
	if out.YahooBaseURL == "" {
		out.YahooBaseURL = "https://query1.finance.yahoo.com"
	}
	out.BinanceBaseURL = strings.TrimSpace(out.BinanceBaseURL)
	if out.BinanceBaseURL == "" {
		out.BinanceBaseURL = "https://fapi.binance.com"
	}
	if out.BreakerThreshold <= 0 {
		out.BreakerThreshold = 3
	}
	if out.BreakerCooldown <= 0 {
		out.BreakerCooldown = time.Minute
	}
	if len(out.SymbolMap) == 0 && out.Provider == ProviderYahoo {
		out.SymbolMap = SymbolMap{"US30": "^DJI"}
	}
	return out
}

// New builds the configured provider wrapped in a Guard.
func New(cfg Config) (Source, error) {
	final := cfg.withDefaults()
	var src Source
	switch final.Provider {
	case ProviderYahoo:
		src = NewYahoo(final.YahooBaseURL, final.SymbolMap, final.Timeout)
	case ProviderBinance:
		src = NewBinance(final.BinanceBaseURL, final.SymbolMap, final.Timeout)
	case ProviderNone:
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown price provider %q", cfg.Provider)
	}
	return NewGuard(src, final.Timeout, NewBreaker(src.Name(), final.BreakerThreshold, final.BreakerCooldown)), nil
}

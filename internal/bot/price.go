package bot

import (
	"context"

	"us30bot/internal/gateway/price"
	"us30bot/internal/logger"

	"github.com/shopspring/decimal"
)

// livePrice returns nil when no price could be fetched.
func livePrice(ctx context.Context, src price.Source, symbol string) *decimal.Decimal {
	p, err := src.Price(ctx, symbol)
	if err != nil {
		logger.Debugf("bot: live price unavailable: %v", err)
		return nil
	}
	return &p
}

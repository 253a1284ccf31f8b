package interfaces

import (
	"context"

	"github.com/bobmcallan/stocktrader/internal/models"
)

// TierChangePublisher submits loyalty tier changes to the notification queue.
type TierChangePublisher interface {
	PublishTierChange(ctx context.Context, change models.LoyaltyChange) error
}

// TradeEventPublisher appends executed trades to the trade-event log.
type TradeEventPublisher interface {
	PublishTrade(ctx context.Context, trade models.StockPurchase) error
}

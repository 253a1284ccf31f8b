// Package interfaces defines service contracts for the portfolio service
package interfaces

import (
	"context"

	"github.com/bobmcallan/stocktrader/internal/models"
)

// QuoteClient provides current prices from the stock quote service.
// authToken is the caller's Authorization value, forwarded as-is.
type QuoteClient interface {
	GetQuote(ctx context.Context, authToken, symbol string) (*models.Quote, error)
}

// LoyaltyRuleClient evaluates the loyalty business rule for a portfolio total
// and returns the tier label it decided on.
type LoyaltyRuleClient interface {
	EvaluateTier(ctx context.Context, authToken string, total float64) (string, error)
}

// SentimentClient classifies free-text feedback into a dominant emotion label.
type SentimentClient interface {
	Analyze(ctx context.Context, authToken, text string) (string, error)
}

// TradeHistoryClient retrieves an owner's return on investment.
type TradeHistoryClient interface {
	GetReturns(ctx context.Context, authToken, owner string, currentValue float64) (string, error)
}

package interfaces

import (
	"context"

	"github.com/bobmcallan/stocktrader/internal/models"
)

// PortfolioService is the operation surface exposed to the HTTP layer.
type PortfolioService interface {
	ListPortfolios(ctx context.Context) ([]*models.Portfolio, error)
	CreatePortfolio(ctx context.Context, owner string) (*models.Portfolio, error)
	RefreshAndValue(ctx context.Context, owner string) (*models.Portfolio, error)
	ExecuteTrade(ctx context.Context, owner, symbol string, shares int) (*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, owner string) (*models.Portfolio, error)
	SubmitFeedback(ctx context.Context, owner, text string) (*models.Feedback, error)
	GetReturns(ctx context.Context, owner string) (string, error)
}

package interfaces

import (
	"context"

	"github.com/bobmcallan/stocktrader/internal/models"
)

// UpdateFunc mutates a private snapshot of a portfolio. Returning an error
// aborts the update and nothing is written.
type UpdateFunc func(p *models.Portfolio) error

// PortfolioStore persists portfolios together with their holdings.
// Returned portfolios are copies owned by the caller.
type PortfolioStore interface {
	// Create stores a new portfolio, failing with common.ErrConflict if the owner exists.
	Create(ctx context.Context, p *models.Portfolio) error

	// Get returns the portfolio or common.ErrNotFound.
	Get(ctx context.Context, owner string) (*models.Portfolio, error)

	// List returns every stored portfolio ordered by owner.
	List(ctx context.Context) ([]*models.Portfolio, error)

	// Delete removes the portfolio and its holdings, returning what was removed.
	Delete(ctx context.Context, owner string) (*models.Portfolio, error)

	// Update performs one atomic read-modify-write. Concurrent updates to the
	// same owner are serialized; the committed portfolio is returned.
	Update(ctx context.Context, owner string, fn UpdateFunc) (*models.Portfolio, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

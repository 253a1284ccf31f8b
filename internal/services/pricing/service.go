// Package pricing refreshes holding prices from the quote source with
// fallback to last-known data.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
	"github.com/bobmcallan/stocktrader/internal/models"
	"github.com/bobmcallan/stocktrader/internal/services/ledger"
)

// Service refreshes holdings in place. It never returns an error; a failed
// quote degrades the holding to its cached values or the sentinel price.
type Service struct {
	quotes  interfaces.QuoteClient
	timeout time.Duration
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a price refresher. quotes may be nil, in which case
// every refresh degrades.
func NewService(quotes interfaces.QuoteClient, timeout time.Duration, logger *common.Logger) *Service {
	return &Service{
		quotes:  quotes,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Refresh updates the holding's price, date and total. It reports whether a
// live quote was applied.
func (s *Service) Refresh(ctx context.Context, h *models.Holding) bool {
	quote, err := s.fetch(ctx, h.Symbol)
	if err == nil {
		h.Price = quote.Price
		h.Date = quote.Date
		if h.Date == "" {
			h.Date = s.today()
		}
		h.Total = ledger.Total(h.Shares, quote.Price)
		return true
	}

	s.logger.Warn().
		Err(err).
		Str("symbol", h.Symbol).
		Str("failure", string(common.FailureKindOf(err))).
		Float64("cached_price", h.Price).
		Msg("Quote unavailable, using cached values")

	if h.Date == "" {
		h.Date = s.today()
	}
	if h.Price == 0 || h.Price == models.PriceUnavailable {
		h.Price = models.PriceUnavailable
		h.Total = models.PriceUnavailable
	} else {
		h.Total = ledger.Total(h.Shares, h.Price)
	}
	return false
}

// fetch calls the quote source under the configured timeout, converting an
// adapter panic into an ordinary failure.
func (s *Service) fetch(ctx context.Context, symbol string) (quote *models.Quote, err error) {
	if s.quotes == nil {
		return nil, common.NewFailure(common.FailureUnconfigured, "pricing.Refresh", nil)
	}

	defer func() {
		if r := recover(); r != nil {
			quote = nil
			err = common.NewFailure(common.FailureTransport, "pricing.Refresh", fmt.Errorf("quote client panic: %v", r))
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	quote, err = s.quotes.GetQuote(ctx, common.ResolveAuthToken(ctx), symbol)
	if err != nil {
		return nil, err
	}
	if quote == nil || quote.Price <= 0 {
		return nil, common.NewFailure(common.FailureMalformed, "pricing.Refresh", fmt.Errorf("no usable price for %s", symbol))
	}
	return quote, nil
}

func (s *Service) today() string {
	return s.now().Format(models.DateFormat)
}

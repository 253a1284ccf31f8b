package portfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/models"
	"github.com/bobmcallan/stocktrader/internal/services/ledger"
	"github.com/bobmcallan/stocktrader/internal/services/loyalty"
)

// tradeOutcome carries what the post-commit notifications need out of the
// update callback. The callback may run more than once under optimistic
// retry, so it is overwritten on every attempt.
type tradeOutcome struct {
	before     models.Tier
	decision   loyalty.Decision
	commission float64
	price      float64
}

// ExecuteTrade applies a signed share delta for symbol. The commission is
// charged at the freshly resolved tier, the holding is created, adjusted or
// removed, and the portfolio is revalued before the single commit.
// Notifications are attempted only after the commit succeeds.
func (s *Service) ExecuteTrade(ctx context.Context, owner, symbol string, shares int) (*models.Portfolio, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required: %w", common.ErrInvalidInput)
	}
	if shares == 0 {
		return nil, fmt.Errorf("share delta must be non-zero: %w", common.ErrInvalidInput)
	}

	var out tradeOutcome
	committed, err := s.store.Update(ctx, owner, func(p *models.Portfolio) error {
		out = tradeOutcome{before: p.Loyalty}

		s.value(ctx, p)
		out.commission = ledger.Charge(p)

		h := p.Holding(symbol)
		if h == nil {
			if shares < 0 {
				return fmt.Errorf("no %s holding to sell: %w", symbol, common.ErrInvalidInput)
			}
			h = &models.Holding{Symbol: symbol}
			p.Holdings = append(p.Holdings, h)
		}
		preTradePrice := h.Price

		h.Shares += shares
		if h.Shares <= 0 {
			p.RemoveHolding(symbol)
		} else {
			h.Commission = ledger.Add(h.Commission, out.commission)
		}

		out.decision = s.value(ctx, p)
		out.price = preTradePrice
		if h := p.Holding(symbol); h != nil {
			out.price = h.Price
		}

		p.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, s.storeFailure("execute trade", owner, err)
	}
	s.health.Success()

	s.logger.Info().
		Str("owner", owner).
		Str("symbol", symbol).
		Int("shares", shares).
		Float64("commission", out.commission).
		Float64("balance", committed.Balance).
		Msg("Trade executed")

	s.loyalty.Announce(ctx, loyalty.Since(ctx, out.before, out.decision))
	s.emitTrade(ctx, owner, symbol, shares, out)

	return committed, nil
}

// emitTrade publishes the executed trade. Every failure is logged only.
func (s *Service) emitTrade(ctx context.Context, owner, symbol string, shares int, out tradeOutcome) {
	if s.trades == nil {
		s.logger.Debug().Str("owner", owner).Msg("Trade-event channel not configured, skipping trade event")
		return
	}
	if out.price <= 0 {
		s.logger.Warn().Str("owner", owner).Str("symbol", symbol).Msg("Unable to get the stock price, skipping trade event")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Str("owner", owner).Interface("panic", r).Msg("Failure sending trade event")
		}
	}()

	trade := models.StockPurchase{
		ID:         s.newID(),
		Owner:      owner,
		Symbol:     symbol,
		Shares:     shares,
		Price:      out.price,
		When:       s.now().Format(models.TradeTimeFormat),
		Commission: out.commission,
	}

	if s.opts.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.NotifyTimeout)
		defer cancel()
	}

	if err := s.trades.PublishTrade(ctx, trade); err != nil {
		s.logger.Warn().
			Err(err).
			Str("owner", owner).
			Str("trade_id", trade.ID).
			Str("failure", string(common.FailureKindOf(err))).
			Msg("Failure sending trade event")
	}
}

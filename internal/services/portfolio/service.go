// Package portfolio values portfolios and executes trades against them
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
	"github.com/bobmcallan/stocktrader/internal/models"
	"github.com/bobmcallan/stocktrader/internal/services/ledger"
	"github.com/bobmcallan/stocktrader/internal/services/loyalty"
	"github.com/bobmcallan/stocktrader/internal/services/pricing"
)

var ownerPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.@-]{0,63}$`)

// Options holds portfolio policy and external call bounds.
type Options struct {
	InitialBalance   float64
	DeniedOwners     []string
	NotifyTimeout    time.Duration
	SentimentTimeout time.Duration
	HistoryTimeout   time.Duration
}

// Service implements PortfolioService
type Service struct {
	store     interfaces.PortfolioStore
	pricing   *pricing.Service
	loyalty   *loyalty.Service
	trades    interfaces.TradeEventPublisher
	sentiment interfaces.SentimentClient
	history   interfaces.TradeHistoryClient
	opts      Options
	health    *common.ErrorCounter
	logger    *common.Logger
	now       func() time.Time // injectable clock for testing
	newID     func() string
}

// NewService creates a new portfolio service.
// trades, sentiment and history may be nil when those services are not configured.
func NewService(
	store interfaces.PortfolioStore,
	pricer *pricing.Service,
	resolver *loyalty.Service,
	trades interfaces.TradeEventPublisher,
	sentiment interfaces.SentimentClient,
	history interfaces.TradeHistoryClient,
	opts Options,
	health *common.ErrorCounter,
	logger *common.Logger,
) *Service {
	if health == nil {
		health = common.NewErrorCounter(common.DefaultLivenessThreshold)
	}
	return &Service{
		store:     store,
		pricing:   pricer,
		loyalty:   resolver,
		trades:    trades,
		sentiment: sentiment,
		history:   history,
		opts:      opts,
		health:    health,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// ListPortfolios returns all portfolios as stored, without refreshing prices.
func (s *Service) ListPortfolios(ctx context.Context) ([]*models.Portfolio, error) {
	portfolios, err := s.store.List(ctx)
	if err != nil {
		return nil, s.storeFailure("list portfolios", "", err)
	}
	s.health.Success()
	return portfolios, nil
}

// CreatePortfolio opens an empty portfolio at the Basic tier with the configured starting balance.
func (s *Service) CreatePortfolio(ctx context.Context, owner string) (*models.Portfolio, error) {
	if err := s.validateNewOwner(owner); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Portfolio{
		Owner:     owner,
		Loyalty:   models.TierBasic,
		Balance:   s.opts.InitialBalance,
		Sentiment: models.DefaultSentiment,
		Holdings:  []*models.Holding{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.NextCommission = ledger.NextCommission(p)

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("portfolio %s already exists: %w", owner, common.ErrConflict)
		}
		return nil, s.storeFailure("create portfolio", owner, err)
	}

	s.health.Success()
	s.logger.Info().Str("owner", owner).Float64("balance", p.Balance).Msg("Portfolio created")
	return p, nil
}

// RefreshAndValue refreshes every holding's price, recomputes the total and
// loyalty tier, persists the result and announces a tier change if one
// occurred.
func (s *Service) RefreshAndValue(ctx context.Context, owner string) (*models.Portfolio, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	var decision loyalty.Decision
	committed, err := s.store.Update(ctx, owner, func(p *models.Portfolio) error {
		decision = s.value(ctx, p)
		p.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, s.storeFailure("refresh portfolio", owner, err)
	}
	s.health.Success()

	s.loyalty.Announce(ctx, decision)
	return committed, nil
}

// value runs the read path on a snapshot: refresh in stored order, sum
// excluding the sentinel, resolve the tier and preview the next commission.
func (s *Service) value(ctx context.Context, p *models.Portfolio) loyalty.Decision {
	for _, h := range p.Holdings {
		s.pricing.Refresh(ctx, h)
	}
	p.Total = ledger.Sum(p.Holdings)

	d := s.loyalty.Resolve(ctx, p.Owner, p.Total, p.Loyalty)
	p.Loyalty = d.Tier
	p.NextCommission = ledger.NextCommission(p)
	return d
}

// DeletePortfolio removes the portfolio with all its holdings.
func (s *Service) DeletePortfolio(ctx context.Context, owner string) (*models.Portfolio, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	p, err := s.store.Delete(ctx, owner)
	if err != nil {
		return nil, s.storeFailure("delete portfolio", owner, err)
	}
	s.health.Success()
	s.logger.Info().Str("owner", owner).Int("holdings", len(p.Holdings)).Msg("Portfolio deleted")
	return p, nil
}

// Alive reports the liveness state derived from consecutive storage failures.
func (s *Service) Alive() bool {
	return s.health.Alive()
}

// storeFailure maps a store error onto the caller-facing taxonomy and
// counts persistence failures for liveness.
func (s *Service) storeFailure(op, owner string, err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return fmt.Errorf("portfolio %s: %w", owner, common.ErrNotFound)
	case errors.Is(err, common.ErrInvalidInput):
		return err
	}

	s.health.Failure()
	s.logger.Error().Err(err).Str("owner", owner).Int("consecutive_errors", s.health.Consecutive()).Msg("Failed to " + op)
	if errors.Is(err, common.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrPersistence, err)
}

func validateOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return fmt.Errorf("owner is required: %w", common.ErrInvalidInput)
	}
	if !ownerPattern.MatchString(owner) {
		return fmt.Errorf("invalid owner %q: %w", owner, common.ErrInvalidInput)
	}
	return nil
}

func (s *Service) validateNewOwner(owner string) error {
	if err := validateOwner(owner); err != nil {
		return err
	}
	for _, denied := range s.opts.DeniedOwners {
		if strings.EqualFold(owner, denied) {
			return fmt.Errorf("owner %q is not permitted: %w", owner, common.ErrInvalidInput)
		}
	}
	return nil
}

var _ interfaces.PortfolioService = (*Service)(nil)

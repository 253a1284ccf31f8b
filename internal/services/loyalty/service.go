// Package loyalty resolves a portfolio's loyalty tier and announces changes.
package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
	"github.com/bobmcallan/stocktrader/internal/models"
)

// Decision is the outcome of one tier resolution.
type Decision struct {
	Owner    string
	Total    float64
	Previous models.Tier
	Tier     models.Tier
	Changed  bool
	Event    *models.LoyaltyChange // set when Changed
}

// Service evaluates tiers through the rule client and publishes changes.
type Service struct {
	rules         interfaces.LoyaltyRuleClient
	publisher     interfaces.TierChangePublisher
	ruleTimeout   time.Duration
	notifyTimeout time.Duration
	logger        *common.Logger
}

// NewService creates a loyalty resolver. publisher may be nil, in which case
// changes are detected but not announced.
func NewService(rules interfaces.LoyaltyRuleClient, publisher interfaces.TierChangePublisher, ruleTimeout, notifyTimeout time.Duration, logger *common.Logger) *Service {
	return &Service{
		rules:         rules,
		publisher:     publisher,
		ruleTimeout:   ruleTimeout,
		notifyTimeout: notifyTimeout,
		logger:        logger,
	}
}

// Resolve determines the tier for total. A failed or unintelligible rule
// evaluation keeps the previous tier. An unset previous tier never counts
// as a change.
func (s *Service) Resolve(ctx context.Context, owner string, total float64, previous models.Tier) Decision {
	d := Decision{Owner: owner, Total: total, Previous: previous, Tier: previous}

	tier, err := s.evaluate(ctx, total)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("owner", owner).
			Float64("total", total).
			Str("failure", string(common.FailureKindOf(err))).
			Str("tier", previous.String()).
			Msg("Loyalty rule unavailable, keeping cached tier")
		return d
	}

	d.Tier = tier
	if !previous.IsSet() || tier == previous {
		return d
	}

	d.Changed = true
	d.Event = &models.LoyaltyChange{
		Owner: owner,
		Old:   previous,
		New:   tier,
		ID:    common.ResolveActingUser(ctx),
	}
	s.logger.Info().Str("owner", owner).Str("old", previous.String()).Str("new", tier.String()).Msg("Change in loyalty level detected")
	return d
}

func (s *Service) evaluate(ctx context.Context, total float64) (tier models.Tier, err error) {
	if s.rules == nil {
		return models.TierUnset, common.NewFailure(common.FailureUnconfigured, "loyalty.Resolve", nil)
	}

	defer func() {
		if r := recover(); r != nil {
			tier = models.TierUnset
			err = common.NewFailure(common.FailureTransport, "loyalty.Resolve", fmt.Errorf("rule client panic: %v", r))
		}
	}()

	if s.ruleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ruleTimeout)
		defer cancel()
	}

	label, err := s.rules.EvaluateTier(ctx, common.ResolveAuthToken(ctx), total)
	if err != nil {
		return models.TierUnset, err
	}
	tier, err = models.ParseTier(label)
	if err != nil {
		return models.TierUnset, common.NewFailure(common.FailureMalformed, "loyalty.Resolve", err)
	}
	return tier, nil
}

// Announce submits a changed decision to the tier-change queue. Failures are
// logged and never returned.
func (s *Service) Announce(ctx context.Context, d Decision) {
	if !d.Changed || d.Event == nil {
		return
	}
	if s.publisher == nil {
		s.logger.Info().Str("owner", d.Owner).Msg("Tier-change queue not configured, skipping notification")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Str("owner", d.Owner).Interface("panic", r).Msg("Unable to send loyalty change notification")
		}
	}()

	if s.notifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()
	}

	if err := s.publisher.PublishTierChange(ctx, *d.Event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("owner", d.Owner).
			Str("failure", string(common.FailureKindOf(err))).
			Msg("Unable to send loyalty change notification, continuing")
	}
}

// Since restates d relative to an earlier tier, so several resolutions in
// one request collapse into at most one change.
func Since(ctx context.Context, previous models.Tier, d Decision) Decision {
	d.Previous = previous
	d.Changed = previous.IsSet() && d.Tier.IsSet() && d.Tier != previous
	d.Event = nil
	if d.Changed {
		d.Event = &models.LoyaltyChange{
			Owner: d.Owner,
			Old:   previous,
			New:   d.Tier,
			ID:    common.ResolveActingUser(ctx),
		}
	}
	return d
}

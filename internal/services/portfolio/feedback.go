package portfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/models"
	"github.com/bobmcallan/stocktrader/internal/services/ledger"
)

// Feedback messages returned to the user.
const (
	MessageThanks = "Thanks for providing feedback.  Have a free trade on us!"
	MessageSorry  = "We're sorry you are upset.  Have three free trades on us!"
	MessageNoTone = "Error communicating with the sentiment analyzer"
)

// grantFor maps a sentiment onto free trades and the reply shown to the user.
func grantFor(sentiment string) (int, string) {
	switch {
	case strings.EqualFold(sentiment, models.SentimentAnger):
		return 3, MessageSorry
	case strings.EqualFold(sentiment, models.SentimentUnknown):
		return 0, MessageNoTone
	default:
		return 1, MessageThanks
	}
}

// SubmitFeedback analyses the feedback text, grants free trades according to
// its sentiment and stores the sentiment on the portfolio.
func (s *Service) SubmitFeedback(ctx context.Context, owner, text string) (*models.Feedback, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if _, err := s.store.Get(ctx, owner); err != nil {
		return nil, s.storeFailure("load portfolio", owner, err)
	}

	sentiment := s.analyze(ctx, owner, text)
	free, message := grantFor(sentiment)

	_, err := s.store.Update(ctx, owner, func(p *models.Portfolio) error {
		p.Free += free
		p.Sentiment = sentiment
		p.NextCommission = ledger.NextCommission(p)
		p.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, s.storeFailure("submit feedback", owner, err)
	}
	s.health.Success()

	s.logger.Info().Str("owner", owner).Str("sentiment", sentiment).Int("free", free).Msg("Feedback recorded")
	return &models.Feedback{Message: message, Free: free, Sentiment: sentiment}, nil
}

// analyze returns the sentiment of text, or Unknown on any failure.
func (s *Service) analyze(ctx context.Context, owner, text string) (sentiment string) {
	if s.sentiment == nil {
		return models.SentimentUnknown
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Str("owner", owner).Interface("panic", r).Msg("Sentiment analyzer failed")
			sentiment = models.SentimentUnknown
		}
	}()

	if s.opts.SentimentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SentimentTimeout)
		defer cancel()
	}

	label, err := s.sentiment.Analyze(ctx, common.ResolveAuthToken(ctx), text)
	if err != nil || strings.TrimSpace(label) == "" {
		s.logger.Warn().Err(err).Str("owner", owner).Str("failure", string(common.FailureKindOf(err))).Msg("Sentiment analyzer unavailable")
		return models.SentimentUnknown
	}
	return label
}

// GetReturns values the portfolio, then asks the trade history service for
// the owner's return on investment at that value.
func (s *Service) GetReturns(ctx context.Context, owner string) (string, error) {
	p, err := s.RefreshAndValue(ctx, owner)
	if err != nil {
		return "", err
	}
	if s.history == nil {
		return "", fmt.Errorf("trade history not configured: %w", common.ErrUpstream)
	}

	if s.opts.HistoryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.HistoryTimeout)
		defer cancel()
	}

	returns, err := s.history.GetReturns(ctx, common.ResolveAuthToken(ctx), owner, p.Total)
	if err != nil {
		s.logger.Warn().Err(err).Str("owner", owner).Str("failure", string(common.FailureKindOf(err))).Msg("Trade history unavailable")
		return "", fmt.Errorf("returns for %s: %w: %w", owner, common.ErrUpstream, err)
	}
	return returns, nil
}

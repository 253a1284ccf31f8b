package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/models"
)

type mockQuoteClient struct {
	quote     *models.Quote
	err       error
	panics    bool
	called    bool
	authToken string
	deadline  bool
}

func (m *mockQuoteClient) GetQuote(ctx context.Context, authToken, symbol string) (*models.Quote, error) {
	m.called = true
	m.authToken = authToken
	_, m.deadline = ctx.Deadline()
	if m.panics {
		panic("boom")
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.quote, nil
}

func newTestService(q *mockQuoteClient) *Service {
	s := NewService(q, time.Second, common.NewSilentLogger())
	s.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestRefresh_Success(t *testing.T) {
	q := &mockQuoteClient{quote: &models.Quote{Symbol: "IBM", Price: 120.5, Date: "2026-10-13"}}
	s := newTestService(q)

	ctx := common.WithUserContext(context.Background(), &common.UserContext{AuthToken: "Bearer abc"})
	h := &models.Holding{Symbol: "IBM", Shares: 4, Price: 100, Date: "2026-10-01"}

	assert.True(t, s.Refresh(ctx, h))
	assert.Equal(t, 120.5, h.Price)
	assert.Equal(t, "2026-10-13", h.Date)
	assert.Equal(t, 482.0, h.Total)
	assert.Equal(t, "Bearer abc", q.authToken)
	assert.True(t, q.deadline, "quote call should be bounded by a timeout")
}

func TestRefresh_FailureUsesCachedPrice(t *testing.T) {
	s := newTestService(&mockQuoteClient{err: common.NewFailure(common.FailureTransport, "x", errors.New("down"))})
	h := &models.Holding{Symbol: "IBM", Shares: 3, Price: 10, Date: "2026-09-30", Total: 0}

	assert.False(t, s.Refresh(context.Background(), h))
	assert.Equal(t, 10.0, h.Price)
	assert.Equal(t, 30.0, h.Total)
	assert.Equal(t, "2026-09-30", h.Date)
}

func TestRefresh_FailureWithoutCachedPriceIsSentinel(t *testing.T) {
	s := newTestService(&mockQuoteClient{err: context.DeadlineExceeded})
	h := &models.Holding{Symbol: "NEW", Shares: 5}

	assert.False(t, s.Refresh(context.Background(), h))
	assert.Equal(t, models.PriceUnavailable, h.Price)
	assert.Equal(t, models.PriceUnavailable, h.Total)
	assert.Equal(t, "2026-10-14", h.Date, "missing date falls back to today")
}

func TestRefresh_PanicIsAbsorbed(t *testing.T) {
	s := newTestService(&mockQuoteClient{panics: true})
	h := &models.Holding{Symbol: "X", Shares: 2, Price: 7}

	assert.NotPanics(t, func() { s.Refresh(context.Background(), h) })
	assert.Equal(t, 14.0, h.Total)
}

func TestRefresh_NilQuoteOrZeroPriceDegrades(t *testing.T) {
	for _, q := range []*mockQuoteClient{{quote: nil}, {quote: &models.Quote{Price: 0}}} {
		s := newTestService(q)
		h := &models.Holding{Symbol: "X", Shares: 1}
		assert.False(t, s.Refresh(context.Background(), h))
		assert.Equal(t, models.PriceUnavailable, h.Price)
	}
}

func TestRefresh_NoClient(t *testing.T) {
	s := NewService(nil, 0, common.NewSilentLogger())
	h := &models.Holding{Symbol: "X", Shares: 1, Price: 3, Date: "2026-01-01"}
	assert.False(t, s.Refresh(context.Background(), h))
	assert.Equal(t, 3.0, h.Total)
}

func TestRefresh_TotalIsExactProduct(t *testing.T) {
	cases := []struct {
		shares int
		price  float64
		want   float64
	}{
		{3, 123.456, 370.368},
		{10, 0.0004, 0.004},
	}
	for _, tc := range cases {
		s := newTestService(&mockQuoteClient{quote: &models.Quote{Symbol: "IBM", Price: tc.price, Date: "2026-10-13"}})
		h := &models.Holding{Symbol: "IBM", Shares: tc.shares}

		assert.True(t, s.Refresh(context.Background(), h))
		assert.Equal(t, tc.want, h.Total, "shares=%d price=%v", tc.shares, tc.price)
	}
}

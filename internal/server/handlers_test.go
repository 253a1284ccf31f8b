package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stocktrader/internal/app"
	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
	"github.com/bobmcallan/stocktrader/internal/models"
	"github.com/bobmcallan/stocktrader/internal/storage/memory"
)

// mockPortfolioService implements interfaces.PortfolioService for testing.
type mockPortfolioService struct {
	list     func(ctx context.Context) ([]*models.Portfolio, error)
	create   func(ctx context.Context, owner string) (*models.Portfolio, error)
	value    func(ctx context.Context, owner string) (*models.Portfolio, error)
	trade    func(ctx context.Context, owner, symbol string, shares int) (*models.Portfolio, error)
	remove   func(ctx context.Context, owner string) (*models.Portfolio, error)
	feedback func(ctx context.Context, owner, text string) (*models.Feedback, error)
	returns  func(ctx context.Context, owner string) (string, error)
}

func (m *mockPortfolioService) ListPortfolios(ctx context.Context) ([]*models.Portfolio, error) {
	if m.list == nil {
		return nil, nil
	}
	return m.list(ctx)
}

func (m *mockPortfolioService) CreatePortfolio(ctx context.Context, owner string) (*models.Portfolio, error) {
	return m.create(ctx, owner)
}

func (m *mockPortfolioService) RefreshAndValue(ctx context.Context, owner string) (*models.Portfolio, error) {
	return m.value(ctx, owner)
}

func (m *mockPortfolioService) ExecuteTrade(ctx context.Context, owner, symbol string, shares int) (*models.Portfolio, error) {
	return m.trade(ctx, owner, symbol, shares)
}

func (m *mockPortfolioService) DeletePortfolio(ctx context.Context, owner string) (*models.Portfolio, error) {
	return m.remove(ctx, owner)
}

func (m *mockPortfolioService) SubmitFeedback(ctx context.Context, owner, text string) (*models.Feedback, error) {
	return m.feedback(ctx, owner, text)
}

func (m *mockPortfolioService) GetReturns(ctx context.Context, owner string) (string, error) {
	return m.returns(ctx, owner)
}

var _ interfaces.PortfolioService = (*mockPortfolioService)(nil)

// pingStore overrides Ping on the memory store.
type pingStore struct {
	*memory.Store
	err error
}

func (p *pingStore) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, svc interfaces.PortfolioService) (*Server, *app.App) {
	t.Helper()
	logger := common.NewSilentLogger()
	config := common.NewDefaultConfig()
	config.Auth.JWTSecret = testSecret
	a := &app.App{
		Config:           config,
		Logger:           logger,
		Store:            memory.NewStore(logger),
		Health:           common.NewErrorCounter(common.DefaultLivenessThreshold),
		PortfolioService: svc,
	}
	return NewServer(a), a
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandlePortfolioList(t *testing.T) {
	svc := &mockPortfolioService{
		list: func(context.Context) ([]*models.Portfolio, error) {
			return []*models.Portfolio{{Owner: "alice"}, {Owner: "bob"}}, nil
		},
	}
	s, _ := newTestServer(t, svc)

	for _, target := range []string{"/api/portfolios", "/api/portfolios/"} {
		rec := serve(s, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)

		var got []models.Portfolio
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		require.Len(t, got, 2)
		assert.Equal(t, "alice", got[0].Owner)
	}
}

func TestHandlePortfolioList_EmptyIsArray(t *testing.T) {
	s, _ := newTestServer(t, &mockPortfolioService{})

	rec := serve(s, http.MethodGet, "/api/portfolios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandlePortfolio_Create(t *testing.T) {
	var gotOwner string
	svc := &mockPortfolioService{
		create: func(_ context.Context, owner string) (*models.Portfolio, error) {
			gotOwner = owner
			return &models.Portfolio{Owner: owner, Loyalty: models.TierBasic, Balance: 50}, nil
		},
	}
	s, _ := newTestServer(t, svc)

	rec := serve(s, http.MethodPost, "/api/portfolios/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", gotOwner)
	assert.Contains(t, rec.Body.String(), `"loyalty":"Basic"`)
}

func TestHandlePortfolio_ValueAndDelete(t *testing.T) {
	svc := &mockPortfolioService{
		value: func(_ context.Context, owner string) (*models.Portfolio, error) {
			return &models.Portfolio{Owner: owner, Total: 1000}, nil
		},
		remove: func(_ context.Context, owner string) (*models.Portfolio, error) {
			return &models.Portfolio{Owner: owner}, nil
		},
	}
	s, _ := newTestServer(t, svc)

	rec := serve(s, http.MethodGet, "/api/portfolios/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1000`)

	rec = serve(s, http.MethodDelete, "/api/portfolios/alice", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlePortfolio_Trade(t *testing.T) {
	var gotSymbol string
	var gotShares int
	svc := &mockPortfolioService{
		trade: func(_ context.Context, owner, symbol string, shares int) (*models.Portfolio, error) {
			gotSymbol, gotShares = symbol, shares
			return &models.Portfolio{Owner: owner}, nil
		},
	}
	s, _ := newTestServer(t, svc)

	rec := serve(s, http.MethodPut, "/api/portfolios/alice?symbol=IBM&shares=-10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "IBM", gotSymbol)
	assert.Equal(t, -10, gotShares)
}

func TestHandlePortfolio_TradeBadQuery(t *testing.T) {
	s, _ := newTestServer(t, &mockPortfolioService{})

	for _, target := range []string{
		"/api/portfolios/alice?shares=10",
		"/api/portfolios/alice?symbol=IBM",
		"/api/portfolios/alice?symbol=IBM&shares=ten",
	} {
		rec := serve(s, http.MethodPut, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandlePortfolio_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("portfolio bob: %w", common.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("owner: %w", common.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("portfolio alice: %w", common.ErrConflict), http.StatusConflict},
		{fmt.Errorf("returns: %w", common.ErrUpstream), http.StatusBadGateway},
		{fmt.Errorf("save: %w", common.ErrPersistence), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		svc := &mockPortfolioService{
			value: func(context.Context, string) (*models.Portfolio, error) { return nil, tc.err },
		}
		s, _ := newTestServer(t, svc)

		rec := serve(s, http.MethodGet, "/api/portfolios/bob", "")
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}

func TestHandlePortfolio_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, &mockPortfolioService{})

	rec := serve(s, http.MethodPatch, "/api/portfolios/alice", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Allow"))
}

func TestHandlePortfolio_UnknownSubpath(t *testing.T) {
	s, _ := newTestServer(t, &mockPortfolioService{})

	rec := serve(s, http.MethodGet, "/api/portfolios/alice/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePortfolioFeedback(t *testing.T) {
	var gotText string
	svc := &mockPortfolioService{
		feedback: func(_ context.Context, _ string, text string) (*models.Feedback, error) {
			gotText = text
			return &models.Feedback{Message: "sorry", Free: 3, Sentiment: models.SentimentAnger}, nil
		},
	}
	s, _ := newTestServer(t, svc)

	rec := serve(s, http.MethodPost, "/api/portfolios/alice/feedback", `{"text":"this is terrible"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "this is terrible", gotText)

	var fb models.Feedback
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&fb))
	assert.Equal(t, 3, fb.Free)
	assert.Equal(t, models.SentimentAnger, fb.Sentiment)

	rec = serve(s, http.MethodPost, "/api/portfolios/alice/feedback", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePortfolioReturns(t *testing.T) {
	svc := &mockPortfolioService{
		returns: func(_ context.Context, owner string) (string, error) {
			if owner == "bob" {
				return "", fmt.Errorf("history: %w", common.ErrUpstream)
			}
			return "12.5%", nil
		},
	}
	s, _ := newTestServer(t, svc)

	rec := serve(s, http.MethodGet, "/api/portfolios/alice/returns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12.5%", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))

	rec = serve(s, http.MethodGet, "/api/portfolios/bob/returns", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s, a := newTestServer(t, &mockPortfolioService{})

	rec := serve(s, http.MethodGet, "/api/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, http.MethodGet, "/api/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	for i := 0; i < common.DefaultLivenessThreshold; i++ {
		a.Health.Failure()
	}
	rec = serve(s, http.MethodGet, "/api/health/live", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"down"`)

	a.Health.Success()
	rec = serve(s, http.MethodGet, "/api/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthReady_StoreDown(t *testing.T) {
	s, a := newTestServer(t, &mockPortfolioService{})
	a.Store = &pingStore{Store: memory.NewStore(a.Logger), err: errors.New("connection refused")}

	rec := serve(s, http.MethodGet, "/api/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleVersion(t *testing.T) {
	s, _ := newTestServer(t, &mockPortfolioService{})

	rec := serve(s, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info common.VersionInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, common.GetVersion(), info.Version)
	assert.Equal(t, "portfolio", info.Service)
}

func TestHandleShutdown(t *testing.T) {
	s, a := newTestServer(t, &mockPortfolioService{})
	ch := make(chan struct{}, 1)
	s.SetShutdownChannel(ch)

	rec := serve(s, http.MethodPost, "/api/shutdown", "")
	require.Equal(t, http.StatusOK, rec.Code)
	<-ch

	a.Config.Environment = "production"
	rec = serve(s, http.MethodPost, "/api/shutdown", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

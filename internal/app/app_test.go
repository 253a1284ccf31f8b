package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/models"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()

	quotes := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"IBM","price":100.0,"date":"2026-10-14"}`))
	}))
	t.Cleanup(quotes.Close)

	rules := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"theLoyaltyDecision":{"tradeTotal":1000,"loyalty":"Bronze"}}`))
	}))
	t.Cleanup(rules.Close)

	config := common.NewDefaultConfig()
	config.Storage.Backend = "memory"
	config.Clients.StockQuote.BaseURL = quotes.URL
	config.Clients.ODM.BaseURL = rules.URL
	config.Clients.TradeHistory.BaseURL = ""
	config.Clients.Gemini.APIKey = ""
	config.Notify.Redis.Address = ""
	config.Notify.Kafka.Address = ""
	return config
}

func TestNewAppWithConfig_MemoryBackend(t *testing.T) {
	ctx := context.Background()
	a, err := NewAppWithConfig(ctx, testConfig(t), common.NewSilentLogger())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Store)
	require.NotNil(t, a.PortfolioService)
	assert.True(t, a.Health.Alive())
	assert.Nil(t, a.redisClient)
	assert.Nil(t, a.tradeLog)

	_, err = a.PortfolioService.CreatePortfolio(ctx, "alice")
	require.NoError(t, err)

	p, err := a.PortfolioService.ExecuteTrade(ctx, "alice", "ibm", 10)
	require.NoError(t, err)
	require.Len(t, p.Holdings, 1)
	assert.Equal(t, "IBM", p.Holdings[0].Symbol)
	assert.InDelta(t, 1000.0, p.Total, 0.001)
	assert.Equal(t, models.TierBronze, p.Loyalty)

	// Returns are unavailable without a trade history endpoint
	_, err = a.PortfolioService.GetReturns(ctx, "alice")
	assert.ErrorIs(t, err, common.ErrUpstream)

	fb, err := a.PortfolioService.SubmitFeedback(ctx, "alice", "great service")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentUnknown, fb.Sentiment)
	assert.Equal(t, 0, fb.Free)
}

func TestNewAppWithConfig_UnknownBackend(t *testing.T) {
	config := testConfig(t)
	config.Storage.Backend = "cassandra"

	_, err := NewAppWithConfig(context.Background(), config, common.NewSilentLogger())
	assert.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	a, err := NewAppWithConfig(context.Background(), testConfig(t), common.NewSilentLogger())
	require.NoError(t, err)

	a.Close()
	a.Close()
	assert.Nil(t, a.Store)
}

func TestResolveConfigPaths(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		t.Setenv("STOCKTRADER_CONFIG", "/etc/from-env.toml")
		assert.Equal(t, []string{"/tmp/explicit.toml"}, ResolveConfigPaths("/tmp/explicit.toml"))
	})

	t.Run("environment variable", func(t *testing.T) {
		t.Setenv("STOCKTRADER_CONFIG", "/etc/from-env.toml")
		assert.Equal(t, []string{"/etc/from-env.toml"}, ResolveConfigPaths(""))
	})

	t.Run("default resolution", func(t *testing.T) {
		t.Setenv("STOCKTRADER_CONFIG", "")
		paths := ResolveConfigPaths("")
		require.Len(t, paths, 1)
		assert.Equal(t, "stocktrader.toml", filepath.Base(paths[0]))
	})
}

func TestNewApp_LoadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stocktrader.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
backend = "memory"

[portfolio]
initial_balance = 75.0

[logging]
level = "disabled"
`), 0o644))

	a, err := NewApp(context.Background(), path)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 75.0, a.Config.Portfolio.InitialBalance)
}

package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/stocktrader/internal/common"
)

func TestNewServer_AddrAndTimeouts(t *testing.T) {
	s, a := newTestServer(t, &mockPortfolioService{})

	assert.Equal(t, "0.0.0.0:9080", s.Addr())
	assert.Equal(t, readHeaderTimeout, s.server.ReadHeaderTimeout)
	assert.Equal(t, readTimeout, s.server.ReadTimeout)
	assert.Equal(t, idleTimeout, s.server.IdleTimeout)
	assert.Equal(t, writeTimeout(a.Config), s.server.WriteTimeout)
}

func TestWriteTimeout_FollowsSlowestClient(t *testing.T) {
	cases := []struct {
		name    string
		gemini  string
		history string
		want    time.Duration
	}{
		{"defaults stay at the floor", "15s", "10s", minWriteTimeout},
		{"slow sentiment client", "30s", "10s", 120 * time.Second},
		{"slow history client", "15s", "45s", 180 * time.Second},
		{"unparseable falls back to defaults", "soon", "later", minWriteTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := common.NewDefaultConfig()
			config.Clients.Gemini.Timeout = tc.gemini
			config.Clients.TradeHistory.Timeout = tc.history
			assert.Equal(t, tc.want, writeTimeout(config))
		})
	}
}

// Package tradehistory provides a client for the trade history service
package tradehistory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
)

const (
	DefaultBaseURL   = "http://trade-history-service:9080/trade-history"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 10

	maxBodyBytes = 64 * 1024
	opGetReturns = "tradehistory.GetReturns"
)

// Client implements the TradeHistoryClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new trade history client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetReturns returns the service's return-on-investment text for owner,
// given the portfolio's current value.
func (c *Client) GetReturns(ctx context.Context, authToken, owner string, currentValue float64) (string, error) {
	if c.baseURL == "" {
		return "", common.NewFailure(common.FailureUnconfigured, opGetReturns, nil)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", common.TransportFailure(opGetReturns, fmt.Errorf("rate limit wait: %w", err))
	}

	params := url.Values{}
	params.Set("currentValue", strconv.FormatFloat(currentValue, 'f', -1, 64))
	reqURL := fmt.Sprintf("%s/returns/%s?%s", c.baseURL, url.PathEscape(owner), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", common.NewFailure(common.FailureUnconfigured, opGetReturns, fmt.Errorf("failed to create request: %w", err))
	}
	if authToken != "" {
		req.Header.Set("Authorization", authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", common.TransportFailure(opGetReturns, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", common.NewFailure(common.FailureRejected, opGetReturns, fmt.Errorf("status %d for owner %s", resp.StatusCode, owner))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", common.TransportFailure(opGetReturns, err)
	}

	c.logger.Debug().Str("owner", owner).Float64("current_value", currentValue).Msg("Trade history returns call")

	return strings.TrimSpace(string(body)), nil
}

// Ensure Client implements TradeHistoryClient
var _ interfaces.TradeHistoryClient = (*Client)(nil)

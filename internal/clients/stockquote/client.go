// Package stockquote provides a client for the stock quote service
package stockquote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
	"github.com/bobmcallan/stocktrader/internal/models"
)

const (
	DefaultBaseURL   = "http://stock-quote-service:9080/stock-quote"
	DefaultTimeout   = 5 * time.Second
	DefaultRateLimit = 20 // requests per second

	opGetQuote = "stockquote.GetQuote"
)

// Client implements the QuoteClient interface
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

// NewClient creates a new stock quote client
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

// GetQuote retrieves the current price for symbol.
// Every failure is returned as a *common.Failure.
func (c *Client) GetQuote(ctx context.Context, authToken, symbol string) (*models.Quote, error) {
	if c.baseURL == "" {
		return nil, common.NewFailure(common.FailureUnconfigured, opGetQuote, nil)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, common.TransportFailure(opGetQuote, fmt.Errorf("rate limit wait: %w", err))
	}

	reqURL := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, common.NewFailure(common.FailureUnconfigured, opGetQuote, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", authToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Debug().Err(err).Str("symbol", symbol).Dur("elapsed", elapsed).Msg("Stock quote request failed")
		return nil, common.TransportFailure(opGetQuote, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().Str("symbol", symbol).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("Stock quote non-OK response")
		return nil, common.NewFailure(common.FailureRejected, opGetQuote, fmt.Errorf("status %d for symbol %s", resp.StatusCode, symbol))
	}

	var quote models.Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, common.NewFailure(common.FailureMalformed, opGetQuote, fmt.Errorf("failed to decode response: %w", err))
	}
	if quote.Price <= 0 {
		return nil, common.NewFailure(common.FailureMalformed, opGetQuote, fmt.Errorf("non-positive price %v for symbol %s", quote.Price, symbol))
	}
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}

	c.logger.Debug().Str("symbol", symbol).Float64("price", quote.Price).Dur("elapsed", elapsed).Msg("Stock quote call")

	return &quote, nil
}

// Ensure Client implements QuoteClient
var _ interfaces.QuoteClient = (*Client)(nil)

// Package odm provides a client for the loyalty-level business rule service
package odm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
)

const (
	DefaultTimeout   = 5 * time.Second
	DefaultRateLimit = 10 // requests per second

	opEvaluateTier = "odm.EvaluateTier"
)

// Client implements the LoyaltyRuleClient interface against a decision
// service that accepts HTTP basic auth.
type Client struct {
	url        string
	id         string
	password   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithCredentials sets the basic-auth credentials
func WithCredentials(id, password string) ClientOption {
	return func(c *Client) {
		c.id = id
		c.password = password
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

// NewClient creates a decision service client posting to url
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url: url,
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

// loyaltyDecision is the rule's request and response envelope.
type loyaltyDecision struct {
	TheLoyaltyDecision struct {
		TradeTotal float64 `json:"tradeTotal"`
		Loyalty    string  `json:"loyalty,omitempty"`
	} `json:"theLoyaltyDecision"`
}

// EvaluateTier asks the rule service for the loyalty label matching total.
// The caller's auth token is not forwarded; the service uses its own credentials.
func (c *Client) EvaluateTier(ctx context.Context, _ string, total float64) (string, error) {
	if c.url == "" {
		return "", common.NewFailure(common.FailureUnconfigured, opEvaluateTier, nil)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", common.TransportFailure(opEvaluateTier, fmt.Errorf("rate limit wait: %w", err))
	}

	var in loyaltyDecision
	in.TheLoyaltyDecision.TradeTotal = total
	body, err := json.Marshal(in)
	if err != nil {
		return "", common.NewFailure(common.FailureMalformed, opEvaluateTier, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", common.NewFailure(common.FailureUnconfigured, opEvaluateTier, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.id != "" {
		req.SetBasicAuth(c.id, c.password)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return "", common.TransportFailure(opEvaluateTier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", common.NewFailure(common.FailureRejected, opEvaluateTier, fmt.Errorf("status %d", resp.StatusCode))
	}

	var out loyaltyDecision
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", common.NewFailure(common.FailureMalformed, opEvaluateTier, fmt.Errorf("failed to decode response: %w", err))
	}
	label := strings.TrimSpace(out.TheLoyaltyDecision.Loyalty)
	if label == "" {
		return "", common.NewFailure(common.FailureMalformed, opEvaluateTier, fmt.Errorf("empty loyalty in response"))
	}

	c.logger.Debug().Float64("total", total).Str("loyalty", label).Dur("elapsed", elapsed).Msg("Loyalty rule call")

	return label, nil
}

// Ensure Client implements LoyaltyRuleClient
var _ interfaces.LoyaltyRuleClient = (*Client)(nil)

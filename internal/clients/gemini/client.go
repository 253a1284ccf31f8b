// Package gemini provides a sentiment analyzer backed by the Google Gemini API
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
)

const (
	DefaultModel = "gemini-2.0-flash"

	opAnalyze = "gemini.Analyze"
)

// Emotions the analyzer may return. Anything else is reported as malformed.
var Emotions = []string{"Anger", "Disgust", "Fear", "Joy", "Sadness", "Analytical", "Confident", "Tentative"}

// contentGenerator is the subset of the genai models API used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements the SentimentClient interface
type Client struct {
	models contentGenerator
	model  string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini sentiment client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newClient(genaiClient.Models, opts...), nil
}

func newClient(models contentGenerator, opts ...ClientOption) *Client {
	c := &Client{
		models: models,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze returns the dominant emotion of text as one of Emotions.
func (c *Client) Analyze(ctx context.Context, _ string, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", common.NewFailure(common.FailureRejected, opAnalyze, fmt.Errorf("empty feedback text"))
	}

	temperature := float32(0)
	config := &genai.GenerateContentConfig{Temperature: &temperature}

	result, err := c.models.GenerateContent(ctx, c.model, genai.Text(buildPrompt(text)), config)
	if err != nil {
		return "", common.TransportFailure(opAnalyze, err)
	}

	raw, err := extractTextFromResponse(result)
	if err != nil {
		return "", common.NewFailure(common.FailureMalformed, opAnalyze, err)
	}

	emotion, ok := matchEmotion(raw)
	if !ok {
		return "", common.NewFailure(common.FailureMalformed, opAnalyze, fmt.Errorf("unrecognised emotion %q", raw))
	}

	c.logger.Debug().Str("model", c.model).Str("sentiment", emotion).Msg("Feedback sentiment analyzed")
	return emotion, nil
}

func buildPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Classify the dominant emotional tone of the customer feedback below.\n")
	sb.WriteString("Answer with exactly one word from this list: ")
	sb.WriteString(strings.Join(Emotions, ", "))
	sb.WriteString(".\n\nFeedback:\n")
	sb.WriteString(text)
	return sb.String()
}

// matchEmotion finds the label in the model's answer, ignoring case and punctuation.
func matchEmotion(raw string) (string, bool) {
	word := strings.Trim(strings.TrimSpace(raw), ".!\"'`*")
	for _, e := range Emotions {
		if strings.EqualFold(word, e) {
			return e, true
		}
	}
	return "", false
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// Ensure Client implements SentimentClient
var _ interfaces.SentimentClient = (*Client)(nil)

package models

// Sentiment labels with special handling when granting free trades.
const (
	SentimentAnger   = "Anger"
	SentimentUnknown = DefaultSentiment
)

// Feedback is the outcome of submitting free-text feedback on a portfolio.
type Feedback struct {
	Message   string `json:"message"`
	Free      int    `json:"free"`
	Sentiment string `json:"sentiment"`
}

// FeedbackRequest is the body accepted when submitting feedback.
type FeedbackRequest struct {
	Text string `json:"text"`
}

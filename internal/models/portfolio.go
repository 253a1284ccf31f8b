// Package models defines data structures for the portfolio service
package models

import "time"

// PriceUnavailable marks a holding whose price could not be established,
// neither from a live quote nor from a previously stored value. Holdings
// carrying it are excluded from the portfolio total.
const PriceUnavailable = -1.0

// DateFormat is the layout used for quote dates.
const DateFormat = "2006-01-02"

// Portfolio is one user's holdings plus loyalty and commission bookkeeping.
type Portfolio struct {
	Owner          string     `json:"owner"`
	Total          float64    `json:"total"`
	Loyalty        Tier       `json:"loyalty"`
	Balance        float64    `json:"balance"`
	Commissions    float64    `json:"commissions"`
	Free           int        `json:"free"`
	Sentiment      string     `json:"sentiment"`
	NextCommission float64    `json:"nextCommission"`
	Holdings       []*Holding `json:"stocks"`
	Version        int64      `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Holding is the position an owner has in one symbol.
type Holding struct {
	Symbol     string  `json:"symbol"`
	Shares     int     `json:"shares"`
	Price      float64 `json:"price"`
	Date       string  `json:"date"`
	Total      float64 `json:"total"`
	Commission float64 `json:"commission"`
}

// Quote is a point-in-time price returned by the quote source.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Date   string  `json:"date"`
}

// DefaultSentiment is the sentiment of a portfolio that has not received feedback.
const DefaultSentiment = "Unknown"

// Holding returns the holding for symbol, or nil.
func (p *Portfolio) Holding(symbol string) *Holding {
	for _, h := range p.Holdings {
		if h.Symbol == symbol {
			return h
		}
	}
	return nil
}

// RemoveHolding drops the holding for symbol, preserving the order of the rest.
func (p *Portfolio) RemoveHolding(symbol string) {
	kept := p.Holdings[:0]
	for _, h := range p.Holdings {
		if h.Symbol != symbol {
			kept = append(kept, h)
		}
	}
	p.Holdings = kept
}

// Clone returns a deep copy so a caller can mutate it without touching shared state.
func (p *Portfolio) Clone() *Portfolio {
	if p == nil {
		return nil
	}
	c := *p
	c.Holdings = make([]*Holding, len(p.Holdings))
	for i, h := range p.Holdings {
		hc := *h
		c.Holdings[i] = &hc
	}
	return &c
}

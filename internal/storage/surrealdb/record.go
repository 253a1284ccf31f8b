package surrealdb

import (
	"time"

	"github.com/bobmcallan/stocktrader/internal/models"
)

// portfolioRecord is the SurrealDB record shape for the portfolio table.
// Holdings are embedded so a trade commits as a single record write.
type portfolioRecord struct {
	Owner          string          `json:"owner"`
	Total          float64         `json:"total"`
	Loyalty        string          `json:"loyalty"`
	Balance        float64         `json:"balance"`
	Commissions    float64         `json:"commissions"`
	Free           int             `json:"free"`
	Sentiment      string          `json:"sentiment"`
	NextCommission float64         `json:"next_commission"`
	Holdings       []holdingRecord `json:"holdings"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type holdingRecord struct {
	Symbol     string  `json:"symbol"`
	Shares     int     `json:"shares"`
	Price      float64 `json:"price"`
	Date       string  `json:"date"`
	Total      float64 `json:"total"`
	Commission float64 `json:"commission"`
}

func toRecord(p *models.Portfolio) *portfolioRecord {
	r := &portfolioRecord{
		Owner:          p.Owner,
		Total:          p.Total,
		Loyalty:        p.Loyalty.String(),
		Balance:        p.Balance,
		Commissions:    p.Commissions,
		Free:           p.Free,
		Sentiment:      p.Sentiment,
		NextCommission: p.NextCommission,
		Holdings:       make([]holdingRecord, 0, len(p.Holdings)),
		Version:        p.Version,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	for _, h := range p.Holdings {
		r.Holdings = append(r.Holdings, holdingRecord(*h))
	}
	return r
}

func (r *portfolioRecord) toModel() *models.Portfolio {
	tier, _ := models.ParseTier(r.Loyalty) // an unrecognised label reads back as unset
	p := &models.Portfolio{
		Owner:          r.Owner,
		Total:          r.Total,
		Loyalty:        tier,
		Balance:        r.Balance,
		Commissions:    r.Commissions,
		Free:           r.Free,
		Sentiment:      r.Sentiment,
		NextCommission: r.NextCommission,
		Holdings:       make([]*models.Holding, 0, len(r.Holdings)),
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	for _, h := range r.Holdings {
		m := models.Holding(h)
		p.Holdings = append(p.Holdings, &m)
	}
	return p
}

package models

// LoyaltyChange announces that an owner moved between loyalty tiers.
type LoyaltyChange struct {
	Owner string `json:"owner"`
	Old   Tier   `json:"old"`
	New   Tier   `json:"new"`
	ID    string `json:"id"` // acting user, empty when anonymous
}

// StockPurchase records an executed trade on the trade-event log.
type StockPurchase struct {
	ID         string  `json:"id"`
	Owner      string  `json:"owner"`
	Symbol     string  `json:"symbol"`
	Shares     int     `json:"shares"`
	Price      float64 `json:"price"`
	When       string  `json:"when"`
	Commission float64 `json:"commission"`
}

// TradeTimeFormat is the layout of StockPurchase.When.
const TradeTimeFormat = "2006-01-02 15:04:05.000"

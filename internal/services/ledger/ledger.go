// Package ledger applies commission and free-trade bookkeeping to portfolios.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stocktrader/internal/models"
)

// DefaultCommission applies to unset or unrecognised tiers.
var DefaultCommission = decimal.RequireFromString("9.99")

var commissionRates = map[models.Tier]decimal.Decimal{
	models.TierBasic:    decimal.RequireFromString("9.99"),
	models.TierBronze:   decimal.RequireFromString("8.99"),
	models.TierSilver:   decimal.RequireFromString("7.99"),
	models.TierGold:     decimal.RequireFromString("6.99"),
	models.TierPlatinum: decimal.RequireFromString("5.99"),
}

func rate(t models.Tier) decimal.Decimal {
	if r, ok := commissionRates[t]; ok {
		return r
	}
	return DefaultCommission
}

// Rate returns the per-trade commission for a tier.
func Rate(t models.Tier) float64 {
	return rate(t).InexactFloat64()
}

// Charge bills one trade against p using its current tier. A free trade is
// consumed if any remain, leaving balance and commissions untouched;
// otherwise the tier rate is added to commissions and taken from the
// balance. It returns the commission charged.
func Charge(p *models.Portfolio) float64 {
	if p.Free > 0 {
		p.Free--
		return 0
	}

	r := rate(p.Loyalty)
	p.Commissions = decimal.NewFromFloat(p.Commissions).Add(r).Round(2).InexactFloat64()
	p.Balance = decimal.NewFromFloat(p.Balance).Sub(r).Round(2).InexactFloat64()
	return r.InexactFloat64()
}

// NextCommission is what the next trade would cost.
func NextCommission(p *models.Portfolio) float64 {
	if p.Free > 0 {
		return 0
	}
	return Rate(p.Loyalty)
}

// Add sums two amounts without binary float drift.
func Add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

// Total returns shares multiplied by price. The product is not rounded, so
// sub-cent prices keep their value.
func Total(shares int, price float64) float64 {
	return decimal.NewFromInt(int64(shares)).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}

// Sum adds the totals of holdings with a known price, skipping the sentinel.
func Sum(holdings []*models.Holding) float64 {
	sum := decimal.Zero
	for _, h := range holdings {
		if h.Price == models.PriceUnavailable || h.Total == models.PriceUnavailable {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(h.Total))
	}
	return sum.InexactFloat64()
}

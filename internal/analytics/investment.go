package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-store-go/internal/domain"
)

// InvestmentGain values one position: value = currentPrice*quantity,
// cost = purchasePrice*quantity, gainPct = (value/cost - 1)*100 or zero
// when cost is zero.
func InvestmentGain(inv domain.Investment) domain.Gain {
	qty := dec(inv.Quantity)
	value := dec(inv.CurrentPrice).Mul(qty)
	cost := dec(inv.PurchasePrice).Mul(qty)
	return domain.Gain{
		Value:   value,
		Cost:    cost,
		Gain:    value.Sub(cost),
		GainPct: gainPct(value, cost),
	}
}

// PortfolioTotals sums the valuation of every investment.
func PortfolioTotals(investments []domain.Investment) domain.Portfolio {
	p := domain.Portfolio{Value: decimal.Zero, Cost: decimal.Zero, Count: len(investments)}
	for _, inv := range investments {
		g := InvestmentGain(inv)
		p.Value = p.Value.Add(g.Value)
		p.Cost = p.Cost.Add(g.Cost)
	}
	p.Gain = p.Value.Sub(p.Cost)
	p.GainPct = gainPct(p.Value, p.Cost)
	return p
}

func gainPct(value, cost decimal.Decimal) decimal.Decimal {
	if cost.IsZero() {
		return decimal.Zero
	}
	return value.Div(cost).Sub(decimal.NewFromInt(1)).Mul(hundred).Round(pctPlaces)
}

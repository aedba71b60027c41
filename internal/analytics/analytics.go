// Package analytics derives read-only views from collection snapshots:
// balances, budget progress, investment gains, goal completion and
// transaction series. Functions are pure and deterministic; money is summed
// with shopspring/decimal, and every division by zero yields zero.
package analytics

import (
	"github.com/shopspring/decimal"
)

// pctPlaces is the precision of every percentage returned.
const pctPlaces = 2

var hundred = decimal.NewFromInt(100)

// dec converts a stored amount. Stored amounts are validated multiples of
// 0.01 (or 1e-8 for quantities), so the shortest decimal form is exact.
func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// ratio returns num/den, or zero when den is zero.
func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// percent returns num/den*100 rounded to pctPlaces, or zero when den is zero.
func percent(num, den decimal.Decimal) decimal.Decimal {
	return ratio(num, den).Mul(hundred).Round(pctPlaces)
}

// Package money formats decimal amounts for display using per-currency
// minor units and symbols from go-money. Arithmetic stays in decimal.
package money

import (
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// defaultFraction is used for codes go-money does not know.
const defaultFraction = 2

// Fraction returns the number of minor-unit digits for a currency code.
func Fraction(code string) int {
	if cur := gomoney.GetCurrency(strings.ToUpper(code)); cur != nil {
		return cur.Fraction
	}
	return defaultFraction
}

// Round rounds amount to the currency's minor unit.
func Round(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(int32(Fraction(code)))
}

// Format renders amount with the currency's symbol, separators and minor
// units, e.g. "$1,234.50" or "¥1,234". Unknown codes render as "12.30 XYZ".
func Format(amount decimal.Decimal, code string) string {
	cur := gomoney.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		return amount.StringFixed(defaultFraction) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// FormatFloat formats a stored float amount.
func FormatFloat(amount float64, code string) string {
	return Format(decimal.NewFromFloat(amount), code)
}

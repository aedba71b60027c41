package money_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-store-go/internal/money"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		amount string
		code   string
		want   string
	}{
		{"1234.5", "USD", "$1,234.50"},
		{"-25.5", "USD", "-$25.50"},
		{"0", "USD", "$0.00"},
		{"1234", "JPY", "¥1,234"},
		{"12.3", "XYZ", "12.30 XYZ"},
	}
	for _, tt := range tests {
		t.Run(tt.code+" "+tt.amount, func(t *testing.T) {
			got := money.Format(decimal.RequireFromString(tt.amount), tt.code)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRound(t *testing.T) {
	if got := money.Round(decimal.RequireFromString("10.005"), "USD"); !got.Equal(decimal.RequireFromString("10.01")) {
		t.Errorf("expected 10.01, got %s", got)
	}
	if got := money.Round(decimal.RequireFromString("10.5"), "JPY"); !got.Equal(decimal.RequireFromString("11")) {
		t.Errorf("expected 11, got %s", got)
	}
}

func TestFraction(t *testing.T) {
	if money.Fraction("usd") != 2 || money.Fraction("JPY") != 0 || money.Fraction("???") != 2 {
		t.Error("unexpected fraction digits")
	}
}

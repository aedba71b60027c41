package domain

// ============================================================
// Investments
// ============================================================

// InvestmentType classifies a holding.
type InvestmentType string

const (
	InvestmentStock  InvestmentType = "stock"
	InvestmentBond   InvestmentType = "bond"
	InvestmentCrypto InvestmentType = "crypto"
	InvestmentOther  InvestmentType = "other"
)

// Investment is a position bought at PurchasePrice and marked at CurrentPrice.
type Investment struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Type          InvestmentType `json:"type"`
	Symbol        string         `json:"symbol"`
	Quantity      float64        `json:"quantity"`
	PurchasePrice float64        `json:"purchasePrice"`
	CurrentPrice  float64        `json:"currentPrice"`
	Currency      string         `json:"currency"`
	PurchaseDate  int64          `json:"purchaseDate"`
	CreatedAt     int64          `json:"createdAt"`
	UpdatedAt     int64          `json:"updatedAt"`
}

package domain

// ============================================================
// Accounts
// ============================================================

// AccountType classifies an account.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
	AccountOther      AccountType = "other"
)

// Account is a place money is held. Balance is the authoritative running
// total: it changes through explicit edits or transaction posting and is
// never recomputed from history.
type Account struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        AccountType `json:"type"`
	Balance     float64     `json:"balance"`
	Currency    string      `json:"currency"`
	Institution string      `json:"institution,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	CreatedAt   int64       `json:"createdAt"`
	UpdatedAt   int64       `json:"updatedAt"`
}

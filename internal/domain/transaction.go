package domain

// ============================================================
// Transactions
// ============================================================

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionTransfer TransactionType = "transfer"
)

// Transaction records money moving in or out of an account.
// Amount is always non-negative; Type carries the sign.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Date        int64           `json:"date"` // epoch ms
	CreatedAt   int64           `json:"createdAt"`
	UpdatedAt   int64           `json:"updatedAt"`
}

// IsOutflow reports whether the transaction reduces the account balance.
// Transfers leave the account they are recorded against.
func (t Transaction) IsOutflow() bool {
	return t.Type != TransactionIncome
}

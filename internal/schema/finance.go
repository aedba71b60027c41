package schema

import "github.com/boddenberg/finance-store-go/internal/domain"

// Bounds shared by the finance descriptors.
const (
	MaxAmount    = 1_000_000_000
	MaxTimestamp = 9_999_999_999_999
	MoneyStep    = 0.01
	QuantityStep = 0.00000001
)

func idProperty() Property {
	return Property{Type: TypeString, MaxLength: intp(100), Pattern: `^[a-zA-Z0-9-_]+$`}
}

func nameProperty() Property {
	return Property{Type: TypeString, MinLength: intp(1), MaxLength: intp(100)}
}

func textProperty(max int) Property {
	return Property{Type: TypeString, MaxLength: intp(max)}
}

func enumProperty(values ...string) Property {
	return Property{Type: TypeString, Enum: values, MaxLength: intp(20)}
}

func currencyProperty() Property {
	return Property{Type: TypeString, MinLength: intp(3), MaxLength: intp(3), Pattern: `^[A-Z]{3}$`}
}

func amountProperty(min float64) Property {
	return Property{Type: TypeNumber, Minimum: floatp(min), Maximum: floatp(MaxAmount), MultipleOf: MoneyStep}
}

func timestampProperty() Property {
	return Property{Type: TypeNumber, Minimum: floatp(0), Maximum: floatp(MaxTimestamp), MultipleOf: 1}
}

// Account describes domain.Account.
func Account() Descriptor {
	return Descriptor{
		Name:       domain.CollectionAccounts,
		PrimaryKey: "id",
		Properties: map[string]Property{
			"id":          idProperty(),
			"name":        nameProperty(),
			"type":        enumProperty("checking", "savings", "credit", "investment", "other"),
			"balance":     amountProperty(-MaxAmount),
			"currency":    currencyProperty(),
			"institution": textProperty(100),
			"notes":       textProperty(500),
			"createdAt":   timestampProperty(),
			"updatedAt":   timestampProperty(),
		},
		Required: []string{"id", "name", "type", "balance", "currency"},
		Indexes:  []string{"type", "createdAt"},
	}
}

// Transaction describes domain.Transaction.
func Transaction() Descriptor {
	accountID := textProperty(100)
	accountID.Ref = domain.CollectionAccounts
	return Descriptor{
		Name:       domain.CollectionTransactions,
		PrimaryKey: "id",
		Properties: map[string]Property{
			"id":          idProperty(),
			"accountId":   accountID,
			"type":        enumProperty("income", "expense", "transfer"),
			"amount":      amountProperty(0),
			"currency":    currencyProperty(),
			"description": textProperty(500),
			"category":    textProperty(100),
			"date":        timestampProperty(),
			"createdAt":   timestampProperty(),
			"updatedAt":   timestampProperty(),
		},
		Required: []string{"id", "accountId", "type", "amount", "currency", "date"},
		Indexes:  []string{"accountId", "type", "date"},
	}
}

// Budget describes domain.Budget.
func Budget() Descriptor {
	return Descriptor{
		Name:       domain.CollectionBudgets,
		PrimaryKey: "id",
		Properties: map[string]Property{
			"id":        idProperty(),
			"name":      nameProperty(),
			"amount":    amountProperty(0),
			"currency":  currencyProperty(),
			"period":    enumProperty("daily", "weekly", "monthly", "yearly"),
			"category":  textProperty(100),
			"startDate": timestampProperty(),
			"endDate":   timestampProperty(),
			"createdAt": timestampProperty(),
			"updatedAt": timestampProperty(),
		},
		Required:    []string{"id", "name", "amount", "currency", "period", "startDate", "endDate"},
		Indexes:     []string{"period", "category"},
		Comparisons: []Comparison{{Left: "startDate", Op: OpLess, Right: "endDate"}},
	}
}

// Investment describes domain.Investment.
func Investment() Descriptor {
	return Descriptor{
		Name:       domain.CollectionInvestments,
		PrimaryKey: "id",
		Properties: map[string]Property{
			"id":            idProperty(),
			"name":          nameProperty(),
			"type":          enumProperty("stock", "bond", "crypto", "other"),
			"symbol":        textProperty(20),
			"quantity":      {Type: TypeNumber, Minimum: floatp(0), Maximum: floatp(MaxAmount), MultipleOf: QuantityStep},
			"purchasePrice": amountProperty(0),
			"currentPrice":  amountProperty(0),
			"currency":      currencyProperty(),
			"purchaseDate":  timestampProperty(),
			"createdAt":     timestampProperty(),
			"updatedAt":     timestampProperty(),
		},
		Required: []string{"id", "name", "type", "quantity", "purchasePrice", "currency", "purchaseDate"},
		Indexes:  []string{"type", "symbol"},
	}
}

// Goal describes domain.Goal.
func Goal() Descriptor {
	return Descriptor{
		Name:       domain.CollectionGoals,
		PrimaryKey: "id",
		Properties: map[string]Property{
			"id":            idProperty(),
			"name":          nameProperty(),
			"targetAmount":  amountProperty(0),
			"currentAmount": amountProperty(0),
			"currency":      currencyProperty(),
			"deadline":      timestampProperty(),
			"category":      enumProperty("savings", "debt", "investment", "purchase", "emergency", "retirement"),
			"priority":      {Type: TypeString, Enum: []string{"low", "medium", "high"}, MaxLength: intp(10)},
			"status":        enumProperty("not_started", "in_progress", "completed", "cancelled"),
			"notes":         textProperty(500),
			"createdAt":     timestampProperty(),
			"updatedAt":     timestampProperty(),
		},
		Required:    []string{"id", "name", "targetAmount", "currency", "deadline", "category", "priority"},
		Indexes:     []string{"status", "deadline", "category", "priority"},
		Comparisons: []Comparison{{Left: "currentAmount", Op: OpLessOrEqual, Right: "targetAmount"}},
	}
}

// Finance returns a registry with all five finance collections.
func Finance() *Registry {
	r := NewRegistry()
	for _, d := range []Descriptor{Account(), Transaction(), Budget(), Investment(), Goal()} {
		// names are distinct constants; Register cannot fail here
		_ = r.Register(d)
	}
	return r
}

package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/money"
	"github.com/boddenberg/finance-store-go/internal/schema"
	"github.com/boddenberg/finance-store-go/internal/store"
)

// ruleCurrency marks a transaction whose currency differs from its account.
const ruleCurrency = "currency"

// TransactionFilter narrows ListTransactions. Zero fields do not filter.
// Results are ordered by date, newest first.
type TransactionFilter struct {
	AccountID string
	Type      domain.TransactionType
	Category  string
	From      int64 // epoch ms, inclusive
	To        int64 // epoch ms, inclusive
	Limit     int
}

func (f TransactionFilter) query() store.Query {
	var where []store.Selector
	if f.AccountID != "" {
		where = append(where, store.Eq("accountId", f.AccountID))
	}
	if f.Type != "" {
		where = append(where, store.Eq("type", f.Type))
	}
	if f.Category != "" {
		where = append(where, store.Eq("category", f.Category))
	}
	if f.From > 0 {
		where = append(where, store.Gte("date", f.From))
	}
	if f.To > 0 {
		where = append(where, store.Lte("date", f.To))
	}
	q := store.Query{SortBy: "date", Desc: true, Limit: f.Limit}
	if len(where) > 0 {
		q.Where = store.And(where...)
	}
	return q
}

// ============================================================
// Transactions
// ============================================================

func (s *FinanceService) ListTransactions(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListTransactions")
	defer span.End()

	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return db.Transactions().Find(ctx, filter.query())
}

func (s *FinanceService) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	db, err := s.db()
	if err != nil {
		return domain.Transaction{}, err
	}
	return db.Transactions().FindByID(ctx, id)
}

// PostTransaction records tx and applies it to the account balance in one
// atomic write: income adds the amount, expense and transfer subtract it.
// An empty currency takes the account's; a different one is rejected.
func (s *FinanceService) PostTransaction(ctx context.Context, tx domain.Transaction) (domain.Posting, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.PostTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", tx.AccountID))

	db, err := s.db()
	if err != nil {
		return domain.Posting{}, err
	}

	var posting domain.Posting
	err = db.RunInTx(ctx, func(ctx context.Context) error {
		acct, err := s.postingAccount(ctx, db, tx.AccountID)
		if err != nil {
			return err
		}
		if tx.Currency == "" {
			tx.Currency = acct.Currency
		}
		if tx.Currency != acct.Currency {
			return invalid(domain.CollectionTransactions, "currency", ruleCurrency,
				"must match account currency "+acct.Currency)
		}

		created, err := db.Transactions().Insert(ctx, tx)
		if err != nil {
			return err
		}
		updated, err := adjustBalance(ctx, db, acct, balanceEffect(created))
		if err != nil {
			return err
		}
		posting = domain.Posting{Transaction: created, Account: updated}
		return nil
	})
	if err != nil {
		return domain.Posting{}, err
	}

	span.SetAttributes(attribute.String("transaction.id", posting.Transaction.ID))
	s.logger.Info("transaction posted",
		zap.String("transaction_id", posting.Transaction.ID),
		zap.String("account_id", posting.Account.ID),
		zap.String("type", string(posting.Transaction.Type)),
		zap.String("amount", money.FormatFloat(posting.Transaction.Amount, posting.Transaction.Currency)),
	)
	return posting, nil
}

// UpdateTransaction patches a posted transaction and moves its balance
// effect: the old effect is reversed on the old account and the new one
// applied to the (possibly different) new account, atomically.
func (s *FinanceService) UpdateTransaction(ctx context.Context, id string, fields store.Fields) (domain.Posting, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	db, err := s.db()
	if err != nil {
		return domain.Posting{}, err
	}

	var posting domain.Posting
	err = db.RunInTx(ctx, func(ctx context.Context) error {
		prev, err := db.Transactions().FindByID(ctx, id)
		if err != nil {
			return err
		}
		next, err := db.Transactions().Patch(ctx, id, fields)
		if err != nil {
			return err
		}

		oldAcct, err := db.Accounts().FindByID(ctx, prev.AccountID)
		if err != nil {
			return err
		}
		if _, err := adjustBalance(ctx, db, oldAcct, balanceEffect(prev).Neg()); err != nil {
			return err
		}

		newAcct, err := s.postingAccount(ctx, db, next.AccountID)
		if err != nil {
			return err
		}
		if next.Currency != newAcct.Currency {
			return invalid(domain.CollectionTransactions, "currency", ruleCurrency,
				"must match account currency "+newAcct.Currency)
		}
		updated, err := adjustBalance(ctx, db, newAcct, balanceEffect(next))
		if err != nil {
			return err
		}
		posting = domain.Posting{Transaction: next, Account: updated}
		return nil
	})
	if err != nil {
		return domain.Posting{}, err
	}
	return posting, nil
}

// VoidTransaction removes a transaction and reverses its balance effect
// atomically. It returns the account after the reversal.
func (s *FinanceService) VoidTransaction(ctx context.Context, id string) (domain.Account, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.VoidTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	db, err := s.db()
	if err != nil {
		return domain.Account{}, err
	}

	var acct domain.Account
	err = db.RunInTx(ctx, func(ctx context.Context) error {
		tx, err := db.Transactions().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := db.Transactions().Remove(ctx, id); err != nil {
			return err
		}
		owner, err := db.Accounts().FindByID(ctx, tx.AccountID)
		if err != nil {
			return err
		}
		acct, err = adjustBalance(ctx, db, owner, balanceEffect(tx).Neg())
		return err
	})
	if err != nil {
		return domain.Account{}, err
	}

	s.logger.Info("transaction voided",
		zap.String("transaction_id", id),
		zap.String("account_id", acct.ID),
	)
	return acct, nil
}

// postingAccount loads the account a transaction is posted against. A
// missing account is reported against the transaction's accountId.
func (s *FinanceService) postingAccount(ctx context.Context, db *store.Database, id string) (domain.Account, error) {
	if id == "" {
		return domain.Account{}, invalid(domain.CollectionTransactions, "accountId", schema.RuleRequired, "is required")
	}
	acct, err := db.Accounts().FindByID(ctx, id)
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return domain.Account{}, invalid(domain.CollectionTransactions, "accountId", schema.RuleRef,
			"references missing accounts record "+id)
	}
	return acct, err
}

// balanceEffect is the signed change a transaction makes to its account.
func balanceEffect(tx domain.Transaction) decimal.Decimal {
	amt := decimal.NewFromFloat(tx.Amount)
	if tx.IsOutflow() {
		return amt.Neg()
	}
	return amt
}

func adjustBalance(ctx context.Context, db *store.Database, acct domain.Account, delta decimal.Decimal) (domain.Account, error) {
	if delta.IsZero() {
		return acct, nil
	}
	balance := decimal.NewFromFloat(acct.Balance).Add(delta).Round(2)
	return db.Accounts().Patch(ctx, acct.ID, store.Fields{"balance": toFloat(balance)})
}

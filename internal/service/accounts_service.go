package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/store"
)

// ============================================================
// Accounts
// ============================================================

func (s *FinanceService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListAccounts")
	defer span.End()

	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return db.Accounts().Find(ctx, store.Query{SortBy: "name"})
}

func (s *FinanceService) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", id))

	db, err := s.db()
	if err != nil {
		return domain.Account{}, err
	}
	return db.Accounts().FindByID(ctx, id)
}

// CreateAccount stores a new account, filling the default currency when unset.
func (s *FinanceService) CreateAccount(ctx context.Context, acct domain.Account) (domain.Account, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateAccount")
	defer span.End()

	db, err := s.db()
	if err != nil {
		return domain.Account{}, err
	}
	if acct.Currency == "" {
		acct.Currency = s.settings.DefaultCurrency
	}
	created, err := db.Accounts().Insert(ctx, acct)
	if err != nil {
		return domain.Account{}, err
	}
	s.logger.Info("account created",
		zap.String("account_id", created.ID),
		zap.String("type", string(created.Type)),
	)
	return created, nil
}

func (s *FinanceService) UpdateAccount(ctx context.Context, id string, fields store.Fields) (domain.Account, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", id))

	db, err := s.db()
	if err != nil {
		return domain.Account{}, err
	}
	return db.Accounts().Patch(ctx, id, fields)
}

// CanDeleteAccount reports whether no transaction references the account.
func (s *FinanceService) CanDeleteAccount(ctx context.Context, id string) (bool, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CanDeleteAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", id))

	db, err := s.db()
	if err != nil {
		return false, err
	}
	return db.CanDeleteAccount(ctx, id)
}

// DeleteAccount removes an account that no transaction references.
// A referenced account yields *domain.ErrAccountInUse.
func (s *FinanceService) DeleteAccount(ctx context.Context, id string) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", id))

	db, err := s.db()
	if err != nil {
		return err
	}
	if err := db.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.String("account_id", id))
	return nil
}

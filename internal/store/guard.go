package store

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/schema"
)

// referenceCount counts records in other collections whose ref fields
// point at target/id.
func (e *engine) referenceCount(ctx context.Context, target, id string) (int, error) {
	total := 0
	for _, ref := range e.registry.Referrers(target) {
		d, _ := e.registry.Get(ref.Collection)
		docs, err := e.scan(ctx, ref.Collection, d.PrimaryKey)
		if err != nil {
			return 0, err
		}
		for _, doc := range docs {
			if v, _ := doc[ref.Field].(string); v == id {
				total++
			}
		}
	}
	return total, nil
}

func (e *engine) checkUnreferenced(ctx context.Context, collection, id string) error {
	n, err := e.referenceCount(ctx, collection, id)
	if err != nil || n == 0 {
		return err
	}
	if collection == domain.CollectionAccounts {
		return &domain.ErrAccountInUse{AccountID: id, Transactions: n}
	}
	d, _ := e.registry.Get(collection)
	return &domain.ErrValidation{
		Collection: collection,
		Violations: []domain.Violation{{
			Field:   d.PrimaryKey,
			Rule:    schema.RuleRef,
			Message: fmt.Sprintf("still referenced by %d record(s)", n),
		}},
	}
}

// CanDeleteAccount reports whether no transaction references the account.
// The check holds the writer gate, so it sees every committed write.
func (d *Database) CanDeleteAccount(ctx context.Context, accountID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Database.CanDeleteAccount",
		trace.WithAttributes(attribute.String("account_id", accountID)))
	defer span.End()

	var can bool
	err := d.eng.runInTx(ctx, func(ctx context.Context) error {
		_, ok, err := d.eng.get(ctx, domain.CollectionAccounts, accountID)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ErrNotFound{Collection: domain.CollectionAccounts, ID: accountID}
		}
		n, err := d.eng.referenceCount(ctx, domain.CollectionAccounts, accountID)
		if err != nil {
			return err
		}
		can = n == 0
		return nil
	})
	return can, err
}

// DeleteAccount removes the account unless transactions still reference it,
// in which case it fails with ErrAccountInUse and the account is kept. The
// check and the removal run in one transaction.
func (d *Database) DeleteAccount(ctx context.Context, accountID string) error {
	ctx, span := tracer.Start(ctx, "Database.DeleteAccount",
		trace.WithAttributes(attribute.String("account_id", accountID)))
	defer span.End()

	return d.eng.runInTx(ctx, func(ctx context.Context) error {
		can, err := d.CanDeleteAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if !can {
			n, err := d.eng.referenceCount(ctx, domain.CollectionAccounts, accountID)
			if err != nil {
				return err
			}
			return &domain.ErrAccountInUse{AccountID: accountID, Transactions: n}
		}
		return d.accounts.Remove(ctx, accountID)
	})
}

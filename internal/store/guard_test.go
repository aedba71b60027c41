package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/boddenberg/finance-store-go/internal/domain"
)

func TestDeleteAccount_WithoutTransactions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acc := h.account(t, "Main", 0)

	can, err := h.db.CanDeleteAccount(ctx, acc.ID)
	if err != nil || !can {
		t.Fatalf("expected deletable, can=%v err=%v", can, err)
	}
	if err := h.db.DeleteAccount(ctx, acc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var nf *domain.ErrNotFound
	if _, err := h.db.Accounts().FindByID(ctx, acc.ID); !errors.As(err, &nf) {
		t.Errorf("expected account gone, got %v", err)
	}
}

func TestDeleteAccount_InUse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acc := h.account(t, "Main", 0)
	h.transaction(t, acc.ID, domain.TransactionExpense, 5, "food", epoch)

	can, err := h.db.CanDeleteAccount(ctx, acc.ID)
	if err != nil || can {
		t.Fatalf("expected not deletable, can=%v err=%v", can, err)
	}

	err = h.db.DeleteAccount(ctx, acc.ID)
	var inUse *domain.ErrAccountInUse
	if !errors.As(err, &inUse) {
		t.Fatalf("expected ErrAccountInUse, got %v", err)
	}
	if inUse.Transactions != 1 {
		t.Errorf("expected 1 referencing transaction, got %d", inUse.Transactions)
	}
	if _, err := h.db.Accounts().FindByID(ctx, acc.ID); err != nil {
		t.Errorf("expected account still queryable, got %v", err)
	}

	// Plain removal goes through the same guard.
	if err := h.db.Accounts().Remove(ctx, acc.ID); !errors.As(err, &inUse) {
		t.Errorf("expected Remove to be guarded, got %v", err)
	}
}

func TestDeleteAccount_NotFound(t *testing.T) {
	h := newHarness(t)

	var nf *domain.ErrNotFound
	if err := h.db.DeleteAccount(context.Background(), "missing"); !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAccount_RacesWithInsert(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acc := h.account(t, "Main", 0)

	var (
		wg        sync.WaitGroup
		deleteErr error
		insertErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		deleteErr = h.db.DeleteAccount(ctx, acc.ID)
	}()
	go func() {
		defer wg.Done()
		_, insertErr = h.db.Transactions().Insert(ctx, domain.Transaction{
			AccountID: acc.ID, Type: domain.TransactionIncome, Amount: 1, Currency: "USD", Date: 1,
		})
	}()
	wg.Wait()

	// Exactly one side wins; never an orphaned transaction.
	if (deleteErr == nil) == (insertErr == nil) {
		t.Fatalf("expected exactly one success, delete=%v insert=%v", deleteErr, insertErr)
	}
	if deleteErr == nil {
		if n, _ := h.db.Transactions().Count(ctx, nil); n != 0 {
			t.Errorf("orphaned transaction after delete")
		}
	}
}

package store_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/infra/memory"
	"github.com/boddenberg/finance-store-go/internal/port"
	"github.com/boddenberg/finance-store-go/internal/store"
)

var epoch = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("%s-%d", prefix, n.Add(1)) }
}

// countingBackend records how many backends were built and opened.
type countingBackend struct {
	*memory.Backend
	opened *atomic.Int32
	names  *atomic.Value
}

func (b countingBackend) Open(ctx context.Context, collections []string) error {
	b.opened.Add(1)
	b.names.Store(collections)
	return b.Backend.Open(ctx, collections)
}

type harness struct {
	facade *store.Facade
	db     *store.Database
	clock  *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &fakeClock{now: epoch}
	f := store.NewFacade(store.Options{
		Clock:        clock.Now,
		NewID:        sequentialIDs("rec"),
		WriteTimeout: time.Second,
	})
	db, err := f.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { f.Close(context.Background()) })
	return &harness{facade: f, db: db, clock: clock}
}

func (h *harness) account(t *testing.T, name string, balance float64) domain.Account {
	t.Helper()
	acc, err := h.db.Accounts().Insert(context.Background(), domain.Account{
		Name:     name,
		Type:     domain.AccountChecking,
		Balance:  balance,
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return acc
}

func (h *harness) transaction(t *testing.T, accountID string, typ domain.TransactionType, amount float64, category string, date time.Time) domain.Transaction {
	t.Helper()
	tx, err := h.db.Transactions().Insert(context.Background(), domain.Transaction{
		AccountID: accountID,
		Type:      typ,
		Amount:    amount,
		Currency:  "USD",
		Category:  category,
		Date:      domain.Millis(date),
	})
	if err != nil {
		t.Fatalf("insert transaction: %v", err)
	}
	return tx
}

var _ port.Backend = countingBackend{}

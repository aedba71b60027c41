package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/infra/memory"
	"github.com/boddenberg/finance-store-go/internal/infra/resilience"
	"github.com/boddenberg/finance-store-go/internal/infra/sqlite"
	"github.com/boddenberg/finance-store-go/internal/port"
	"github.com/boddenberg/finance-store-go/internal/schema"
	"github.com/boddenberg/finance-store-go/internal/store"
)

func TestFacade_ConcurrentOpenConstructsOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	var (
		built  atomic.Int32
		opened atomic.Int32
		names  atomic.Value
	)
	f := store.NewFacade(store.Options{
		Backend: func(context.Context) (port.Backend, error) {
			built.Add(1)
			time.Sleep(20 * time.Millisecond)
			return countingBackend{Backend: memory.New(), opened: &opened, names: &names}, nil
		},
	})

	const callers = 10
	handles := make([]*store.Database, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = f.Open(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
		if handles[i] != handles[0] {
			t.Errorf("caller %d got a different handle", i)
		}
	}
	if built.Load() != 1 || opened.Load() != 1 {
		t.Errorf("expected 1 construction, built=%d opened=%d", built.Load(), opened.Load())
	}
	if got := names.Load().([]string); len(got) != 5 {
		t.Errorf("expected 5 collections, got %v", got)
	}
	if f.State() != store.StateReady {
		t.Errorf("expected ready, got %s", f.State())
	}

	if err := f.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestFacade_FailedInitResets(t *testing.T) {
	var attempts atomic.Int32
	f := store.NewFacade(store.Options{
		Backend: func(context.Context) (port.Backend, error) {
			if attempts.Add(1) == 1 {
				return nil, errors.New("disk unavailable")
			}
			return memory.New(), nil
		},
	})

	_, err := f.Open(context.Background())
	var initErr *domain.ErrInitialization
	if !errors.As(err, &initErr) {
		t.Fatalf("expected ErrInitialization, got %v", err)
	}
	if f.State() != store.StateUninitialized {
		t.Errorf("expected uninitialized after failure, got %s", f.State())
	}

	if _, err := f.Open(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected a genuine second attempt, got %d", attempts.Load())
	}
	f.Close(context.Background())
}

func TestFacade_BadRegistryFailsInit(t *testing.T) {
	reg := schema.NewRegistry()
	tx := schema.Transaction()
	_ = reg.Register(tx) // ref to accounts, which is not registered

	f := store.NewFacade(store.Options{Registry: reg})
	_, err := f.Open(context.Background())
	var initErr *domain.ErrInitialization
	if !errors.As(err, &initErr) {
		t.Fatalf("expected ErrInitialization, got %v", err)
	}
}

func TestFacade_AccessorsRequireReady(t *testing.T) {
	f := store.NewFacade(store.Options{})
	var notReady *domain.ErrNotReady

	if _, err := f.Accounts(); !errors.As(err, &notReady) {
		t.Fatalf("expected ErrNotReady before open, got %v", err)
	}
	if notReady.State != "uninitialized" {
		t.Errorf("unexpected state %q", notReady.State)
	}

	db, err := f.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, access := range []func() error{
		func() error { _, err := f.Accounts(); return err },
		func() error { _, err := f.Transactions(); return err },
		func() error { _, err := f.Budgets(); return err },
		func() error { _, err := f.Investments(); return err },
		func() error { _, err := f.Goals(); return err },
	} {
		if err := access(); err != nil {
			t.Errorf("expected accessor to work when ready, got %v", err)
		}
	}

	if err := f.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Goals(); !errors.As(err, &notReady) {
		t.Errorf("expected ErrNotReady after close, got %v", err)
	}
	if _, err := db.Accounts().Find(context.Background(), store.Query{}); !errors.As(err, &notReady) {
		t.Errorf("expected stale handle to fail with ErrNotReady, got %v", err)
	}
	if _, err := db.Accounts().Insert(context.Background(), domain.Account{Name: "x", Type: domain.AccountOther, Currency: "USD"}); !errors.As(err, &notReady) {
		t.Errorf("expected stale handle write to fail with ErrNotReady, got %v", err)
	}
	if db.Ready() {
		t.Error("expected closed handle to report not ready")
	}
}

func TestFacade_CloseWithoutOpenIsNoop(t *testing.T) {
	f := store.NewFacade(store.Options{})
	if err := f.Close(context.Background()); err != nil {
		t.Fatalf("expected no-op close, got %v", err)
	}
}

func TestFacade_ReopenStartsEmpty(t *testing.T) {
	f := store.NewFacade(store.Options{})
	ctx := context.Background()

	db, _ := f.Open(ctx)
	if _, err := db.Accounts().Insert(ctx, domain.Account{Name: "x", Type: domain.AccountOther, Currency: "USD"}); err != nil {
		t.Fatal(err)
	}
	f.Close(ctx)

	db, err := f.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close(ctx)
	if n, _ := db.Accounts().Count(ctx, nil); n != 0 {
		t.Errorf("expected volatile store to start empty, got %d", n)
	}
}

func TestFacade_OpenHonorsCallerContext(t *testing.T) {
	release := make(chan struct{})
	f := store.NewFacade(store.Options{
		Backend: func(context.Context) (port.Backend, error) {
			<-release
			return memory.New(), nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.Open(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if f.State() != store.StateInitializing {
		t.Errorf("expected construction still in flight, got %s", f.State())
	}

	close(release)
	if _, err := f.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	f.Close(context.Background())
}

func TestFacade_SQLiteBackendPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finance.db")
	ctx := context.Background()
	newFacade := func() *store.Facade {
		return store.NewFacade(store.Options{
			Backend: func(context.Context) (port.Backend, error) {
				return sqlite.New(path, resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}, nil), nil
			},
		})
	}

	f := newFacade()
	db, err := f.Open(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	acc, err := db.Accounts().Insert(ctx, domain.Account{Name: "Durable", Type: domain.AccountSavings, Balance: 12.34, Currency: "USD"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := f.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	f = newFacade()
	db, err = f.Open(ctx)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close(ctx)
	got, err := db.Accounts().FindByID(ctx, acc.ID)
	if err != nil {
		t.Fatalf("find after reopen: %v", err)
	}
	if got.Balance != 12.34 {
		t.Errorf("expected 12.34, got %v", got.Balance)
	}
}

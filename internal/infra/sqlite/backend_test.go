package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/finance-store-go/internal/infra/resilience"
	"github.com/boddenberg/finance-store-go/internal/infra/sqlite"
	"github.com/boddenberg/finance-store-go/internal/port"
)

func newBackend(t *testing.T, path string) *sqlite.Backend {
	t.Helper()
	b := sqlite.New(path, resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}, nil)
	if err := b.Open(context.Background(), []string{"accounts", "transactions"}); err != nil {
		t.Fatalf("open: %v", err)
	}
	return b
}

func TestBackend_ApplyGetScan(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t, filepath.Join(t.TempDir(), "finance.db"))
	defer b.Close()

	err := b.Apply(ctx, []port.Op{
		{Collection: "accounts", ID: "b", Doc: []byte(`{"id":"b"}`)},
		{Collection: "accounts", ID: "a", Doc: []byte(`{"id":"a"}`)},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	doc, ok, err := b.Get(ctx, "accounts", "a")
	if err != nil || !ok || string(doc) != `{"id":"a"}` {
		t.Fatalf("get: doc=%s ok=%v err=%v", doc, ok, err)
	}
	if _, ok, _ := b.Get(ctx, "accounts", "zzz"); ok {
		t.Error("expected miss")
	}

	docs, err := b.Scan(ctx, "accounts")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(docs) != 2 || string(docs[0]) != `{"id":"a"}` {
		t.Errorf("expected docs ordered by id, got %q", docs)
	}

	if err := b.Apply(ctx, []port.Op{{Collection: "accounts", ID: "a"}}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := b.Get(ctx, "accounts", "a"); ok {
		t.Error("expected deleted doc to be gone")
	}
}

func TestBackend_ApplyIsAtomic(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t, filepath.Join(t.TempDir(), "finance.db"))
	defer b.Close()

	err := b.Apply(ctx, []port.Op{
		{Collection: "accounts", ID: "a", Doc: []byte(`{}`)},
		{Collection: "missing", ID: "x", Doc: []byte(`{}`)},
	})
	if err == nil {
		t.Fatal("expected error for unknown collection")
	}
	if _, ok, _ := b.Get(ctx, "accounts", "a"); ok {
		t.Error("expected rollback of the whole batch")
	}
}

func TestBackend_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "finance.db")

	b := newBackend(t, path)
	if err := b.Apply(ctx, []port.Op{{Collection: "accounts", ID: "a", Doc: []byte(`{"id":"a"}`)}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	b.Close()

	reopened := newBackend(t, path)
	defer reopened.Close()
	if _, ok, err := reopened.Get(ctx, "accounts", "a"); err != nil || !ok {
		t.Fatalf("expected durable doc, ok=%v err=%v", ok, err)
	}
}

func TestBackend_UnknownCollectionRead(t *testing.T) {
	b := newBackend(t, filepath.Join(t.TempDir(), "finance.db"))
	defer b.Close()

	if _, err := b.Scan(context.Background(), "missing"); err == nil {
		t.Fatal("expected unknown collection error")
	}
}

func TestBackend_Closed(t *testing.T) {
	b := newBackend(t, filepath.Join(t.TempDir(), "finance.db"))
	b.Close()

	if _, _, err := b.Get(context.Background(), "accounts", "a"); !errors.Is(err, port.ErrBackendClosed) {
		t.Errorf("expected ErrBackendClosed, got %v", err)
	}
}

package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/finance-store-go/internal/infra/memory"
	"github.com/boddenberg/finance-store-go/internal/port"
)

func TestBackend_ApplyGetScan(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	if err := b.Open(ctx, []string{"accounts"}); err != nil {
		t.Fatalf("open: %v", err)
	}

	err := b.Apply(ctx, []port.Op{
		{Collection: "accounts", ID: "b", Doc: []byte(`{"id":"b"}`)},
		{Collection: "accounts", ID: "a", Doc: []byte(`{"id":"a"}`)},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	doc, ok, err := b.Get(ctx, "accounts", "a")
	if err != nil || !ok {
		t.Fatalf("expected doc a, ok=%v err=%v", ok, err)
	}
	if string(doc) != `{"id":"a"}` {
		t.Errorf("unexpected doc %s", doc)
	}

	docs, err := b.Scan(ctx, "accounts")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(docs) != 2 || string(docs[0]) != `{"id":"a"}` {
		t.Errorf("expected docs ordered by id, got %q", docs)
	}
}

func TestBackend_ApplyIsAtomic(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	_ = b.Open(ctx, []string{"accounts"})

	err := b.Apply(ctx, []port.Op{
		{Collection: "accounts", ID: "a", Doc: []byte(`{}`)},
		{Collection: "missing", ID: "x", Doc: []byte(`{}`)},
	})
	if err == nil {
		t.Fatal("expected error for unknown collection")
	}
	if _, ok, _ := b.Get(ctx, "accounts", "a"); ok {
		t.Error("expected no partial write")
	}
}

func TestBackend_CopiesDocuments(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	_ = b.Open(ctx, []string{"accounts"})

	buf := []byte(`{"id":"a"}`)
	_ = b.Apply(ctx, []port.Op{{Collection: "accounts", ID: "a", Doc: buf}})
	buf[2] = 'X'

	doc, _, _ := b.Get(ctx, "accounts", "a")
	if string(doc) != `{"id":"a"}` {
		t.Errorf("stored doc was aliased: %s", doc)
	}
}

func TestBackend_DoubleOpenFails(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	_ = b.Open(ctx, []string{"accounts"})
	if err := b.Open(ctx, []string{"accounts"}); err == nil {
		t.Fatal("expected duplicate collection error")
	}
}

func TestBackend_Closed(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	_ = b.Open(ctx, []string{"accounts"})
	_ = b.Close()

	if _, _, err := b.Get(ctx, "accounts", "a"); !errors.Is(err, port.ErrBackendClosed) {
		t.Errorf("expected ErrBackendClosed, got %v", err)
	}
}

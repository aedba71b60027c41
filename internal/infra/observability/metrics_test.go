package observability_test

import (
	"testing"
	"time"

	"github.com/boddenberg/finance-store-go/internal/infra/observability"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.ObserveStoreOp("accounts", "insert", 2*time.Millisecond)
	m.ObserveStoreOp("accounts", "insert", 4*time.Millisecond)
	m.ObserveStoreOp("accounts", "find", time.Millisecond)
	m.IncrStoreError("accounts", "validation")
	m.IncrInit("success")
	m.IncrCacheHit("idempotency")
	m.IncrCacheMiss("idempotency")
	m.IncrCacheMiss("idempotency")
	m.IncrCacheMiss("idempotency")

	stats, err := m.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if stats.InitSuccess != 1 || stats.InitFailure != 0 {
		t.Errorf("unexpected init counts: %+v", stats)
	}
	if len(stats.Operations) != 2 {
		t.Fatalf("expected 2 operation series, got %d", len(stats.Operations))
	}
	insert := stats.Operations[1]
	if insert.Op != "insert" || insert.Count != 2 {
		t.Errorf("unexpected insert stat: %+v", insert)
	}
	if insert.AvgLatencyMs < 2.9 || insert.AvgLatencyMs > 3.1 {
		t.Errorf("expected ~3ms average, got %f", insert.AvgLatencyMs)
	}
	if len(stats.Errors) != 1 || stats.Errors[0].Kind != "validation" {
		t.Errorf("unexpected errors: %+v", stats.Errors)
	}
	if stats.IdempotencyHitRate != 0.25 {
		t.Errorf("expected hit rate 0.25, got %f", stats.IdempotencyHitRate)
	}
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()
	a.IncrInit("success")

	stats, _ := b.Snapshot()
	if stats.InitSuccess != 0 {
		t.Errorf("expected isolated registries, got %d", stats.InitSuccess)
	}
}

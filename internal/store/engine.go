// Package store implements the schema-checked document collections and the
// database facade that owns them.
//
// Every write passes through a single writer gate and commits to the backend
// before returning, so a caller always reads its own writes. Writes issued
// inside RunInTx are staged and committed together in one atomic Apply.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/infra/observability"
	"github.com/boddenberg/finance-store-go/internal/infra/resilience"
	"github.com/boddenberg/finance-store-go/internal/port"
	"github.com/boddenberg/finance-store-go/internal/schema"
)

var tracer = otel.Tracer("finance-store/store")

const (
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

// engine is the state shared by every collection of one open database.
type engine struct {
	backend      port.Backend
	registry     *schema.Registry
	gate         *resilience.Bulkhead
	now          func() time.Time
	newID        func() string
	logger       *zap.Logger
	metrics      *observability.Metrics
	writeTimeout time.Duration
	closed       atomic.Bool
}

func (e *engine) ready() error {
	if e.closed.Load() {
		return &domain.ErrNotReady{State: StateUninitialized.String()}
	}
	return nil
}

// runInTx runs fn with a transaction in its context. A call made while a
// transaction is already in ctx joins it; otherwise the writer gate is held
// until the staged writes are committed or discarded.
func (e *engine) runInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if t := e.txFrom(ctx); t != nil {
		return fn(ctx)
	}
	if err := e.ready(); err != nil {
		return err
	}

	acquireCtx := ctx
	if e.writeTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, e.writeTimeout)
		defer cancel()
	}
	if err := e.gate.Acquire(acquireCtx); err != nil {
		return fmt.Errorf("acquire writer gate: %w", err)
	}
	defer e.gate.Release()

	t := newTx(e)
	err := fn(context.WithValue(ctx, txKey{}, t))
	ops := t.finish()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}
	// Close takes the gate before marking the engine closed, so this check
	// cannot race with it.
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.backend.Apply(ctx, ops); err != nil {
		return &domain.ErrBackend{Op: "apply", Err: err}
	}
	e.logger.Debug("transaction committed", zap.Int("ops", len(ops)))
	return nil
}

// get reads one raw document, preferring writes staged in ctx's transaction.
func (e *engine) get(ctx context.Context, collection, id string) ([]byte, bool, error) {
	if t := e.txFrom(ctx); t != nil {
		if doc, deleted, ok := t.lookup(collection, id); ok {
			return doc, !deleted, nil
		}
	}
	doc, ok, err := e.backend.Get(ctx, collection, id)
	if err != nil {
		return nil, false, backendErr("get", err)
	}
	return doc, ok, nil
}

// scan decodes every document of a collection ordered by primary key, with
// ctx's staged writes overlaid.
func (e *engine) scan(ctx context.Context, collection, pk string) ([]map[string]any, error) {
	raw, err := e.backend.Scan(ctx, collection)
	if err != nil {
		return nil, backendErr("scan", err)
	}

	docs := make([]map[string]any, 0, len(raw))
	for _, b := range raw {
		doc, err := decode(b)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	t := e.txFrom(ctx)
	if t == nil {
		return docs, nil
	}
	staged := t.staged(collection)
	if len(staged) == 0 {
		return docs, nil
	}

	merged := docs[:0]
	for _, doc := range docs {
		id, _ := doc[pk].(string)
		if _, ok := staged[id]; ok {
			continue
		}
		merged = append(merged, doc)
	}
	for _, st := range staged {
		if st.deleted {
			continue
		}
		doc, err := decode(st.doc)
		if err != nil {
			return nil, err
		}
		merged = append(merged, doc)
	}
	slices.SortFunc(merged, func(a, b map[string]any) int {
		x, _ := a[pk].(string)
		y, _ := b[pk].(string)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	})
	return merged, nil
}

func (e *engine) stage(ctx context.Context, collection, id string, doc []byte) error {
	t := e.txFrom(ctx)
	if t == nil {
		return errors.New("store: write outside transaction")
	}
	return t.put(collection, id, doc)
}

func (e *engine) stageDelete(ctx context.Context, collection, id string) error {
	t := e.txFrom(ctx)
	if t == nil {
		return errors.New("store: delete outside transaction")
	}
	return t.remove(collection, id)
}

func backendErr(op string, err error) error {
	if errors.Is(err, port.ErrBackendClosed) {
		return &domain.ErrNotReady{State: StateUninitialized.String()}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.ErrBackend{Op: op, Err: err}
}

func decode(b []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, &domain.ErrBackend{Op: "decode", Err: err}
	}
	return doc, nil
}

// toDoc converts a record or a field set into the JSON value space the
// validator works on: strings, float64 numbers, nil.
func toDoc(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("record is not an object: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// errorKind labels an error for metrics.
func errorKind(err error) string {
	var (
		validation *domain.ErrValidation
		notFound   *domain.ErrNotFound
		duplicate  *domain.ErrDuplicateKey
		inUse      *domain.ErrAccountInUse
		notReady   *domain.ErrNotReady
		backend    *domain.ErrBackend
	)
	switch {
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &duplicate):
		return "duplicate_key"
	case errors.As(err, &inUse):
		return "account_in_use"
	case errors.As(err, &notReady):
		return "not_ready"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &backend):
		return "backend"
	}
	return "other"
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/schema"
)

// Fields is a partial update for Patch. A nil value removes the field.
type Fields map[string]any

// Collection is the schema-checked container for one record kind. Records
// returned are decoded copies; mutating them never affects the store.
type Collection[T any] struct {
	eng  *engine
	desc schema.Descriptor
}

func newCollection[T any](eng *engine, name string) (*Collection[T], error) {
	desc, ok := eng.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("no schema registered for %q", name)
	}
	return &Collection[T]{eng: eng, desc: desc}, nil
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.desc.Name }

// Insert validates rec and stores it. An empty primary key is replaced with
// a generated one; createdAt and updatedAt are set to now.
func (c *Collection[T]) Insert(ctx context.Context, rec T) (out T, err error) {
	ctx, span := c.start(ctx, "Collection.Insert")
	defer span.End()
	defer c.observe(span, "insert", time.Now(), &err)

	if err = c.eng.ready(); err != nil {
		return out, err
	}

	doc, err := toDoc(rec)
	if err != nil {
		return out, err
	}
	pk := c.desc.PrimaryKey
	if id, _ := doc[pk].(string); id == "" {
		doc[pk] = c.eng.newID()
	}
	now := float64(domain.Millis(c.eng.now()))
	c.setIfDeclared(doc, fieldCreatedAt, now)
	c.setIfDeclared(doc, fieldUpdatedAt, now)

	if err = c.validateSchema(doc); err != nil {
		return out, err
	}
	id := doc[pk].(string)
	span.SetAttributes(attribute.String("id", id))

	var stored []byte
	err = c.eng.runInTx(ctx, func(ctx context.Context) error {
		if err := c.validateRefs(ctx, doc); err != nil {
			return err
		}
		_, exists, err := c.eng.get(ctx, c.desc.Name, id)
		if err != nil {
			return err
		}
		if exists {
			return &domain.ErrDuplicateKey{Collection: c.desc.Name, ID: id}
		}
		stored, err = json.Marshal(doc)
		if err != nil {
			return err
		}
		return c.eng.stage(ctx, c.desc.Name, id, stored)
	})
	if err != nil {
		return out, err
	}
	c.eng.logger.Debug("record inserted", zap.String("collection", c.desc.Name), zap.String("id", id), zap.String("op", "insert"))
	return c.unmarshal(stored)
}

// FindByID returns the record with the given primary key.
func (c *Collection[T]) FindByID(ctx context.Context, id string) (out T, err error) {
	ctx, span := c.start(ctx, "Collection.FindByID", attribute.String("id", id))
	defer span.End()
	defer c.observe(span, "find_by_id", time.Now(), &err)

	if err = c.eng.ready(); err != nil {
		return out, err
	}
	raw, ok, err := c.eng.get(ctx, c.desc.Name, id)
	if err != nil {
		return out, err
	}
	if !ok {
		return out, &domain.ErrNotFound{Collection: c.desc.Name, ID: id}
	}
	return c.unmarshal(raw)
}

// Find returns the records matching q.
func (c *Collection[T]) Find(ctx context.Context, q Query) (out []T, err error) {
	ctx, span := c.start(ctx, "Collection.Find")
	defer span.End()
	defer c.observe(span, "find", time.Now(), &err)

	docs, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}
	out = make([]T, 0, len(docs))
	for _, doc := range docs {
		rec, err := c.fromDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	return out, nil
}

// Count returns how many records match where. A nil selector counts all.
func (c *Collection[T]) Count(ctx context.Context, where Selector) (n int, err error) {
	ctx, span := c.start(ctx, "Collection.Count")
	defer span.End()
	defer c.observe(span, "count", time.Now(), &err)

	docs, err := c.query(ctx, Query{Where: where})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Patch merges fields onto the stored record and re-validates the result.
// The primary key and createdAt cannot change; updatedAt never moves back.
func (c *Collection[T]) Patch(ctx context.Context, id string, fields Fields) (out T, err error) {
	ctx, span := c.start(ctx, "Collection.Patch", attribute.String("id", id))
	defer span.End()
	defer c.observe(span, "patch", time.Now(), &err)

	if err = c.eng.ready(); err != nil {
		return out, err
	}
	patch, err := toDoc(map[string]any(fields))
	if err != nil {
		return out, err
	}

	var stored []byte
	err = c.eng.runInTx(ctx, func(ctx context.Context) error {
		raw, ok, err := c.eng.get(ctx, c.desc.Name, id)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ErrNotFound{Collection: c.desc.Name, ID: id}
		}
		prev, err := decode(raw)
		if err != nil {
			return err
		}

		merged, violations := c.merge(prev, patch)
		if len(violations) > 0 {
			return &domain.ErrValidation{Collection: c.desc.Name, Violations: violations}
		}
		if _, ok := c.desc.Properties[fieldUpdatedAt]; ok {
			now := float64(domain.Millis(c.eng.now()))
			last, _ := prev[fieldUpdatedAt].(float64)
			merged[fieldUpdatedAt] = max(now, last)
		}

		if err := c.validateSchema(merged); err != nil {
			return err
		}
		if err := c.validateRefs(ctx, merged); err != nil {
			return err
		}
		stored, err = json.Marshal(merged)
		if err != nil {
			return err
		}
		return c.eng.stage(ctx, c.desc.Name, id, stored)
	})
	if err != nil {
		return out, err
	}
	c.eng.logger.Debug("record patched", zap.String("collection", c.desc.Name), zap.String("id", id), zap.String("op", "patch"))
	return c.unmarshal(stored)
}

// Remove deletes the record. Records still referenced by another collection
// are kept and the call fails; accounts fail with ErrAccountInUse.
func (c *Collection[T]) Remove(ctx context.Context, id string) (err error) {
	ctx, span := c.start(ctx, "Collection.Remove", attribute.String("id", id))
	defer span.End()
	defer c.observe(span, "remove", time.Now(), &err)

	if err = c.eng.ready(); err != nil {
		return err
	}
	err = c.eng.runInTx(ctx, func(ctx context.Context) error {
		_, ok, err := c.eng.get(ctx, c.desc.Name, id)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ErrNotFound{Collection: c.desc.Name, ID: id}
		}
		if err := c.eng.checkUnreferenced(ctx, c.desc.Name, id); err != nil {
			return err
		}
		return c.eng.stageDelete(ctx, c.desc.Name, id)
	})
	if err != nil {
		return err
	}
	c.eng.logger.Debug("record removed", zap.String("collection", c.desc.Name), zap.String("id", id), zap.String("op", "remove"))
	return nil
}

func (c *Collection[T]) query(ctx context.Context, q Query) ([]map[string]any, error) {
	if err := c.eng.ready(); err != nil {
		return nil, err
	}
	var violations []domain.Violation
	for _, f := range q.fields() {
		if _, ok := c.desc.Properties[f]; !ok {
			violations = append(violations, domain.Violation{Field: f, Rule: schema.RuleUnknown, Message: "is not a queryable field"})
		}
	}
	if len(violations) > 0 {
		return nil, &domain.ErrValidation{Collection: c.desc.Name, Violations: violations}
	}

	docs, err := c.eng.scan(ctx, c.desc.Name, c.desc.PrimaryKey)
	if err != nil {
		return nil, err
	}
	return q.apply(docs), nil
}

func (c *Collection[T]) merge(prev, patch map[string]any) (map[string]any, []domain.Violation) {
	merged := maps.Clone(prev)
	var violations []domain.Violation

	keys := slices.Sorted(maps.Keys(patch))
	for _, k := range keys {
		v := patch[k]
		if k == c.desc.PrimaryKey || k == fieldCreatedAt {
			if !equal(v, prev[k]) {
				violations = append(violations, domain.Violation{Field: k, Rule: schema.RuleImmutable, Message: "cannot be changed"})
			}
			continue
		}
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return merged, violations
}

func (c *Collection[T]) validateSchema(doc map[string]any) error {
	res := schema.Validate(doc, c.desc)
	if !res.Valid {
		return &domain.ErrValidation{Collection: c.desc.Name, Violations: res.Violations}
	}
	return nil
}

// validateRefs checks that every ref field points at an existing record,
// reading through ctx's transaction.
func (c *Collection[T]) validateRefs(ctx context.Context, doc map[string]any) error {
	refs := c.desc.Refs()
	var violations []domain.Violation
	for _, field := range slices.Sorted(maps.Keys(refs)) {
		id, ok := doc[field].(string)
		if !ok || id == "" {
			continue
		}
		_, exists, err := c.eng.get(ctx, refs[field], id)
		if err != nil {
			return err
		}
		if !exists {
			violations = append(violations, domain.Violation{
				Field:   field,
				Rule:    schema.RuleRef,
				Message: fmt.Sprintf("references missing %s record %q", refs[field], id),
			})
		}
	}
	if len(violations) > 0 {
		return &domain.ErrValidation{Collection: c.desc.Name, Violations: violations}
	}
	return nil
}

func (c *Collection[T]) setIfDeclared(doc map[string]any, field string, v any) {
	if _, ok := c.desc.Properties[field]; ok {
		doc[field] = v
	}
}

func (c *Collection[T]) unmarshal(raw []byte) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &domain.ErrBackend{Op: "decode", Err: err}
	}
	return out, nil
}

func (c *Collection[T]) fromDoc(doc map[string]any) (T, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.unmarshal(raw)
}

func (c *Collection[T]) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("collection", c.desc.Name))
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (c *Collection[T]) observe(span trace.Span, op string, start time.Time, err *error) {
	c.eng.metrics.ObserveStoreOp(c.desc.Name, op, time.Since(start))
	if *err == nil {
		return
	}
	kind := errorKind(*err)
	c.eng.metrics.IncrStoreError(c.desc.Name, kind)
	span.RecordError(*err)
	span.SetStatus(codes.Error, kind)
}

// Package memory provides the volatile in-process backend. Data is lost when
// the process exits.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/boddenberg/finance-store-go/internal/port"
)

// Backend keeps documents in maps guarded by one RWMutex. Documents are
// copied on the way in and out so callers never share buffers with the store.
type Backend struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
	closed      bool
}

// New creates an empty, unopened backend.
func New() *Backend {
	return &Backend{collections: make(map[string]map[string][]byte)}
}

// Open registers the collections. Opening an already registered collection
// is an error, which surfaces a double initialization instead of hiding it.
func (b *Backend) Open(_ context.Context, collections []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return port.ErrBackendClosed
	}
	for _, name := range collections {
		if _, ok := b.collections[name]; ok {
			return fmt.Errorf("collection %q already exists", name)
		}
	}
	for _, name := range collections {
		b.collections[name] = make(map[string][]byte)
	}
	return nil
}

func (b *Backend) Get(_ context.Context, collection, id string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	docs, err := b.collection(collection)
	if err != nil {
		return nil, false, err
	}
	doc, ok := docs[id]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(doc), true, nil
}

func (b *Backend) Scan(_ context.Context, collection string) ([][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	docs, err := b.collection(collection)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		out = append(out, slices.Clone(docs[id]))
	}
	return out, nil
}

// Apply checks every op before touching any map, so a bad op leaves the
// backend unchanged.
func (b *Backend) Apply(ctx context.Context, ops []port.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, op := range ops {
		if _, err := b.collection(op.Collection); err != nil {
			return err
		}
	}
	for _, op := range ops {
		if op.Doc == nil {
			delete(b.collections[op.Collection], op.ID)
			continue
		}
		b.collections[op.Collection][op.ID] = slices.Clone(op.Doc)
	}
	return nil
}

// Close drops all data.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.collections = nil
	return nil
}

// collection must be called with b.mu held.
func (b *Backend) collection(name string) (map[string][]byte, error) {
	if b.closed {
		return nil, port.ErrBackendClosed
	}
	docs, ok := b.collections[name]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", name)
	}
	return docs, nil
}

// Ensure Backend implements port.Backend.
var _ port.Backend = (*Backend)(nil)

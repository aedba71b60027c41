// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the store and
// service layers from concrete implementations.
package port

import (
	"context"
	"errors"
)

// ErrBackendClosed is returned by backends used after Close.
var ErrBackendClosed = errors.New("backend closed")

// Op is one write applied by a Backend. A nil Doc deletes the key.
type Op struct {
	Collection string
	ID         string
	Doc        []byte
}

// Backend is the storage medium behind the collections. Documents are opaque
// JSON bytes keyed by collection and primary key. Implementations must be
// safe for concurrent use and must apply each Apply call atomically.
type Backend interface {
	// Open prepares storage for the named collections.
	Open(ctx context.Context, collections []string) error
	// Get returns a copy of one document.
	Get(ctx context.Context, collection, id string) ([]byte, bool, error)
	// Scan returns copies of every document in a collection, ordered by id.
	Scan(ctx context.Context, collection string) ([][]byte, error)
	// Apply commits all ops or none of them.
	Apply(ctx context.Context, ops []Op) error
	// Close releases the storage. Later calls fail with ErrBackendClosed.
	Close() error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

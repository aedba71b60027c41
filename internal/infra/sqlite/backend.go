// Package sqlite provides a durable backend on a single SQLite file.
// Every call runs through a circuit breaker and retries transient
// lock contention with backoff.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/boddenberg/finance-store-go/internal/infra/resilience"
	"github.com/boddenberg/finance-store-go/internal/port"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL REFERENCES collections(name),
	id         TEXT NOT NULL,
	doc        BLOB NOT NULL,
	PRIMARY KEY (collection, id)
);`

// Backend stores documents in one table keyed by (collection, id).
type Backend struct {
	path   string
	mu     sync.RWMutex
	db     *sql.DB
	cb     *gobreaker.CircuitBreaker
	retry  resilience.Config
	logger *zap.Logger
}

// New creates a backend for the file at path. The file is opened by Open.
func New(path string, retry resilience.Config, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retry.Retryable == nil {
		retry.Retryable = isBusy
	}
	return &Backend{
		path:   path,
		cb:     resilience.NewCircuitBreaker("sqlite", isBackendFault),
		retry:  retry,
		logger: logger,
	}
}

// Open opens the database file, applies pragmas and creates the tables.
// Collections missing from the catalog are registered; existing ones keep
// their documents.
func (b *Backend) Open(ctx context.Context, collections []string) error {
	db, err := sql.Open("sqlite", b.path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", b.path, err)
	}
	// One connection serializes writers and keeps pragmas in effect.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		db.Close()
		return fmt.Errorf("create schema: %w", err)
	}
	for _, name := range collections {
		if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO collections(name) VALUES (?)`, name); err != nil {
			db.Close()
			return fmt.Errorf("register collection %s: %w", name, err)
		}
	}

	b.mu.Lock()
	b.db = db
	b.mu.Unlock()
	b.logger.Info("sqlite backend opened",
		zap.String("path", b.path),
		zap.Strings("collections", collections),
	)
	return nil
}

func (b *Backend) Get(ctx context.Context, collection, id string) ([]byte, bool, error) {
	db := b.conn()
	if db == nil {
		return nil, false, port.ErrBackendClosed
	}

	var doc []byte
	err := b.execute(ctx, func() error {
		if err := known(ctx, db, collection); err != nil {
			return err
		}
		err := db.QueryRowContext(ctx,
			`SELECT doc FROM documents WHERE collection = ? AND id = ?`, collection, id,
		).Scan(&doc)
		if errors.Is(err, sql.ErrNoRows) {
			doc = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return doc, doc != nil, nil
}

func (b *Backend) Scan(ctx context.Context, collection string) ([][]byte, error) {
	db := b.conn()
	if db == nil {
		return nil, port.ErrBackendClosed
	}

	var docs [][]byte
	err := b.execute(ctx, func() error {
		if err := known(ctx, db, collection); err != nil {
			return err
		}
		rows, err := db.QueryContext(ctx,
			`SELECT doc FROM documents WHERE collection = ? ORDER BY id`, collection)
		if err != nil {
			return err
		}
		defer rows.Close()

		docs = docs[:0]
		for rows.Next() {
			var doc []byte
			if err := rows.Scan(&doc); err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Apply runs all ops in one SQL transaction.
func (b *Backend) Apply(ctx context.Context, ops []port.Op) error {
	db := b.conn()
	if db == nil {
		return port.ErrBackendClosed
	}

	return b.execute(ctx, func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		for _, op := range ops {
			if op.Doc == nil {
				_, err = tx.ExecContext(ctx,
					`DELETE FROM documents WHERE collection = ? AND id = ?`, op.Collection, op.ID)
			} else {
				_, err = tx.ExecContext(ctx,
					`INSERT INTO documents(collection, id, doc) VALUES (?, ?, ?)
					 ON CONFLICT(collection, id) DO UPDATE SET doc = excluded.doc`,
					op.Collection, op.ID, op.Doc)
			}
			if err != nil {
				if isConstraint(err) {
					return resilience.Permanent(fmt.Errorf("unknown collection %q: %w", op.Collection, err))
				}
				return fmt.Errorf("%s %s/%s: %w", opName(op), op.Collection, op.ID, err)
			}
		}
		return tx.Commit()
	})
}

func (b *Backend) Close() error {
	b.mu.Lock()
	db := b.db
	b.db = nil
	b.mu.Unlock()

	if db == nil {
		return nil
	}
	err := db.Close()
	b.logger.Info("sqlite backend closed", zap.String("path", b.path))
	return err
}

// execute runs fn under retry inside the breaker.
func (b *Backend) execute(ctx context.Context, fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, b.retry, fn)
	})
	return err
}

func (b *Backend) conn() *sql.DB {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.db
}

func known(ctx context.Context, db *sql.DB, collection string) error {
	var n int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collections WHERE name = ?`, collection,
	).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return resilience.Permanent(&unknownCollectionError{name: collection})
	}
	return nil
}

type unknownCollectionError struct{ name string }

func (e *unknownCollectionError) Error() string {
	return fmt.Sprintf("unknown collection %q", e.name)
}

func opName(op port.Op) string {
	if op.Doc == nil {
		return "delete"
	}
	return "upsert"
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}

func isConstraint(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "constraint")
}

// isBackendFault keeps caller mistakes and cancellations from tripping
// the breaker.
func isBackendFault(err error) bool {
	var unknown *unknownCollectionError
	switch {
	case errors.As(err, &unknown), isConstraint(err):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// Ensure Backend implements port.Backend.
var _ port.Backend = (*Backend)(nil)

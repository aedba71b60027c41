package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/infra/memory"
	"github.com/boddenberg/finance-store-go/internal/infra/observability"
	"github.com/boddenberg/finance-store-go/internal/infra/resilience"
	"github.com/boddenberg/finance-store-go/internal/port"
	"github.com/boddenberg/finance-store-go/internal/schema"
)

// State is the facade lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// DefaultWriteTimeout bounds how long a write waits for the writer gate when
// Options.WriteTimeout is not set.
const DefaultWriteTimeout = 5 * time.Second

// BackendFactory creates a fresh, unopened backend for each initialization.
type BackendFactory func(ctx context.Context) (port.Backend, error)

// Options configures a Facade. Zero values select the volatile memory
// backend, the finance schema, the wall clock, UUID keys and
// DefaultWriteTimeout.
type Options struct {
	Backend      BackendFactory
	Registry     *schema.Registry
	Clock        func() time.Time
	NewID        func() string
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	// WriteTimeout bounds the wait for the writer gate. Zero selects
	// DefaultWriteTimeout.
	WriteTimeout time.Duration
	// OpenRetry retries backend.Open on failure.
	OpenRetry resilience.Config
}

// Facade owns the lifecycle of the database: a coalesced one-time open,
// close, and accessors that fail unless the database is ready. It is meant
// to be constructed once by the program entry point and passed down.
type Facade struct {
	opts  Options
	group singleflight.Group

	// lifecycle serializes construction and teardown.
	lifecycle sync.Mutex

	mu    sync.RWMutex
	state State
	db    *Database
}

// NewFacade creates a facade in the Uninitialized state.
func NewFacade(opts Options) *Facade {
	if opts.Backend == nil {
		opts.Backend = func(context.Context) (port.Backend, error) { return memory.New(), nil }
	}
	if opts.Registry == nil {
		opts.Registry = schema.Finance()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	opts.Logger = observability.Named(opts.Logger, "store")
	return &Facade{opts: opts}
}

// State returns the current lifecycle state.
func (f *Facade) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Open returns the database, constructing it on first use. Concurrent
// callers share one construction. A failed construction returns
// ErrInitialization and leaves the facade Uninitialized, so the next Open
// retries. Cancelling ctx stops this caller's wait, not the construction.
func (f *Facade) Open(ctx context.Context) (*Database, error) {
	f.mu.RLock()
	if f.state == StateReady {
		db := f.db
		f.mu.RUnlock()
		return db, nil
	}
	f.mu.RUnlock()

	ch := f.group.DoChan("open", func() (any, error) {
		return f.open(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Database), nil
	}
}

func (f *Facade) open(ctx context.Context) (*Database, error) {
	f.lifecycle.Lock()
	defer f.lifecycle.Unlock()

	f.mu.Lock()
	if f.state == StateReady {
		db := f.db
		f.mu.Unlock()
		return db, nil
	}
	f.state = StateInitializing
	f.mu.Unlock()

	start := time.Now()
	db, err := f.build(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateUninitialized
		f.opts.Metrics.IncrInit("failure")
		f.opts.Logger.Error("database initialization failed", zap.Error(err))
		return nil, &domain.ErrInitialization{Err: err}
	}
	f.db = db
	f.state = StateReady
	f.opts.Metrics.IncrInit("success")
	f.opts.Logger.Info("database ready",
		zap.Strings("collections", f.opts.Registry.Names()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return db, nil
}

func (f *Facade) build(ctx context.Context) (*Database, error) {
	if err := f.opts.Registry.Check(); err != nil {
		return nil, fmt.Errorf("schema registry: %w", err)
	}
	backend, err := f.opts.Backend(ctx)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	err = resilience.RetryWithBackoff(ctx, f.opts.OpenRetry, func() error {
		return backend.Open(ctx, f.opts.Registry.Names())
	})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("open backend: %w", err)
	}

	eng := &engine{
		backend:      backend,
		registry:     f.opts.Registry,
		gate:         resilience.NewBulkhead(1),
		now:          f.opts.Clock,
		newID:        f.opts.NewID,
		logger:       f.opts.Logger,
		metrics:      f.opts.Metrics,
		writeTimeout: f.opts.WriteTimeout,
	}
	db, err := newDatabase(eng)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the database and returns the facade to Uninitialized. It
// waits for an initialization in progress and is a no-op when not open.
func (f *Facade) Close(ctx context.Context) error {
	f.lifecycle.Lock()
	defer f.lifecycle.Unlock()

	f.mu.Lock()
	db := f.db
	f.db = nil
	f.state = StateUninitialized
	f.mu.Unlock()

	if db == nil {
		return nil
	}
	err := db.close(ctx)
	f.opts.Logger.Info("database closed", zap.Error(err))
	return err
}

// Database returns the open handle or ErrNotReady.
func (f *Facade) Database() (*Database, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.state != StateReady {
		return nil, &domain.ErrNotReady{State: f.state.String()}
	}
	return f.db, nil
}

// Accounts returns the accounts collection, or ErrNotReady unless the facade is Ready.
func (f *Facade) Accounts() (*Collection[domain.Account], error) {
	db, err := f.Database()
	if err != nil {
		return nil, err
	}
	return db.Accounts(), nil
}

// Transactions returns the transactions collection, or ErrNotReady unless the facade is Ready.
func (f *Facade) Transactions() (*Collection[domain.Transaction], error) {
	db, err := f.Database()
	if err != nil {
		return nil, err
	}
	return db.Transactions(), nil
}

// Budgets returns the budgets collection, or ErrNotReady unless the facade is Ready.
func (f *Facade) Budgets() (*Collection[domain.Budget], error) {
	db, err := f.Database()
	if err != nil {
		return nil, err
	}
	return db.Budgets(), nil
}

// Investments returns the investments collection, or ErrNotReady unless the facade is Ready.
func (f *Facade) Investments() (*Collection[domain.Investment], error) {
	db, err := f.Database()
	if err != nil {
		return nil, err
	}
	return db.Investments(), nil
}

// Goals returns the goals collection, or ErrNotReady unless the facade is Ready.
func (f *Facade) Goals() (*Collection[domain.Goal], error) {
	db, err := f.Database()
	if err != nil {
		return nil, err
	}
	return db.Goals(), nil
}

package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/domain"
)

// Database is the handle to one open set of collections. After the facade
// closes it, every operation fails with ErrNotReady.
type Database struct {
	eng         *engine
	accounts    *Collection[domain.Account]
	txs         *Collection[domain.Transaction]
	budgets     *Collection[domain.Budget]
	investments *Collection[domain.Investment]
	goals       *Collection[domain.Goal]
}

func newDatabase(eng *engine) (*Database, error) {
	db := &Database{eng: eng}
	var err error
	if db.accounts, err = newCollection[domain.Account](eng, domain.CollectionAccounts); err != nil {
		return nil, err
	}
	if db.txs, err = newCollection[domain.Transaction](eng, domain.CollectionTransactions); err != nil {
		return nil, err
	}
	if db.budgets, err = newCollection[domain.Budget](eng, domain.CollectionBudgets); err != nil {
		return nil, err
	}
	if db.investments, err = newCollection[domain.Investment](eng, domain.CollectionInvestments); err != nil {
		return nil, err
	}
	if db.goals, err = newCollection[domain.Goal](eng, domain.CollectionGoals); err != nil {
		return nil, err
	}
	return db, nil
}

func (d *Database) Accounts() *Collection[domain.Account]         { return d.accounts }
func (d *Database) Transactions() *Collection[domain.Transaction] { return d.txs }
func (d *Database) Budgets() *Collection[domain.Budget]           { return d.budgets }
func (d *Database) Investments() *Collection[domain.Investment]   { return d.investments }
func (d *Database) Goals() *Collection[domain.Goal]               { return d.goals }

// Ready reports whether the handle is still open.
func (d *Database) Ready() bool { return d.eng.ready() == nil }

// Now returns the store clock's current time.
func (d *Database) Now() time.Time { return d.eng.now() }

// RunInTx runs fn as one atomic unit across collections. Collection calls
// made with the ctx passed to fn are staged and become visible to other
// callers only when fn returns nil and the commit succeeds. A nested call
// joins the outer transaction. Using a different context inside fn for a
// write waits on the writer gate and fails with context.DeadlineExceeded
// once the write timeout (DefaultWriteTimeout unless set) elapses.
func (d *Database) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "Database.RunInTx")
	defer span.End()

	err := d.eng.runInTx(ctx, fn)
	if err != nil {
		d.eng.logger.Debug("transaction aborted", zap.Error(err))
	}
	return err
}

// close stops new writes, waits for the in-flight commit and releases the
// backend.
func (d *Database) close(ctx context.Context) error {
	if err := d.eng.gate.Acquire(ctx); err != nil {
		d.eng.logger.Warn("closing without writer gate", zap.Error(err))
	} else {
		defer d.eng.gate.Release()
	}
	d.eng.closed.Store(true)
	return d.eng.backend.Close()
}

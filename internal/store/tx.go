package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/boddenberg/finance-store-go/internal/port"
)

type txKey struct{}

type stagedDoc struct {
	doc     []byte
	deleted bool
}

type docKey struct {
	collection string
	id         string
}

// tx stages writes until commit. Reads made with the tx in context see the
// staged state.
type tx struct {
	eng   *engine
	mu    sync.Mutex
	docs  map[string]map[string]stagedDoc
	order []docKey
	done  bool
}

func newTx(e *engine) *tx {
	return &tx{eng: e, docs: make(map[string]map[string]stagedDoc)}
}

func (e *engine) txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	if t == nil || t.eng != e {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	return t
}

var errTxDone = errors.New("store: transaction already finished")

func (t *tx) put(collection, id string, doc []byte) error {
	return t.set(collection, id, stagedDoc{doc: slices.Clone(doc)})
}

func (t *tx) remove(collection, id string) error {
	return t.set(collection, id, stagedDoc{deleted: true})
}

func (t *tx) set(collection, id string, st stagedDoc) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return errTxDone
	}
	docs, ok := t.docs[collection]
	if !ok {
		docs = make(map[string]stagedDoc)
		t.docs[collection] = docs
	}
	if _, seen := docs[id]; !seen {
		t.order = append(t.order, docKey{collection: collection, id: id})
	}
	docs[id] = st
	return nil
}

// lookup returns the staged state of one key; ok is false when untouched.
func (t *tx) lookup(collection, id string) (doc []byte, deleted, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.docs[collection][id]
	if !ok {
		return nil, false, false
	}
	return slices.Clone(st.doc), st.deleted, true
}

// staged returns a copy of the staged writes for one collection.
func (t *tx) staged(collection string) map[string]stagedDoc {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]stagedDoc, len(t.docs[collection]))
	for id, st := range t.docs[collection] {
		out[id] = st
	}
	return out
}

// finish closes the tx to further writes and returns its ops in first-touch order.
func (t *tx) finish() []port.Op {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done = true
	ops := make([]port.Op, 0, len(t.order))
	for _, k := range t.order {
		st := t.docs[k.collection][k.id]
		op := port.Op{Collection: k.collection, ID: k.id}
		if !st.deleted {
			op.Doc = st.doc
		}
		ops = append(ops, op)
	}
	return ops
}

package schema_test

import (
	"testing"

	"github.com/boddenberg/finance-store-go/internal/schema"
)

func TestFinanceRegistry_Check(t *testing.T) {
	r := schema.Finance()
	if err := r.Check(); err != nil {
		t.Fatalf("expected well-formed registry, got %v", err)
	}
	if got := len(r.Names()); got != 5 {
		t.Errorf("expected 5 collections, got %d", got)
	}
}

func TestRegistry_DuplicateRegister(t *testing.T) {
	r := schema.NewRegistry()
	if err := r.Register(schema.Account()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(schema.Account()); err == nil {
		t.Fatal("expected error registering accounts twice")
	}
}

func TestRegistry_CheckRejectsBadDescriptors(t *testing.T) {
	d := schema.Account()
	d.Indexes = append(d.Indexes, "missing")
	d.Properties["code"] = schema.Property{Type: schema.TypeString, Pattern: "("}

	r := schema.NewRegistry()
	_ = r.Register(d)
	_ = r.Register(schema.Transaction())

	if err := r.Check(); err == nil {
		t.Fatal("expected check to fail")
	}
}

func TestRegistry_CheckRejectsDanglingRef(t *testing.T) {
	r := schema.NewRegistry()
	_ = r.Register(schema.Transaction()) // refs accounts, which is not registered
	if err := r.Check(); err == nil {
		t.Fatal("expected dangling ref error")
	}
}

func TestRegistry_Referrers(t *testing.T) {
	refs := schema.Finance().Referrers("accounts")
	if len(refs) != 1 || refs[0].Collection != "transactions" || refs[0].Field != "accountId" {
		t.Errorf("unexpected referrers: %+v", refs)
	}
}

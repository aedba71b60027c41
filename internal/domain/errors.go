package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the store.

// Violation is one failed schema rule.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Field == "" {
		return fmt.Sprintf("%s: %s", v.Rule, v.Message)
	}
	return fmt.Sprintf("%s (%s): %s", v.Field, v.Rule, v.Message)
}

// ErrValidation indicates a record failed its schema. Never retried.
type ErrValidation struct {
	Collection string
	Violations []Violation
}

func (e *ErrValidation) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Collection, strings.Join(parts, "; "))
}

// Has reports whether a violation exists for field and rule. An empty rule matches any rule.
func (e *ErrValidation) Has(field, rule string) bool {
	for _, v := range e.Violations {
		if v.Field == field && (rule == "" || v.Rule == rule) {
			return true
		}
	}
	return false
}

// ErrNotFound indicates the primary key is absent from the collection.
type ErrNotFound struct {
	Collection string
	ID         string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Collection, e.ID)
}

// ErrDuplicateKey indicates an insert targeted an existing primary key.
type ErrDuplicateKey struct {
	Collection string
	ID         string
}

func (e *ErrDuplicateKey) Error() string {
	return fmt.Sprintf("duplicate key in %s: %s", e.Collection, e.ID)
}

// ErrAccountInUse indicates an account delete was blocked because
// transactions still reference it.
type ErrAccountInUse struct {
	AccountID    string
	Transactions int
}

func (e *ErrAccountInUse) Error() string {
	return fmt.Sprintf("account %s is referenced by %d transaction(s)", e.AccountID, e.Transactions)
}

// ErrInitialization wraps the cause of a failed database open.
// The facade resets so the open can be retried.
type ErrInitialization struct {
	Err error
}

func (e *ErrInitialization) Error() string {
	return fmt.Sprintf("database initialization failed: %v", e.Err)
}

func (e *ErrInitialization) Unwrap() error {
	return e.Err
}

// ErrNotReady indicates a collection was used outside the Ready state.
type ErrNotReady struct {
	State string
}

func (e *ErrNotReady) Error() string {
	return fmt.Sprintf("database not ready (state: %s)", e.State)
}

// ErrBackend wraps a failure of the storage backend.
type ErrBackend struct {
	Op  string
	Err error
}

func (e *ErrBackend) Error() string {
	return fmt.Sprintf("backend error [%s]: %v", e.Op, e.Err)
}

func (e *ErrBackend) Unwrap() error {
	return e.Err
}

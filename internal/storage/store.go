// Package storage implements the per-user document store behind the tracker:
// three collections (transactions, recurring expenses, accounts) with
// full-collection snapshot reads and atomic multi-document batch commits.
package storage

import (
	"context"
	"errors"

	"grana/internal/core"
)

var (
	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrEmptyBatch is returned by Commit when the batch holds no operations.
	ErrEmptyBatch = errors.New("empty batch")
)

// Store is the narrow contract every backend satisfies. Snapshot is a
// full-collection read; Commit applies a batch atomically, all-or-nothing.
type Store interface {
	Snapshot(ctx context.Context, userID string) (core.Snapshot, error)
	Commit(ctx context.Context, userID string, batch *Batch) error
	// UserIDs lists every user holding documents, for sweep scheduling.
	UserIDs(ctx context.Context) ([]string, error)
	Close() error
}

type opKind int

const (
	opPutTransaction opKind = iota
	opDeleteTransaction
	opPutRecurringExpense
	opDeleteRecurringExpense
	opPutAccount
	opDeleteAccount
)

type op struct {
	kind        opKind
	id          string
	transaction core.Transaction
	recurring   core.RecurringExpense
	account     core.Account
}

// Batch collects document writes to be committed as one atomic unit.
// Put operations insert or replace by id.
type Batch struct {
	ops []op
}

func (b *Batch) PutTransaction(t core.Transaction) *Batch {
	b.ops = append(b.ops, op{kind: opPutTransaction, id: t.ID, transaction: t})
	return b
}

func (b *Batch) DeleteTransaction(id string) *Batch {
	b.ops = append(b.ops, op{kind: opDeleteTransaction, id: id})
	return b
}

func (b *Batch) PutRecurringExpense(r core.RecurringExpense) *Batch {
	b.ops = append(b.ops, op{kind: opPutRecurringExpense, id: r.ID, recurring: r})
	return b
}

func (b *Batch) DeleteRecurringExpense(id string) *Batch {
	b.ops = append(b.ops, op{kind: opDeleteRecurringExpense, id: id})
	return b
}

func (b *Batch) PutAccount(a core.Account) *Batch {
	b.ops = append(b.ops, op{kind: opPutAccount, id: a.ID, account: a})
	return b
}

func (b *Batch) DeleteAccount(id string) *Batch {
	b.ops = append(b.ops, op{kind: opDeleteAccount, id: id})
	return b
}

// Len reports the number of queued operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

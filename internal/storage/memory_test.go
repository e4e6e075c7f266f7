package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"grana/internal/core"
)

func testTransaction(id string, day int) core.Transaction {
	return core.Transaction{
		ID:          id,
		Description: "Mercado",
		Amount:      decimal.NewFromInt(120),
		Type:        core.Expense,
		Category:    core.CategoryFood,
		Date:        core.NewDate(2024, 4, day),
	}
}

func TestCommitAndSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	batch := (&Batch{}).
		PutTransaction(testTransaction("t2", 20)).
		PutTransaction(testTransaction("t1", 5)).
		PutAccount(core.Account{ID: "a1", Name: "Reserva", CurrentValue: decimal.NewFromInt(500)}).
		PutRecurringExpense(core.RecurringExpense{
			ID:          "r1",
			Description: "Aluguel",
			Amount:      decimal.NewFromInt(1200),
			Category:    core.CategoryOther,
			StartDate:   core.NewDate(2024, 1, 15),
			Frequency:   core.Monthly,
		})
	if err := store.Commit(ctx, "u1", batch); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	snap, err := store.Snapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Transactions) != 2 || len(snap.Accounts) != 1 || len(snap.RecurringExpenses) != 1 {
		t.Fatalf("snapshot sizes = %d/%d/%d, want 2/1/1",
			len(snap.Transactions), len(snap.Accounts), len(snap.RecurringExpenses))
	}
	// Transactions come back date-ordered regardless of insertion order.
	if snap.Transactions[0].ID != "t1" || snap.Transactions[1].ID != "t2" {
		t.Errorf("transaction order = %s, %s, want t1, t2",
			snap.Transactions[0].ID, snap.Transactions[1].ID)
	}
}

func TestCommitEmptyBatch(t *testing.T) {
	store := NewMemoryStore()

	err := store.Commit(context.Background(), "u1", &Batch{})
	if !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Commit() error = %v, want ErrEmptyBatch", err)
	}
}

func TestPutReplacesByID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := testTransaction("t1", 5)
	if err := store.Commit(ctx, "u1", (&Batch{}).PutTransaction(first)); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	updated := first
	updated.Description = "Feira"
	if err := store.Commit(ctx, "u1", (&Batch{}).PutTransaction(updated)); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	snap, err := store.Snapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Transactions) != 1 {
		t.Fatalf("len(Transactions) = %d, want 1", len(snap.Transactions))
	}
	if snap.Transactions[0].Description != "Feira" {
		t.Errorf("Description = %q, want %q", snap.Transactions[0].Description, "Feira")
	}
}

func TestDeleteInBatch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seed := (&Batch{}).
		PutTransaction(testTransaction("t1", 5)).
		PutTransaction(testTransaction("t2", 6))
	if err := store.Commit(ctx, "u1", seed); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	change := (&Batch{}).
		DeleteTransaction("t1").
		PutTransaction(testTransaction("t3", 7))
	if err := store.Commit(ctx, "u1", change); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	snap, _ := store.Snapshot(ctx, "u1")
	if len(snap.Transactions) != 2 {
		t.Fatalf("len(Transactions) = %d, want 2", len(snap.Transactions))
	}
	for _, tx := range snap.Transactions {
		if tx.ID == "t1" {
			t.Error("deleted transaction t1 still present")
		}
	}
}

func TestSnapshotIsolatesUsers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Commit(ctx, "u1", (&Batch{}).PutTransaction(testTransaction("t1", 5))); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	snap, err := store.Snapshot(ctx, "u2")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Transactions) != 0 {
		t.Errorf("u2 sees %d transactions, want 0", len(snap.Transactions))
	}
}

func TestSnapshotDoesNotRegisterUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	snap, err := store.Snapshot(ctx, "ghost")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Transactions) != 0 || len(snap.RecurringExpenses) != 0 || len(snap.Accounts) != 0 {
		t.Fatalf("snapshot for unknown user not empty: %d/%d/%d",
			len(snap.Transactions), len(snap.RecurringExpenses), len(snap.Accounts))
	}

	ids, err := store.UserIDs(ctx)
	if err != nil {
		t.Fatalf("UserIDs() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("UserIDs() after read-only access = %v, want empty", ids)
	}
}

func TestCommitErrAppliesNothing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.CommitErr = errors.New("backend down")

	err := store.Commit(ctx, "u1", (&Batch{}).PutTransaction(testTransaction("t1", 5)))
	if err == nil {
		t.Fatal("Commit() error = nil, want failure")
	}

	store.CommitErr = nil
	snap, _ := store.Snapshot(ctx, "u1")
	if len(snap.Transactions) != 0 {
		t.Errorf("failed commit applied %d transactions", len(snap.Transactions))
	}
}

func TestUserIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, uid := range []string{"u2", "u1"} {
		if err := store.Commit(ctx, uid, (&Batch{}).PutTransaction(testTransaction("t-"+uid, 5))); err != nil {
			t.Fatalf("Commit(%s) error = %v", uid, err)
		}
	}

	ids, err := store.UserIDs(ctx)
	if err != nil {
		t.Fatalf("UserIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "u1" || ids[1] != "u2" {
		t.Errorf("UserIDs() = %v, want [u1 u2]", ids)
	}
}

func TestCredentials(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.CreateUser(ctx, "u1", "ana@example.com", "hash1"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := store.CreateUser(ctx, "u2", "ana@example.com", "hash2"); err == nil {
		t.Error("CreateUser() with duplicate email succeeded")
	}

	id, hash, err := store.UserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("UserByEmail() error = %v", err)
	}
	if id != "u1" || hash != "hash1" {
		t.Errorf("UserByEmail() = %q, %q, want u1, hash1", id, hash)
	}

	if _, _, err := store.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UserByEmail(unknown) error = %v, want ErrNotFound", err)
	}

	if err := store.UpdatePassword(ctx, "u1", "hash3"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}
	_, hash, _ = store.UserByEmail(ctx, "ana@example.com")
	if hash != "hash3" {
		t.Errorf("hash after update = %q, want hash3", hash)
	}

	if err := store.UpdatePassword(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePassword(missing) error = %v, want ErrNotFound", err)
	}
}

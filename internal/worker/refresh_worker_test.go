package worker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"grana/internal/amqp"
	"grana/internal/core"
	"grana/internal/services"
	"grana/internal/storage"
)

func fixedNow() time.Time {
	return time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)
}

func seedRecurring(t *testing.T, store *storage.MemoryStore, userID string) {
	t.Helper()

	batch := &storage.Batch{}
	batch.PutRecurringExpense(core.RecurringExpense{
		ID:          "r1",
		Description: "Aluguel",
		Amount:      decimal.NewFromInt(1200),
		Category:    core.CategoryOther,
		StartDate:   core.NewDate(2024, 2, 15),
		Frequency:   core.Monthly,
	})
	if err := store.Commit(context.Background(), userID, batch); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func newWorker(store *storage.MemoryStore) *RefreshWorker {
	syncSvc := services.NewSyncService(store, services.NopNotifier{}, 0)
	syncSvc.Now = fixedNow
	return NewRefreshWorker(store, syncSvc)
}

func TestHandleChangeMaterializes(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedRecurring(t, store, "u1")
	w := newWorker(store)

	msg := amqp.NewChangeMessage("u1", amqp.CollectionRecurringExpenses)
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}

	snap, err := store.Snapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Transactions) != 3 {
		t.Errorf("materialized %d occurrences, want 3", len(snap.Transactions))
	}
}

func TestHandleChangeUnknownUser(t *testing.T) {
	w := newWorker(storage.NewMemoryStore())

	msg := amqp.NewChangeMessage("ghost", amqp.CollectionTransactions)
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Errorf("HandleChange for empty user = %v, want nil", err)
	}
}

func TestSweepRefreshesAllUsers(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedRecurring(t, store, "u1")
	seedRecurring(t, store, "u2")
	w := newWorker(store)

	if err := w.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	for _, uid := range []string{"u1", "u2"} {
		snap, err := store.Snapshot(ctx, uid)
		if err != nil {
			t.Fatalf("Snapshot(%s): %v", uid, err)
		}
		if len(snap.Transactions) != 3 {
			t.Errorf("user %s has %d occurrences, want 3", uid, len(snap.Transactions))
		}
	}
}

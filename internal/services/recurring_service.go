package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"grana/internal/core"
	"grana/internal/storage"
)

// RecurringService manages recurring-expense definitions. Materialization of
// their occurrences is the SyncService's job.
type RecurringService struct {
	store    storage.Store
	notifier Notifier
}

func NewRecurringService(store storage.Store, notifier Notifier) *RecurringService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &RecurringService{store: store, notifier: notifier}
}

// Create validates and stores a recurring-expense definition.
func (s *RecurringService) Create(ctx context.Context, userID string, r core.RecurringExpense) (core.RecurringExpense, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := r.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}

	batch := &storage.Batch{}
	batch.PutRecurringExpense(r)
	if err := s.store.Commit(ctx, userID, batch); err != nil {
		return core.RecurringExpense{}, fmt.Errorf("create recurring expense: %w", err)
	}
	s.publish(ctx, userID, "recurringExpenses")
	return r, nil
}

// Delete removes a definition. Already-materialized occurrences stay in the
// ledger; only future materialization stops.
func (s *RecurringService) Delete(ctx context.Context, userID, id string) error {
	batch := &storage.Batch{}
	batch.DeleteRecurringExpense(id)
	if err := s.store.Commit(ctx, userID, batch); err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	s.publish(ctx, userID, "recurringExpenses")
	return nil
}

func (s *RecurringService) publish(ctx context.Context, userID, collection string) {
	if err := s.notifier.PublishChange(ctx, userID, collection); err != nil {
		slog.WarnContext(ctx, "Failed to publish change notification",
			"user_id", userID,
			"collection", collection,
			"error", err)
	}
}

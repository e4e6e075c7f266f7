// Package worker drives background materialization: change messages from
// the queue trigger a refresh for the user that changed, and a daily sweep
// catches users whose occurrences came due with no activity.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"grana/internal/amqp"
	"grana/internal/services"
	"grana/internal/storage"
)

type RefreshWorker struct {
	store   storage.Store
	syncSvc *services.SyncService
}

func NewRefreshWorker(store storage.Store, syncSvc *services.SyncService) *RefreshWorker {
	return &RefreshWorker{
		store:   store,
		syncSvc: syncSvc,
	}
}

// HandleChange processes one change message. Recurring-expense changes and
// transaction changes both re-drive the fixed point; a refresh that settles
// with nothing to do is cheap.
func (w *RefreshWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"user_id", msg.UserID,
		"collection", msg.Collection)

	if _, err := w.syncSvc.Refresh(ctx, msg.UserID); err != nil {
		if errors.Is(err, services.ErrMaterializationDiverged) {
			// Requeueing cannot fix a diverged loop, so log and ack.
			slog.ErrorContext(ctx, "Materialization diverged",
				"user_id", msg.UserID)
			return nil
		}
		return fmt.Errorf("refresh user %s: %w", msg.UserID, err)
	}

	return nil
}

// Sweep refreshes every known user. Run daily so occurrences that fall due
// without any user activity still get materialized.
func (w *RefreshWorker) Sweep(ctx context.Context) error {
	userIDs, err := w.store.UserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var failed int
	for _, uid := range userIDs {
		if _, err := w.syncSvc.Refresh(ctx, uid); err != nil {
			slog.ErrorContext(ctx, "Sweep refresh failed",
				"user_id", uid,
				"error", err)
			failed++
		}
	}

	slog.InfoContext(ctx, "Sweep complete",
		"users", len(userIDs),
		"failed", failed)

	if failed > 0 {
		return fmt.Errorf("sweep: %d of %d users failed", failed, len(userIDs))
	}
	return nil
}

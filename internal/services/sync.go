package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"grana/internal/core"
	"grana/internal/storage"
)

// DefaultMaxPasses bounds the materialize-commit-refetch loop. One pass
// normally settles everything; the cap turns a loop that keeps producing
// writes into an error instead of an endless refresh cycle.
const DefaultMaxPasses = 3

// ErrMaterializationDiverged is returned when the refresh loop still finds
// missing occurrences after the configured number of passes.
var ErrMaterializationDiverged = errors.New("materialization still producing writes after max passes")

// Notifier publishes change notifications after successful commits.
type Notifier interface {
	PublishChange(ctx context.Context, userID, collection string) error
}

// NopNotifier discards notifications, for AMQP-less deployments and tests.
type NopNotifier struct{}

func (NopNotifier) PublishChange(context.Context, string, string) error { return nil }

// SyncService drives the snapshot refresh cycle: refetch the user's
// collections, materialize missing recurring occurrences, commit them as one
// batch, and repeat until a pass produces no writes. Computation for one
// user is serialized; the snapshot handed back is always settled.
type SyncService struct {
	store     storage.Store
	notifier  Notifier
	maxPasses int

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

func NewSyncService(store storage.Store, notifier Notifier, maxPasses int) *SyncService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	return &SyncService{
		store:     store,
		notifier:  notifier,
		maxPasses: maxPasses,
		Now:       time.Now,
		users:     make(map[string]*sync.Mutex),
	}
}

func (s *SyncService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.users[userID]
	if !ok {
		l = &sync.Mutex{}
		s.users[userID] = l
	}
	return l
}

// Refresh runs the bounded fixed-point loop for one user and returns the
// settled snapshot. A commit failure abandons the pass and surfaces the
// error; nothing is retried here, the next change notification re-drives it.
func (s *SyncService) Refresh(ctx context.Context, userID string) (core.Snapshot, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	today := core.DateOf(s.Now())

	for pass := 0; pass < s.maxPasses; pass++ {
		snap, err := s.store.Snapshot(ctx, userID)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("fetch snapshot: %w", err)
		}

		missing := MissingOccurrences(snap, today)
		if len(missing) == 0 {
			return snap, nil
		}

		batch := &storage.Batch{}
		for _, t := range missing {
			batch.PutTransaction(t)
		}
		if err := s.store.Commit(ctx, userID, batch); err != nil {
			slog.ErrorContext(ctx, "Materialization batch failed, abandoning pass",
				"user_id", userID,
				"occurrences", len(missing),
				"error", err)
			return snap, fmt.Errorf("commit materialized occurrences: %w", err)
		}

		slog.InfoContext(ctx, "Materialized recurring occurrences",
			"user_id", userID,
			"occurrences", len(missing),
			"pass", pass+1)

		if err := s.notifier.PublishChange(ctx, userID, "transactions"); err != nil {
			slog.WarnContext(ctx, "Failed to publish change notification",
				"user_id", userID,
				"error", err)
		}
	}

	// The loop re-reads after every commit, so reaching the cap means some
	// pass kept finding new work against its own output.
	snap, err := s.store.Snapshot(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("fetch snapshot: %w", err)
	}
	if len(MissingOccurrences(snap, today)) > 0 {
		return snap, ErrMaterializationDiverged
	}
	return snap, nil
}

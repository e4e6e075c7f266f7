package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"grana/internal/core"
	"grana/internal/storage"
)

// TransactionService records user-entered transactions. Investment-category
// entries linked to an account credit the account balance in the same batch.
type TransactionService struct {
	store    storage.Store
	notifier Notifier

	Now func() time.Time
}

func NewTransactionService(store storage.Store, notifier Notifier) *TransactionService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TransactionService{store: store, notifier: notifier, Now: time.Now}
}

// Create validates and stores a transaction. When the transaction is an
// investment contribution tied to an account, the account's cached balance
// is credited atomically with the ledger entry.
func (s *TransactionService) Create(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	// The VR flag only applies to food expenses paid with the voucher.
	if t.PaidWithVR && t.Category != core.CategoryFood {
		t.PaidWithVR = false
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	batch := &storage.Batch{}
	batch.PutTransaction(t)

	if t.Category == core.CategoryInvestment && t.AccountID != "" {
		snap, err := s.store.Snapshot(ctx, userID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("fetch snapshot: %w", err)
		}
		acc, ok := snap.Account(t.AccountID)
		if !ok {
			return core.Transaction{}, storage.ErrNotFound
		}
		acc.CurrentValue = acc.CurrentValue.Add(t.Amount)
		batch.PutAccount(acc)
	}

	if err := s.store.Commit(ctx, userID, batch); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.publish(ctx, userID, "transactions")
	return t, nil
}

// Delete removes a transaction by id.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	batch := &storage.Batch{}
	batch.DeleteTransaction(id)
	if err := s.store.Commit(ctx, userID, batch); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, userID, "transactions")
	return nil
}

// CreateInstallmentPlan splits a total amount into count equal monthly
// expense transactions starting at startDate, committed as one batch. Each
// installment is labeled "description (i/count)".
func (s *TransactionService) CreateInstallmentPlan(ctx context.Context, userID, description string, total decimal.Decimal, category string, startDate core.Date, count int) ([]core.Transaction, error) {
	if count < 2 {
		return nil, fmt.Errorf("installment count must be at least 2, got %d", count)
	}
	if !total.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	installment := total.Div(decimal.NewFromInt(int64(count))).Round(2)

	batch := &storage.Batch{}
	txs := make([]core.Transaction, 0, count)
	for i := 0; i < count; i++ {
		t := core.Transaction{
			ID:          uuid.NewString(),
			Description: fmt.Sprintf("%s (%d/%d)", description, i+1, count),
			Amount:      installment,
			Type:        core.Expense,
			Category:    category,
			Date:        startDate.AddMonths(i),
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		batch.PutTransaction(t)
		txs = append(txs, t)
	}

	if err := s.store.Commit(ctx, userID, batch); err != nil {
		return nil, fmt.Errorf("create installment plan: %w", err)
	}
	s.publish(ctx, userID, "transactions")
	return txs, nil
}

func (s *TransactionService) publish(ctx context.Context, userID, collection string) {
	if err := s.notifier.PublishChange(ctx, userID, collection); err != nil {
		slog.WarnContext(ctx, "Failed to publish change notification",
			"user_id", userID,
			"collection", collection,
			"error", err)
	}
}

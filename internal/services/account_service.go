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

// AccountService owns every mutation of Account.CurrentValue. Each operation
// commits the balance update and its ledger transaction as one batch, so the
// cached balance and the transaction log never diverge on a failed write.
type AccountService struct {
	store    storage.Store
	notifier Notifier

	Now func() time.Time
}

func NewAccountService(store storage.Store, notifier Notifier) *AccountService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AccountService{store: store, notifier: notifier, Now: time.Now}
}

// Create adds an account. When deductFromBalance is set and the initial
// value is positive, an investment expense is recorded alongside it so the
// main balance reflects the money moved into the account.
func (s *AccountService) Create(ctx context.Context, userID, name string, initialValue, goalAmount decimal.Decimal, deductFromBalance bool) (core.Account, error) {
	acc := core.Account{
		ID:           uuid.NewString(),
		Name:         name,
		CurrentValue: initialValue,
		GoalAmount:   goalAmount,
		CreatedAt:    s.Now(),
	}
	if err := acc.Validate(); err != nil {
		return core.Account{}, err
	}
	if initialValue.IsNegative() {
		return core.Account{}, core.ErrInvalidAmount
	}

	batch := &storage.Batch{}
	batch.PutAccount(acc)
	if initialValue.IsPositive() && deductFromBalance {
		batch.PutTransaction(core.Transaction{
			ID:          uuid.NewString(),
			Description: "Aporte inicial - " + acc.Name,
			Amount:      initialValue,
			Type:        core.Expense,
			Category:    core.CategoryInvestment,
			Date:        core.DateOf(s.Now()),
			AccountID:   acc.ID,
		})
	}

	if err := s.store.Commit(ctx, userID, batch); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	s.publish(ctx, userID, "accounts")
	return acc, nil
}

// Deposit moves money into the account: balance increases, and an expense
// transaction in the investment category records the outflow from the main
// balance.
func (s *AccountService) Deposit(ctx context.Context, userID, accountID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	acc, err := s.account(ctx, userID, accountID)
	if err != nil {
		return err
	}

	acc.CurrentValue = acc.CurrentValue.Add(amount)
	batch := &storage.Batch{}
	batch.PutAccount(acc)
	batch.PutTransaction(core.Transaction{
		ID:          uuid.NewString(),
		Description: "Aporte - " + acc.Name,
		Amount:      amount,
		Type:        core.Expense,
		Category:    core.CategoryInvestment,
		Date:        core.DateOf(s.Now()),
		AccountID:   acc.ID,
	})

	if err := s.store.Commit(ctx, userID, batch); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	slog.InfoContext(ctx, "Account deposit recorded",
		"user_id", userID,
		"account", acc.Name,
		"amount", core.FormatBRL(amount))
	s.publish(ctx, userID, "accounts")
	return nil
}

// Withdraw moves money out of the account: balance decreases, and an income
// transaction in the redemption category records the inflow to the main
// balance.
func (s *AccountService) Withdraw(ctx context.Context, userID, accountID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	acc, err := s.account(ctx, userID, accountID)
	if err != nil {
		return err
	}

	acc.CurrentValue = acc.CurrentValue.Sub(amount)
	batch := &storage.Batch{}
	batch.PutAccount(acc)
	batch.PutTransaction(core.Transaction{
		ID:          uuid.NewString(),
		Description: "Resgate - " + acc.Name,
		Amount:      amount,
		Type:        core.Income,
		Category:    core.CategoryRedemption,
		Date:        core.DateOf(s.Now()),
		AccountID:   acc.ID,
	})

	if err := s.store.Commit(ctx, userID, batch); err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}
	slog.InfoContext(ctx, "Account withdrawal recorded",
		"user_id", userID,
		"account", acc.Name,
		"amount", core.FormatBRL(amount))
	s.publish(ctx, userID, "accounts")
	return nil
}

// SetTotal replaces the account's current value and records the delta as an
// earnings adjustment: income when the value grew, expense when it shrank.
// A zero delta is a no-op.
func (s *AccountService) SetTotal(ctx context.Context, userID, accountID string, newValue decimal.Decimal) error {
	if newValue.IsNegative() {
		return core.ErrInvalidAmount
	}
	acc, err := s.account(ctx, userID, accountID)
	if err != nil {
		return err
	}

	diff := newValue.Sub(acc.CurrentValue)
	if diff.IsZero() {
		return nil
	}

	txType := core.Income
	descPrefix := "Rendimento - "
	if diff.IsNegative() {
		txType = core.Expense
		descPrefix = "Ajuste - "
	}

	acc.CurrentValue = newValue
	batch := &storage.Batch{}
	batch.PutAccount(acc)
	batch.PutTransaction(core.Transaction{
		ID:          uuid.NewString(),
		Description: descPrefix + acc.Name,
		Amount:      diff.Abs(),
		Type:        txType,
		Category:    core.CategoryEarnings,
		Date:        core.DateOf(s.Now()),
		AccountID:   acc.ID,
	})

	if err := s.store.Commit(ctx, userID, batch); err != nil {
		return fmt.Errorf("set total: %w", err)
	}
	s.publish(ctx, userID, "accounts")
	return nil
}

// Delete removes the account and every transaction linked to it. A positive
// remaining balance is returned to the main balance as a closing income
// transaction.
func (s *AccountService) Delete(ctx context.Context, userID, accountID string) error {
	snap, err := s.store.Snapshot(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	acc, ok := snap.Account(accountID)
	if !ok {
		return storage.ErrNotFound
	}

	batch := &storage.Batch{}
	batch.DeleteAccount(acc.ID)
	for _, t := range snap.Transactions {
		if t.AccountID == acc.ID {
			batch.DeleteTransaction(t.ID)
		}
	}
	if acc.CurrentValue.IsPositive() {
		batch.PutTransaction(core.Transaction{
			ID:          uuid.NewString(),
			Description: "Saldo final da conta excluída: " + acc.Name,
			Amount:      acc.CurrentValue,
			Type:        core.Income,
			Category:    core.CategoryOther,
			Date:        core.DateOf(s.Now()),
		})
	}

	if err := s.store.Commit(ctx, userID, batch); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.publish(ctx, userID, "accounts")
	return nil
}

func (s *AccountService) account(ctx context.Context, userID, accountID string) (core.Account, error) {
	snap, err := s.store.Snapshot(ctx, userID)
	if err != nil {
		return core.Account{}, fmt.Errorf("fetch snapshot: %w", err)
	}
	acc, ok := snap.Account(accountID)
	if !ok {
		return core.Account{}, storage.ErrNotFound
	}
	return acc, nil
}

func (s *AccountService) publish(ctx context.Context, userID, collection string) {
	if err := s.notifier.PublishChange(ctx, userID, collection); err != nil {
		slog.WarnContext(ctx, "Failed to publish change notification",
			"user_id", userID,
			"collection", collection,
			"error", err)
	}
}

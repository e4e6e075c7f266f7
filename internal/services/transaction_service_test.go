package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"grana/internal/core"
	"grana/internal/storage"
)

func TestTransactionService_CreateInvestmentCreditsAccount(t *testing.T) {
	store := storage.NewMemoryStore()
	accounts := NewAccountService(store, nil)
	accounts.Now = fixedNow
	acc, err := accounts.Create(context.Background(), "u1", "Reserva", decimal.NewFromInt(500), decimal.Zero, false)
	if err != nil {
		t.Fatalf("Create account: %v", err)
	}

	svc := NewTransactionService(store, nil)
	svc.Now = fixedNow

	_, err = svc.Create(context.Background(), "u1", core.Transaction{
		Description: "Aporte mensal",
		Amount:      decimal.NewFromInt(250),
		Type:        core.Expense,
		Category:    core.CategoryInvestment,
		Date:        core.NewDate(2024, 4, 15),
		AccountID:   acc.ID,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if got := accountValue(t, store, "u1", acc.ID); !got.Equal(decimal.NewFromInt(750)) {
		t.Errorf("CurrentValue = %s, want 750", got)
	}
}

func TestTransactionService_CreateRejectsInvalid(t *testing.T) {
	svc := NewTransactionService(storage.NewMemoryStore(), nil)

	_, err := svc.Create(context.Background(), "u1", core.Transaction{
		Description: "Sem valor",
		Type:        core.Expense,
		Category:    core.CategoryFood,
		Date:        core.NewDate(2024, 4, 15),
	})
	if err != core.ErrInvalidAmount {
		t.Errorf("Create() error = %v, want ErrInvalidAmount", err)
	}
}

func TestTransactionService_VRFlagClearedOutsideFood(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewTransactionService(store, nil)

	tx, err := svc.Create(context.Background(), "u1", core.Transaction{
		Description: "Ônibus",
		Amount:      decimal.NewFromInt(5),
		Type:        core.Expense,
		Category:    "Transporte",
		Date:        core.NewDate(2024, 4, 15),
		PaidWithVR:  true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tx.PaidWithVR {
		t.Error("PaidWithVR kept on non-food category")
	}
}

func TestTransactionService_Delete(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewTransactionService(store, nil)

	tx, err := svc.Create(context.Background(), "u1", core.Transaction{
		Description: "Mercado",
		Amount:      decimal.NewFromInt(80),
		Type:        core.Expense,
		Category:    core.CategoryFood,
		Date:        core.NewDate(2024, 4, 10),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(context.Background(), "u1", tx.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	snap, _ := store.Snapshot(context.Background(), "u1")
	if len(snap.Transactions) != 0 {
		t.Errorf("transactions = %d, want 0", len(snap.Transactions))
	}
}

func TestTransactionService_InstallmentPlan(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewTransactionService(store, nil)

	txs, err := svc.CreateInstallmentPlan(context.Background(), "u1", "Notebook",
		decimal.NewFromInt(3000), "Compras", core.NewDate(2024, 1, 31), 3)
	if err != nil {
		t.Fatalf("CreateInstallmentPlan() error = %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("installments = %d, want 3", len(txs))
	}

	wantDates := []string{"2024-01-31", "2024-02-29", "2024-03-31"}
	for i, tx := range txs {
		if tx.Date.ISO() != wantDates[i] {
			t.Errorf("installment %d date = %s, want %s", i, tx.Date.ISO(), wantDates[i])
		}
		if !tx.Amount.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("installment %d amount = %s, want 1000", i, tx.Amount)
		}
	}
	if txs[0].Description != "Notebook (1/3)" {
		t.Errorf("description = %q, want Notebook (1/3)", txs[0].Description)
	}
}

func TestTransactionService_InstallmentPlanRejectsSingle(t *testing.T) {
	svc := NewTransactionService(storage.NewMemoryStore(), nil)
	if _, err := svc.CreateInstallmentPlan(context.Background(), "u1", "Notebook",
		decimal.NewFromInt(3000), "Compras", core.NewDate(2024, 1, 31), 1); err == nil {
		t.Error("CreateInstallmentPlan() expected error for count < 2")
	}
}

package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"grana/internal/core"
)

func monthlyRent(start core.Date) core.RecurringExpense {
	return core.RecurringExpense{
		ID:          "rec-rent",
		Description: "Aluguel",
		Amount:      decimal.NewFromInt(100),
		Category:    "Moradia",
		StartDate:   start,
		Frequency:   core.Monthly,
	}
}

func TestMissingOccurrences_MonthlyCompleteness(t *testing.T) {
	snap := core.Snapshot{
		RecurringExpenses: []core.RecurringExpense{monthlyRent(core.NewDate(2024, 1, 15))},
	}
	today := core.NewDate(2024, 4, 15)

	got := MissingOccurrences(snap, today)
	if len(got) != 4 {
		t.Fatalf("MissingOccurrences() len = %d, want 4", len(got))
	}

	wantDates := []string{"2024-01-15", "2024-02-15", "2024-03-15", "2024-04-15"}
	for i, tx := range got {
		if tx.Date.ISO() != wantDates[i] {
			t.Errorf("occurrence %d date = %s, want %s", i, tx.Date.ISO(), wantDates[i])
		}
		if tx.Type != core.Expense {
			t.Errorf("occurrence %d type = %s, want expense", i, tx.Type)
		}
		if !tx.Amount.Equal(decimal.NewFromInt(100)) {
			t.Errorf("occurrence %d amount = %s, want 100", i, tx.Amount)
		}
		if tx.Description != "Aluguel (Recorrente)" {
			t.Errorf("occurrence %d description = %q", i, tx.Description)
		}
		if tx.RecurringExpenseID != "rec-rent" {
			t.Errorf("occurrence %d recurring id = %q", i, tx.RecurringExpenseID)
		}
	}
}

func TestMissingOccurrences_Idempotence(t *testing.T) {
	snap := core.Snapshot{
		RecurringExpenses: []core.RecurringExpense{monthlyRent(core.NewDate(2024, 1, 15))},
	}
	today := core.NewDate(2024, 6, 1)

	first := MissingOccurrences(snap, today)
	if len(first) == 0 {
		t.Fatal("first run produced nothing")
	}

	// Apply the first run's output and run again.
	snap.Transactions = append(snap.Transactions, first...)
	second := MissingOccurrences(snap, today)
	if len(second) != 0 {
		t.Errorf("second run produced %d occurrences, want 0", len(second))
	}
}

func TestMissingOccurrences_FillsGapsOnly(t *testing.T) {
	rec := monthlyRent(core.NewDate(2024, 1, 15))
	snap := core.Snapshot{
		RecurringExpenses: []core.RecurringExpense{rec},
		Transactions: []core.Transaction{
			{ID: "t1", RecurringExpenseID: rec.ID, Date: core.NewDate(2024, 1, 15)},
			{ID: "t2", RecurringExpenseID: rec.ID, Date: core.NewDate(2024, 3, 15)},
		},
	}

	got := MissingOccurrences(snap, core.NewDate(2024, 3, 20))
	if len(got) != 1 {
		t.Fatalf("MissingOccurrences() len = %d, want 1", len(got))
	}
	if got[0].Date.ISO() != "2024-02-15" {
		t.Errorf("gap date = %s, want 2024-02-15", got[0].Date.ISO())
	}
}

func TestMissingOccurrences_YearlyCadence(t *testing.T) {
	rec := core.RecurringExpense{
		ID:          "rec-iptu",
		Description: "IPTU",
		Amount:      decimal.NewFromInt(800),
		Category:    "Moradia",
		StartDate:   core.NewDate(2023, 2, 28),
		Frequency:   core.Yearly,
	}
	snap := core.Snapshot{RecurringExpenses: []core.RecurringExpense{rec}}

	got := MissingOccurrences(snap, core.NewDate(2024, 3, 1))
	if len(got) != 2 {
		t.Fatalf("MissingOccurrences() len = %d, want 2", len(got))
	}
	if got[0].Date.ISO() != "2023-02-28" {
		t.Errorf("first occurrence = %s, want 2023-02-28", got[0].Date.ISO())
	}
	// 2024 is a leap year; the anniversary stays on the 28th.
	if got[1].Date.ISO() != "2024-02-28" {
		t.Errorf("second occurrence = %s, want 2024-02-28", got[1].Date.ISO())
	}
}

func TestMissingOccurrences_StartDateInFuture(t *testing.T) {
	snap := core.Snapshot{
		RecurringExpenses: []core.RecurringExpense{monthlyRent(core.NewDate(2024, 5, 1))},
	}
	got := MissingOccurrences(snap, core.NewDate(2024, 4, 1))
	if len(got) != 0 {
		t.Errorf("MissingOccurrences() len = %d, want 0 for future start", len(got))
	}
}

func TestMissingOccurrences_EndOfMonthAnchors(t *testing.T) {
	snap := core.Snapshot{
		RecurringExpenses: []core.RecurringExpense{monthlyRent(core.NewDate(2024, 1, 31))},
	}
	got := MissingOccurrences(snap, core.NewDate(2024, 3, 31))
	wantDates := []string{"2024-01-31", "2024-02-29", "2024-03-31"}
	if len(got) != len(wantDates) {
		t.Fatalf("MissingOccurrences() len = %d, want %d", len(got), len(wantDates))
	}
	for i, tx := range got {
		if tx.Date.ISO() != wantDates[i] {
			t.Errorf("occurrence %d date = %s, want %s", i, tx.Date.ISO(), wantDates[i])
		}
	}
}

func TestSchedulerFor(t *testing.T) {
	if _, err := SchedulerFor(core.Monthly); err != nil {
		t.Errorf("SchedulerFor(monthly) error = %v", err)
	}
	if _, err := SchedulerFor(core.Yearly); err != nil {
		t.Errorf("SchedulerFor(yearly) error = %v", err)
	}
	if _, err := SchedulerFor("weekly"); err == nil {
		t.Error("SchedulerFor(weekly) expected error")
	}
}

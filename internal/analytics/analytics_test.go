package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"grana/internal/core"
)

var testNow = time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func expense(amount, category string, date core.Date) core.Transaction {
	return core.Transaction{
		Description: category,
		Amount:      dec(amount),
		Type:        core.Expense,
		Category:    category,
		Date:        date,
	}
}

func income(amount, category string, date core.Date) core.Transaction {
	return core.Transaction{
		Description: category,
		Amount:      dec(amount),
		Type:        core.Income,
		Category:    category,
		Date:        date,
	}
}

func TestDashboard_VRExclusion(t *testing.T) {
	vrExpense := expense("30", core.CategoryFood, core.NewDate(2024, 4, 10))
	vrExpense.PaidWithVR = true

	snap := core.Snapshot{
		Transactions: []core.Transaction{
			income("50", core.CategoryVRCredit, core.NewDate(2024, 4, 5)),
			vrExpense,
		},
	}

	got := Dashboard(snap, testNow)
	if !got.VRBalance.Equal(dec("20")) {
		t.Errorf("VRBalance = %s, want 20", got.VRBalance)
	}
	if !got.MainBalance.IsZero() {
		t.Errorf("MainBalance = %s, want 0", got.MainBalance)
	}
	if !got.MonthlyIncome.IsZero() || !got.MonthlyExpense.IsZero() {
		t.Errorf("monthly totals = %s/%s, want 0/0", got.MonthlyIncome, got.MonthlyExpense)
	}
}

func TestDashboard_MonthlyTotalsExcludeInternalMovements(t *testing.T) {
	snap := core.Snapshot{
		Transactions: []core.Transaction{
			income("3000", "Salário", core.NewDate(2024, 4, 1)),
			expense("800", core.CategoryFood, core.NewDate(2024, 4, 8)),
			expense("500", core.CategoryInvestment, core.NewDate(2024, 4, 9)),
			income("200", core.CategoryRedemption, core.NewDate(2024, 4, 10)),
			// Previous month, out of the monthly window.
			expense("999", core.CategoryFood, core.NewDate(2024, 3, 20)),
		},
		Accounts: []core.Account{
			{ID: "a1", Name: "Reserva", CurrentValue: dec("1500")},
			{ID: "a2", Name: "Viagem", CurrentValue: dec("250.50")},
		},
	}

	got := Dashboard(snap, testNow)
	if !got.MonthlyIncome.Equal(dec("3000")) {
		t.Errorf("MonthlyIncome = %s, want 3000", got.MonthlyIncome)
	}
	if !got.MonthlyExpense.Equal(dec("800")) {
		t.Errorf("MonthlyExpense = %s, want 800", got.MonthlyExpense)
	}
	if !got.TotalSaved.Equal(dec("1750.50")) {
		t.Errorf("TotalSaved = %s, want 1750.50", got.TotalSaved)
	}
	// Main balance still counts internal movements: 3000+200-800-500-999.
	if !got.MainBalance.Equal(dec("901")) {
		t.Errorf("MainBalance = %s, want 901", got.MainBalance)
	}
}

func TestDashboard_EmptySnapshot(t *testing.T) {
	got := Dashboard(core.Snapshot{}, testNow)
	if !got.VRBalance.IsZero() || !got.MainBalance.IsZero() || !got.TotalSaved.IsZero() {
		t.Errorf("empty snapshot yielded non-zero totals: %+v", got)
	}
}

func TestExpensesByCategory(t *testing.T) {
	snap := core.Snapshot{
		Transactions: []core.Transaction{
			expense("100", core.CategoryFood, core.NewDate(2024, 3, 1)),
			expense("50", core.CategoryFood, core.NewDate(2024, 4, 1)),
			expense("200", "Moradia", core.NewDate(2024, 4, 2)),
			income("500", "Salário", core.NewDate(2024, 4, 3)), // ignored
		},
	}

	got := ExpensesByCategory(snap)
	if len(got) != 2 {
		t.Fatalf("categories = %d, want 2", len(got))
	}
	if got[0].Category != "Moradia" || !got[0].Total.Equal(dec("200")) {
		t.Errorf("top category = %s/%s, want Moradia/200", got[0].Category, got[0].Total)
	}
	if got[1].Category != core.CategoryFood || !got[1].Total.Equal(dec("150")) {
		t.Errorf("second category = %s/%s, want Alimentação/150", got[1].Category, got[1].Total)
	}
}

func TestExpensesByCategory_Empty(t *testing.T) {
	if got := ExpensesByCategory(core.Snapshot{}); len(got) != 0 {
		t.Errorf("empty snapshot yielded %d categories", len(got))
	}
}

func TestMonthlyFlow(t *testing.T) {
	snap := core.Snapshot{
		Transactions: []core.Transaction{
			income("1000", "Salário", core.NewDate(2024, 4, 1)),
			income("400", core.CategoryVRCredit, core.NewDate(2024, 4, 2)), // excluded
			expense("300", core.CategoryFood, core.NewDate(2024, 2, 10)),
			expense("100", core.CategoryFood, core.NewDate(2023, 11, 10)),
			// Older than the window.
			expense("777", core.CategoryFood, core.NewDate(2023, 10, 1)),
		},
	}

	got := MonthlyFlow(snap, testNow)
	if len(got) != 6 {
		t.Fatalf("months = %d, want 6", len(got))
	}
	if got[0].Year != 2023 || got[0].Month != 11 {
		t.Fatalf("first month = %d-%d, want 2023-11", got[0].Year, got[0].Month)
	}
	if !got[0].Expense.Equal(dec("100")) {
		t.Errorf("2023-11 expense = %s, want 100", got[0].Expense)
	}
	if !got[3].Expense.Equal(dec("300")) {
		t.Errorf("2024-02 expense = %s, want 300", got[3].Expense)
	}
	last := got[5]
	if last.Year != 2024 || last.Month != 4 {
		t.Fatalf("last month = %d-%d, want 2024-4", last.Year, last.Month)
	}
	if !last.Income.Equal(dec("1000")) {
		t.Errorf("2024-04 income = %s, want 1000 (VR credit excluded)", last.Income)
	}
}

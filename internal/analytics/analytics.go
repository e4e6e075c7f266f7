// Package analytics derives the dashboard's numeric series from a snapshot.
// Every function is a pure view over (snapshot, parameters, now): no side
// effects, and empty input yields zero values rather than errors.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"grana/internal/core"
)

// DashboardTotals are the headline cards: balances and the current month's
// flow. Meal-voucher (VR) money lives in its own balance and never leaks
// into the main one.
type DashboardTotals struct {
	VRBalance      decimal.Decimal `json:"vr_balance"`
	MainBalance    decimal.Decimal `json:"main_balance"`
	TotalSaved     decimal.Decimal `json:"total_saved"`
	MonthlyIncome  decimal.Decimal `json:"monthly_income"`
	MonthlyExpense decimal.Decimal `json:"monthly_expense"`
}

// Dashboard computes the headline totals.
//
// VR balance is VR-credit income minus VR-flagged expenses. The main balance
// excludes both. Monthly income/expense additionally exclude internal
// movements (investment contributions and redemptions), which shuffle money
// between the main balance and accounts without being earnings or spending.
func Dashboard(snap core.Snapshot, now time.Time) DashboardTotals {
	var totals DashboardTotals
	year, month := now.UTC().Year(), int(now.UTC().Month())

	vrCredits, vrExpenses := decimal.Zero, decimal.Zero
	mainIncome, mainExpense := decimal.Zero, decimal.Zero

	for _, t := range snap.Transactions {
		if t.Category == core.CategoryVRCredit {
			vrCredits = vrCredits.Add(t.Amount)
		}
		if t.PaidWithVR {
			vrExpenses = vrExpenses.Add(t.Amount)
		}

		if t.Type == core.Income && t.Category != core.CategoryVRCredit {
			mainIncome = mainIncome.Add(t.Amount)
		}
		if t.Type == core.Expense && !t.PaidWithVR {
			mainExpense = mainExpense.Add(t.Amount)
		}

		if t.Date.SameMonth(year, month) && !internalMovement(t) {
			switch t.Type {
			case core.Income:
				totals.MonthlyIncome = totals.MonthlyIncome.Add(t.Amount)
			case core.Expense:
				totals.MonthlyExpense = totals.MonthlyExpense.Add(t.Amount)
			}
		}
	}

	totals.VRBalance = vrCredits.Sub(vrExpenses)
	totals.MainBalance = mainIncome.Sub(mainExpense)

	totals.TotalSaved = decimal.Zero
	for _, a := range snap.Accounts {
		totals.TotalSaved = totals.TotalSaved.Add(a.CurrentValue)
	}
	return totals
}

func internalMovement(t core.Transaction) bool {
	return t.Category == core.CategoryVRCredit ||
		t.PaidWithVR ||
		t.Category == core.CategoryInvestment ||
		t.Category == core.CategoryRedemption
}

// CategoryTotal is one slice of the expenses-by-category breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// ExpensesByCategory sums expense transactions per category, largest first.
func ExpensesByCategory(snap core.Snapshot) []CategoryTotal {
	byCategory := make(map[string]decimal.Decimal)
	for _, t := range snap.Transactions {
		if t.Type != core.Expense {
			continue
		}
		byCategory[t.Category] = byCategory[t.Category].Add(t.Amount)
	}

	out := make([]CategoryTotal, 0, len(byCategory))
	for cat, total := range byCategory {
		out = append(out, CategoryTotal{Category: cat, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthFlow is one month's income and expense totals.
type MonthFlow struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// MonthlyFlow returns income/expense totals for the trailing six months,
// oldest first, with VR credits excluded.
func MonthlyFlow(snap core.Snapshot, now time.Time) []MonthFlow {
	anchor := core.DateOf(now)
	flows := make([]MonthFlow, 0, 6)

	for i := 5; i >= 0; i-- {
		m := core.NewDate(anchor.Year(), int(anchor.Month()), 1).AddMonths(-i)
		flow := MonthFlow{
			Year:    m.Year(),
			Month:   int(m.Month()),
			Income:  decimal.Zero,
			Expense: decimal.Zero,
		}
		for _, t := range snap.Transactions {
			if !t.Date.SameMonth(flow.Year, flow.Month) || t.Category == core.CategoryVRCredit {
				continue
			}
			switch t.Type {
			case core.Income:
				flow.Income = flow.Income.Add(t.Amount)
			case core.Expense:
				flow.Expense = flow.Expense.Add(t.Amount)
			}
		}
		flows = append(flows, flow)
	}
	return flows
}

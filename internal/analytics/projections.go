package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"grana/internal/core"
)

var three = decimal.NewFromInt(3)

// AnnualProjection holds twelve monthly balances for the current year. The
// first ActualMonths entries are real cumulative balances; the rest continue
// from the last actual value using the trailing three months' average net
// flow. Both series share the boundary month so charts connect continuously.
type AnnualProjection struct {
	Year         int               `json:"year"`
	Balances     []decimal.Decimal `json:"balances"`
	ActualMonths int               `json:"actual_months"`
}

// ProjectAnnualBalance computes the year's actual-plus-projected balance
// line. VR money is excluded throughout.
func ProjectAnnualBalance(snap core.Snapshot, now time.Time) AnnualProjection {
	anchor := now.UTC()
	year := anchor.Year()
	currentIdx := int(anchor.Month()) - 1

	startOfYear := core.NewDate(year, 1, 1)
	yearStart := decimal.Zero
	for _, t := range snap.Transactions {
		if !t.Date.Before(startOfYear.Time) {
			continue
		}
		yearStart = yearStart.Add(netContribution(t))
	}

	// Average net flow over the trailing three months, fixed /3 divisor.
	cutoff := core.DateOf(now).AddMonths(-3)
	recentNet := decimal.Zero
	for _, t := range snap.Transactions {
		if t.Date.Before(cutoff.Time) {
			continue
		}
		recentNet = recentNet.Add(netContribution(t))
	}
	avgNetFlow := recentNet.Div(three)

	proj := AnnualProjection{
		Year:         year,
		Balances:     make([]decimal.Decimal, 12),
		ActualMonths: currentIdx + 1,
	}

	balance := yearStart
	for i := 0; i < 12; i++ {
		if i <= currentIdx {
			for _, t := range snap.Transactions {
				if t.Date.SameMonth(year, i+1) {
					balance = balance.Add(netContribution(t))
				}
			}
			proj.Balances[i] = balance
		} else {
			proj.Balances[i] = proj.Balances[i-1].Add(avgNetFlow)
		}
	}
	return proj
}

// netContribution is a transaction's signed effect on the main balance;
// VR money contributes nothing.
func netContribution(t core.Transaction) decimal.Decimal {
	if t.PaidWithVR || t.Category == core.CategoryVRCredit {
		return decimal.Zero
	}
	if t.Type == core.Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// YearValue is one bar of the investment growth projection.
type YearValue struct {
	Year  int             `json:"year"`
	Value decimal.Decimal `json:"value"`
}

// InvestmentGrowth projects six yearly values compounding monthly:
// value(i) = principal × (1 + rate/12)^(12i), where rate is the annual rate
// as a fraction (0.12 for 12%).
func InvestmentGrowth(principal decimal.Decimal, annualRate float64, now time.Time) []YearValue {
	factor := decimal.NewFromFloat(1 + annualRate/12)
	startYear := now.UTC().Year()

	out := make([]YearValue, 0, 6)
	for i := 0; i < 6; i++ {
		value := principal.Mul(factor.Pow(decimal.NewFromInt(int64(12 * i)))).Round(2)
		out = append(out, YearValue{Year: startYear + i, Value: value})
	}
	return out
}

// CashFlowMonth is one month of the short-term cash-flow projection.
type CashFlowMonth struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// CashFlowProjection estimates the next six months. Income is the average of
// the three most recent calendar months holding non-VR income; expense is
// the sum of monthly recurring amounts plus any yearly recurring whose
// anniversary falls in that month.
func CashFlowProjection(snap core.Snapshot, now time.Time) []CashFlowMonth {
	type monthKey struct{ year, month int }
	incomeByMonth := make(map[monthKey]decimal.Decimal)
	for _, t := range snap.Transactions {
		if t.Type != core.Income || t.Category == core.CategoryVRCredit {
			continue
		}
		k := monthKey{t.Date.Year(), int(t.Date.Month())}
		incomeByMonth[k] = incomeByMonth[k].Add(t.Amount)
	}

	months := make([]monthKey, 0, len(incomeByMonth))
	for k := range incomeByMonth {
		months = append(months, k)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})
	if len(months) > 3 {
		months = months[len(months)-3:]
	}
	incomeSum := decimal.Zero
	for _, k := range months {
		incomeSum = incomeSum.Add(incomeByMonth[k])
	}
	divisor := int64(len(months))
	if divisor == 0 {
		divisor = 1
	}
	avgIncome := incomeSum.Div(decimal.NewFromInt(divisor)).Round(2)

	monthlyRecurring := decimal.Zero
	for _, r := range snap.RecurringExpenses {
		if r.Frequency == core.Monthly {
			monthlyRecurring = monthlyRecurring.Add(r.Amount)
		}
	}

	anchor := core.DateOf(now)
	out := make([]CashFlowMonth, 0, 6)
	for i := 0; i < 6; i++ {
		m := core.NewDate(anchor.Year(), int(anchor.Month()), 1).AddMonths(i)
		expense := monthlyRecurring
		for _, r := range snap.RecurringExpenses {
			if r.Frequency == core.Yearly && r.StartDate.Month() == m.Month() {
				expense = expense.Add(r.Amount)
			}
		}
		out = append(out, CashFlowMonth{
			Year:    m.Year(),
			Month:   int(m.Month()),
			Income:  avgIncome,
			Expense: expense,
		})
	}
	return out
}

// BudgetBurnDown compares this month's spending in one category against a
// fixed budget ceiling.
type BudgetBurnDown struct {
	Category   string          `json:"category"`
	Budget     decimal.Decimal `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	OverBudget bool            `json:"over_budget"`
}

// BurnDown sums the current calendar month's expenses in the given category.
func BurnDown(snap core.Snapshot, category string, budget decimal.Decimal, now time.Time) BudgetBurnDown {
	year, month := now.UTC().Year(), int(now.UTC().Month())

	spent := decimal.Zero
	for _, t := range snap.Transactions {
		if t.Type != core.Expense || t.Category != category {
			continue
		}
		if t.Date.SameMonth(year, month) {
			spent = spent.Add(t.Amount)
		}
	}
	return BudgetBurnDown{
		Category:   category,
		Budget:     budget,
		Spent:      spent,
		Remaining:  budget.Sub(spent),
		OverBudget: spent.GreaterThan(budget),
	}
}

// GoalProjection estimates when an account reaches its savings goal, from
// the average monthly investment contribution observed so far.
type GoalProjection struct {
	AccountID           string          `json:"account_id"`
	AverageContribution decimal.Decimal `json:"average_contribution"`
	MonthsRemaining     int             `json:"months_remaining"`
	CompletionYear      int             `json:"completion_year"`
	CompletionMonth     int             `json:"completion_month"`
	Reached             bool            `json:"reached"`
}

// ProjectGoal averages the account's contributions per contributing month
// and extrapolates to the goal. Without a goal, contributions, or remaining
// distance, the projection carries no completion estimate.
func ProjectGoal(snap core.Snapshot, account core.Account, now time.Time) GoalProjection {
	proj := GoalProjection{AccountID: account.ID}
	if !account.HasGoal() {
		return proj
	}
	if !account.CurrentValue.LessThan(account.GoalAmount) {
		proj.Reached = true
		return proj
	}

	type monthKey struct{ year, month int }
	byMonth := make(map[monthKey]decimal.Decimal)
	for _, t := range snap.Transactions {
		if t.Type != core.Expense || t.Category != core.CategoryInvestment || t.AccountID != account.ID {
			continue
		}
		k := monthKey{t.Date.Year(), int(t.Date.Month())}
		byMonth[k] = byMonth[k].Add(t.Amount)
	}

	total := decimal.Zero
	for _, v := range byMonth {
		total = total.Add(v)
	}
	divisor := int64(len(byMonth))
	if divisor == 0 {
		divisor = 1
	}
	proj.AverageContribution = total.Div(decimal.NewFromInt(divisor)).Round(2)

	if !proj.AverageContribution.IsPositive() {
		return proj
	}

	remaining := account.GoalAmount.Sub(account.CurrentValue)
	proj.MonthsRemaining = int(remaining.Div(proj.AverageContribution).Ceil().IntPart())
	completion := core.DateOf(now).AddMonths(proj.MonthsRemaining)
	proj.CompletionYear = completion.Year()
	proj.CompletionMonth = int(completion.Month())
	return proj
}

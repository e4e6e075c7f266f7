package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Categories carried over from the original dashboard. "Crédito VR" and the
// PaidWithVR flag mark meal-voucher money, which stays out of the main balance.
const (
	CategoryVRCredit   = "Crédito VR"
	CategoryFood       = "Alimentação"
	CategoryInvestment = "Investimento (Aporte)"
	CategoryRedemption = "Resgate Guardado"
	CategoryEarnings   = "Rendimentos"
	CategoryOther      = "Outros"
)

type (
	TransactionType string

	Frequency string

	Transaction struct {
		ID                 string
		Description        string
		Amount             decimal.Decimal
		Type               TransactionType
		Category           string
		Date               Date
		PaidWithVR         bool
		AccountID          string // optional, set for account-linked movements
		RecurringExpenseID string // optional, set for materialized occurrences
	}

	RecurringExpense struct {
		ID          string
		Description string
		Amount      decimal.Decimal
		Category    string
		StartDate   Date
		Frequency   Frequency
	}

	Account struct {
		ID           string
		Name         string
		CurrentValue decimal.Decimal
		GoalAmount   decimal.Decimal // zero means no goal
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
)

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.PaidWithVR && t.Type != Expense {
		return errors.New("paid-with-VR applies to expenses only")
	}
	return nil
}

func (r RecurringExpense) Validate() error {
	if err := r.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	switch r.Frequency {
	case Monthly, Yearly:
	default:
		return ErrInvalidFrequency
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (a Account) Validate() error {
	if len(strings.TrimSpace(a.Name)) == 0 {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if a.GoalAmount.IsNegative() {
		return errors.New("goal amount cannot be negative")
	}
	return nil
}

// HasGoal reports whether the account has a savings goal configured.
func (a Account) HasGoal() bool {
	return a.GoalAmount.IsPositive()
}

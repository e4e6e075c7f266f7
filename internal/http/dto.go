package http

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"grana/internal/core"
)

// Wire representations. Amounts travel as decimal strings so nothing on the
// path rounds them.

type transactionDTO struct {
	ID                 string `json:"id"`
	Description        string `json:"description"`
	Amount             string `json:"amount"`
	Type               string `json:"type"`
	Category           string `json:"category"`
	Date               string `json:"date"`
	PaidWithVR         bool   `json:"paidWithVR,omitempty"`
	AccountID          string `json:"accountId,omitempty"`
	RecurringExpenseID string `json:"recurringExpenseId,omitempty"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:                 t.ID,
		Description:        t.Description,
		Amount:             t.Amount.String(),
		Type:               string(t.Type),
		Category:           t.Category,
		Date:               t.Date.ISO(),
		PaidWithVR:         t.PaidWithVR,
		AccountID:          t.AccountID,
		RecurringExpenseID: t.RecurringExpenseID,
	}
}

func toTransactionDTOs(ts []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransactionDTO(t))
	}
	return out
}

type createTransactionRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	PaidWithVR  bool   `json:"paidWithVR"`
	AccountID   string `json:"accountId"`
}

func (req createTransactionRequest) toDomain() (core.Transaction, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Type:        core.TransactionType(req.Type),
		Category:    sanitizeInput(req.Category),
		Date:        date,
		PaidWithVR:  req.PaidWithVR,
		AccountID:   req.AccountID,
	}, nil
}

type createInstallmentsRequest struct {
	Description string `json:"description"`
	TotalAmount string `json:"totalAmount"`
	Category    string `json:"category"`
	StartDate   string `json:"startDate"`
	Count       int    `json:"count"`
}

type recurringDTO struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	StartDate   string `json:"startDate"`
	Frequency   string `json:"frequency"`
}

func toRecurringDTO(r core.RecurringExpense) recurringDTO {
	return recurringDTO{
		ID:          r.ID,
		Description: r.Description,
		Amount:      r.Amount.String(),
		Category:    r.Category,
		StartDate:   r.StartDate.ISO(),
		Frequency:   string(r.Frequency),
	}
}

func toRecurringDTOs(rs []core.RecurringExpense) []recurringDTO {
	out := make([]recurringDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRecurringDTO(r))
	}
	return out
}

type createRecurringRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	StartDate   string `json:"startDate"`
	Frequency   string `json:"frequency"`
}

func (req createRecurringRequest) toDomain() (core.RecurringExpense, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	return core.RecurringExpense{
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		StartDate:   start,
		Frequency:   core.Frequency(req.Frequency),
	}, nil
}

type accountDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CurrentValue string `json:"currentValue"`
	GoalAmount   string `json:"goalAmount,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

func toAccountDTO(a core.Account) accountDTO {
	dto := accountDTO{
		ID:           a.ID,
		Name:         a.Name,
		CurrentValue: a.CurrentValue.String(),
		CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.HasGoal() {
		dto.GoalAmount = a.GoalAmount.String()
	}
	return dto
}

func toAccountDTOs(as []core.Account) []accountDTO {
	out := make([]accountDTO, 0, len(as))
	for _, a := range as {
		out = append(out, toAccountDTO(a))
	}
	return out
}

type createAccountRequest struct {
	Name              string `json:"name"`
	InitialValue      string `json:"initialValue"`
	GoalAmount        string `json:"goalAmount"`
	DeductFromBalance bool   `json:"deductFromBalance"`
}

type amountRequest struct {
	Amount string `json:"amount"`
}

// parseOptionalAmount treats empty as zero, for fields like goalAmount and
// initial values that may legitimately start at zero.
func parseOptionalAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil || d.IsNegative() {
		return decimal.Zero, core.ErrInvalidAmount
	}
	return d, nil
}

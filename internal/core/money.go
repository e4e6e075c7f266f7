// Package core provides the domain model shared by storage, services and
// analytics: transactions, recurring expense definitions, accounts, calendar
// dates and money parsing.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered monetary string into a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Only
// strictly positive amounts are valid; signs are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-5")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatBRL renders an amount the way the dashboard shows it: R$ 1234.56.
// Used for transaction descriptions and logs, not for arithmetic.
func FormatBRL(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}

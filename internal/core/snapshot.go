package core

// Snapshot is a full in-memory copy of one user's collections at a point in
// time. It is rebuilt wholesale on every refresh and passed by value into the
// materializer and the analytics functions, which never mutate it.
type Snapshot struct {
	Transactions      []Transaction
	RecurringExpenses []RecurringExpense
	Accounts          []Account
}

// OccurrenceKey identifies one materialized occurrence of a recurring
// expense. A definition plus a date has exactly one transaction.
type OccurrenceKey struct {
	RecurringExpenseID string
	Date               string // ISO date
}

// OccurrenceKeys returns the set of already-materialized occurrences,
// giving the materializer constant-time duplicate checks.
func (s Snapshot) OccurrenceKeys() map[OccurrenceKey]struct{} {
	keys := make(map[OccurrenceKey]struct{})
	for _, t := range s.Transactions {
		if t.RecurringExpenseID == "" {
			continue
		}
		keys[OccurrenceKey{RecurringExpenseID: t.RecurringExpenseID, Date: t.Date.ISO()}] = struct{}{}
	}
	return keys
}

// Account looks up an account by id. The second return is false when the
// account does not exist in the snapshot.
func (s Snapshot) Account(id string) (Account, bool) {
	for _, a := range s.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// Package services holds the business logic on top of the document store:
// recurring-expense materialization, the snapshot refresh loop, and the
// account/transaction operations that pair balance mutations with their
// ledger entries.
package services

import (
	"log/slog"

	"github.com/google/uuid"

	"grana/internal/core"
)

// RecurringSuffix marks transactions produced by the materializer.
const RecurringSuffix = " (Recorrente)"

// MissingOccurrences computes the concrete transactions that recurring
// definitions owe up to (and including) today. For each definition it walks
// the schedule from the start date and emits an expense transaction for
// every occurrence date with no existing (definition, date) transaction.
//
// The function is idempotent by construction: applying its output and
// running it again yields nothing, because every emitted occurrence is then
// present in the snapshot's key set.
func MissingOccurrences(snap core.Snapshot, today core.Date) []core.Transaction {
	existing := snap.OccurrenceKeys()

	var missing []core.Transaction
	for _, rec := range snap.RecurringExpenses {
		scheduler, err := SchedulerFor(rec.Frequency)
		if err != nil {
			// Validation keeps these out of the store; skip rather than
			// block every other definition.
			slog.Warn("Skipping recurring expense with unknown frequency",
				"id", rec.ID,
				"frequency", rec.Frequency)
			continue
		}

		for n := 0; ; n++ {
			d := scheduler.Occurrence(rec.StartDate, n)
			if d.After(today) {
				break
			}
			key := core.OccurrenceKey{RecurringExpenseID: rec.ID, Date: d.ISO()}
			if _, ok := existing[key]; ok {
				continue
			}
			missing = append(missing, core.Transaction{
				ID:                 uuid.NewString(),
				Description:        rec.Description + RecurringSuffix,
				Amount:             rec.Amount,
				Type:               core.Expense,
				Category:           rec.Category,
				Date:               d,
				RecurringExpenseID: rec.ID,
			})
		}
	}
	return missing
}

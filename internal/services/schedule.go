package services

import (
	"fmt"

	"grana/internal/core"
)

// Scheduler enumerates the occurrence dates of a recurring-expense cadence.
// Occurrence(start, n) is always computed from the anchor date itself, so
// the day-of-month survives short months: a monthly schedule anchored on
// Jan 31 yields Feb 28 and then Mar 31 again.
type Scheduler interface {
	// Occurrence returns the date of the n-th occurrence (n starts at 0,
	// which is the start date itself).
	Occurrence(start core.Date, n int) core.Date
}

// MonthlyScheduler steps one calendar month per occurrence.
type MonthlyScheduler struct{}

func (MonthlyScheduler) Occurrence(start core.Date, n int) core.Date {
	return start.AddMonths(n)
}

// YearlyScheduler steps twelve calendar months per occurrence.
type YearlyScheduler struct{}

func (YearlyScheduler) Occurrence(start core.Date, n int) core.Date {
	return start.AddMonths(12 * n)
}

var schedulers = map[core.Frequency]Scheduler{
	core.Monthly: MonthlyScheduler{},
	core.Yearly:  YearlyScheduler{},
}

// SchedulerFor returns the scheduler for a frequency.
func SchedulerFor(frequency core.Frequency) (Scheduler, error) {
	s, ok := schedulers[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return s, nil
}

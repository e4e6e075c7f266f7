package core

import (
	"errors"
	"time"
)

// Date is a calendar date pinned to UTC midnight. Transactions and recurring
// schedules carry no time-of-day component.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

// ParseDate parses an ISO date string (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, errors.New("invalid date: " + s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// ISO returns the date formatted as 2006-01-02.
func (d Date) ISO() string {
	return d.Format(dateLayout)
}

// After reports whether d falls after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// SameMonth reports whether d falls in the given year and month.
func (d Date) SameMonth(year, month int) bool {
	return d.Year() == year && int(d.Month()) == month
}

// AddMonths steps the date forward by n calendar months, keeping the original
// day-of-month and clamping it to the length of the target month. Stepping is
// always relative to d itself, so a monthly schedule anchored on the 31st
// lands on Feb 28 (29 in leap years) and back on Mar 31, and a yearly
// schedule anchored on 2023-02-28 lands on 2024-02-28.
func (d Date) AddMonths(n int) Date {
	year, month, day := d.Date()
	m := int(month) - 1 + n
	y := year + m/12
	m = m % 12
	if m < 0 {
		m += 12
		y--
	}
	target := time.Month(m + 1)
	if last := daysIn(y, target); day > last {
		day = last
	}
	return NewDate(y, int(target), day)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.ISO() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.New("invalid date: " + s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

package core

import (
	"time"
)

const monthKeyLayout = "2006-01"

// MonthKey identifies a ledger, formatted "YYYY-MM".
type MonthKey string

// MonthKeyOf derives the month key of a calendar date.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format(monthKeyLayout))
}

// ParseMonthKey validates s as "YYYY-MM".
func ParseMonthKey(s string) (MonthKey, error) {
	if len(s) != len(monthKeyLayout) {
		return "", ErrInvalidMonthKey
	}
	if _, err := time.Parse(monthKeyLayout, s); err != nil {
		return "", ErrInvalidMonthKey
	}
	return MonthKey(s), nil
}

// Start returns midnight UTC of the first day of the month.
// Invalid keys return the zero time.
func (k MonthKey) Start() time.Time {
	t, err := time.Parse(monthKeyLayout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (k MonthKey) Valid() bool {
	_, err := ParseMonthKey(string(k))
	return err == nil
}

// Next returns the following month, rolling December over into January.
func (k MonthKey) Next() MonthKey {
	return MonthKeyOf(k.Start().AddDate(0, 1, 0))
}

// Prev returns the preceding month, rolling January back into December.
func (k MonthKey) Prev() MonthKey {
	return MonthKeyOf(k.Start().AddDate(0, -1, 0))
}

// DaysIn returns the number of days in the month.
func (k MonthKey) DaysIn() int {
	return k.Start().AddDate(0, 1, -1).Day()
}

// Contains reports whether d falls within the month.
func (k MonthKey) Contains(d Date) bool {
	return !d.IsZero() && d.MonthKey() == k
}

func (k MonthKey) String() string {
	return string(k)
}

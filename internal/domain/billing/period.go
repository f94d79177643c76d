package billing

import (
	"fmt"
	"time"
)

// DateOf truncates t to a calendar date at midnight UTC, keeping the
// year/month/day as seen in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BillingPeriod is a calendar month. Invoices are unique per client and period.
type BillingPeriod struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the billing period containing t.
func PeriodOf(t time.Time) BillingPeriod {
	y, m, _ := t.Date()
	return BillingPeriod{Year: y, Month: m}
}

// Start returns the first day of the period.
func (p BillingPeriod) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first day of the following period (exclusive bound).
func (p BillingPeriod) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether the calendar date of t falls inside the period.
func (p BillingPeriod) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(p.Start()) && d.Before(p.End())
}

// Valid reports whether the period names a real month.
func (p BillingPeriod) Valid() bool {
	return p.Year > 0 && p.Month >= time.January && p.Month <= time.December
}

func (p BillingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Package pause models how long an update is snoozed for.
package pause

import (
	"fmt"
	"time"

	"github.com/unigetui/engine/internal/i18n"
	"github.com/unigetui/engine/internal/ignore"
)

// Duration is a whole number of days. Weeks and months are derived by
// integer division: a week is 7 days and a month is 4 weeks.
type Duration struct {
	days int
}

func Days(n int) Duration   { return Duration{days: n} }
func Weeks(n int) Duration  { return Duration{days: n * 7} }
func Months(n int) Duration { return Duration{days: n * 28} }

func (d Duration) Days() int   { return d.days }
func (d Duration) Weeks() int  { return d.days / 7 }
func (d Duration) Months() int { return d.Weeks() / 4 }

func (d *Duration) SetDays(n int)   { d.days = n }
func (d *Duration) SetWeeks(n int)  { d.days = n * 7 }
func (d *Duration) SetMonths(n int) { d.days = n * 28 }

// DateFrom returns now plus the duration, formatted as yyyy-mm-dd.
func (d Duration) DateFrom(now time.Time) string {
	return now.AddDate(0, 0, d.days).Format(ignore.DateLayout)
}

// DateFromNow is DateFrom(time.Now()).
func (d Duration) DateFromNow() string {
	return d.DateFrom(time.Now())
}

// IgnoreValue is the ledger value that snoozes a package for d from now.
func (d Duration) IgnoreValue(now time.Time) string {
	return ignore.SnoozeValue(d.DateFrom(now))
}

// ParseFrom sets the duration to the distance between now and date
// (yyyy-mm-dd, midnight in now's location) in whole days. The distance is
// absolute: a date in the past yields the same count as one equally far in
// the future. On a malformed date the duration is left unchanged.
func (d *Duration) ParseFrom(date string, now time.Time) error {
	target, err := time.ParseInLocation(ignore.DateLayout, date, now.Location())
	if err != nil {
		return fmt.Errorf("parse pause date %q: %w", date, err)
	}
	diff := target.Sub(now)
	if diff < 0 {
		diff = -diff
	}
	d.days = int(diff / (24 * time.Hour))
	return nil
}

// Parse is ParseFrom(date, time.Now()).
func (d *Duration) Parse(date string) error {
	return d.ParseFrom(date, time.Now())
}

// String renders the duration in the base locale.
func (d Duration) String() string {
	return d.Format(i18n.NewPrinter(i18n.BaseLocale))
}

// Format renders the largest unit that describes the duration: whole years
// when the month count is a multiple of twelve, then months, weeks, days.
func (d Duration) Format(p *i18n.Printer) string {
	months, weeks := d.Months(), d.Weeks()
	switch {
	case months >= 12 && months%12 == 0:
		return plural(p, months/12, "1 year", "%d years")
	case months >= 1:
		return plural(p, months, "1 month", "%d months")
	case weeks >= 1:
		return plural(p, weeks, "1 week", "%d weeks")
	default:
		return plural(p, d.days, "1 day", "%d days")
	}
}

func plural(p *i18n.Printer, n int, one, many string) string {
	if n == 1 {
		return p.Sprintf(one)
	}
	return p.Sprintf(many, n)
}

// Presets are the snooze choices offered for a package update.
func Presets() []Duration {
	return []Duration{
		Days(1),
		Days(3),
		Weeks(1),
		Weeks(2),
		Weeks(4),
		Months(3),
		Months(6),
		Months(12),
	}
}

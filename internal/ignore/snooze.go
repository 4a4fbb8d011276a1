package ignore

import (
	"strings"
	"time"
)

// SnoozePrefix marks a ledger value as "suppressed until this date".
const SnoozePrefix = "<"

// DateLayout is the date format used in snooze values.
const DateLayout = "2006-01-02"

// SnoozeValue builds the ledger value for a snooze ending on date
// (formatted with DateLayout).
func SnoozeValue(date string) string {
	return SnoozePrefix + date
}

// ParseSnooze extracts the end date of a snooze value. The date is midnight
// in loc. ok is false for wildcard, version and malformed values.
func ParseSnooze(value string, loc *time.Location) (until time.Time, ok bool) {
	date, found := strings.CutPrefix(value, SnoozePrefix)
	if !found {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SnoozeState classifies a ledger value against now.
type SnoozeState int

const (
	NotSnoozed SnoozeState = iota
	SnoozeActive
	SnoozeExpired
)

// Snooze reports whether value is a snooze and whether it still holds at
// now. A snooze holds until the start of its end date.
func Snooze(value string, now time.Time) SnoozeState {
	until, ok := ParseSnooze(value, now.Location())
	if !ok {
		return NotSnoozed
	}
	if now.Before(until) {
		return SnoozeActive
	}
	return SnoozeExpired
}

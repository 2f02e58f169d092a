package types

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/m-mizutani/goerr/v2"
)

// Date is a calendar day without a time component. Every component normalizes
// incoming timestamps to Date at its ingestion boundary so that mixed
// date/datetime representations from upstream sources never reach a
// comparison site.
type Date = civil.Date

// dateLayouts are tried in order when parsing free-form date strings from
// source rows. Timestamps are truncated to the calendar day.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// DateOf truncates t to its calendar day in UTC
func DateOf(t time.Time) Date {
	return civil.DateOf(t.UTC())
}

// ParseDate parses a date string from a source row. Unparseable or empty
// strings return an error; callers drop the row and log the reason.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, goerr.New("empty date string")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	return Date{}, goerr.New("unparseable date", goerr.V("input", s))
}

// DaysBetween returns the number of days from a to b (positive when b is
// after a)
func DaysBetween(a, b Date) int {
	return b.DaysSince(a)
}

// MinDate returns the earlier of a and b, ignoring invalid dates
func MinDate(a, b Date) Date {
	if !a.IsValid() {
		return b
	}
	if !b.IsValid() {
		return a
	}
	if b.Before(a) {
		return b
	}
	return a
}

// MaxDate returns the later of a and b, ignoring invalid dates
func MaxDate(a, b Date) Date {
	if !a.IsValid() {
		return b
	}
	if !b.IsValid() {
		return a
	}
	if b.After(a) {
		return b
	}
	return a
}

// DateToTime converts a Date to a UTC midnight time.Time for persistence
func DateToTime(d Date) time.Time {
	return d.In(time.UTC)
}

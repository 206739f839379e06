// Package dateutils provides common date operations used throughout the
// reconciliation pipeline.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date format constants used by the CRM and compensation exports.
const (
	DateLayoutISO       = "2006-01-02"
	DateLayoutISOTime   = "2006-01-02 15:04:05"
	DateLayoutISOMinute = "2006-01-02 15:04"
	DateLayoutEuropean  = "02.01.2006"
	DateLayoutUS        = "01/02/2006"
)

// CommonFormats is the ordered list of formats tried when parsing dates.
// First success wins.
var CommonFormats = []string{
	DateLayoutISOTime,
	DateLayoutISOMinute,
	DateLayoutISO,
	"02.01.2006 15:04:05",
	DateLayoutEuropean,
	DateLayoutUS,
	"02/01/2006",
	"02-01-2006",
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanDateString trims and normalizes whitespace in a date string.
func CleanDateString(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)
	return whitespaceRe.ReplaceAllString(dateStr, " ")
}

// ParseDate attempts to parse a date string using the common formats.
func ParseDate(dateStr string) (time.Time, error) {
	cleaned := CleanDateString(dateStr)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseOptionalDate parses a date string that may legitimately be empty.
// Empty input yields nil without error; unparseable input yields nil with
// an error the caller can log. A record with a nil date stays eligible for
// ID and name matching but becomes unmatchable by date.
func ParseOptionalDate(dateStr string) (*time.Time, error) {
	if strings.TrimSpace(dateStr) == "" {
		return nil, nil
	}
	t, err := ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Truncate drops the time-of-day component of a date.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysApart returns the absolute difference between two dates in whole days,
// ignoring the time-of-day component.
func DaysApart(a, b time.Time) int {
	diff := Truncate(a).Sub(Truncate(b))
	days := int(diff.Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

// WithinDays reports whether two optional dates are both present and no more
// than tolerance days apart.
func WithinDays(a, b *time.Time, tolerance int) bool {
	if a == nil || b == nil {
		return false
	}
	return DaysApart(*a, *b) <= tolerance
}

// SameDay reports whether two dates fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Truncate(a).Equal(Truncate(b))
}

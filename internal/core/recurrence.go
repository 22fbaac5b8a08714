package core

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// NextBillDate returns the next occurrence after date for a recurrence tag.
//
// A positive integer tag adds that many days. Otherwise a word of the tag is
// matched case-insensitively against day/daily, week, month and year. Month and year
// steps are calendar steps clamped to the end of the target month, so
// 2024-01-31 monthly is 2024-02-29. "None", unknown tags and non-positive day
// counts report false.
func NextBillDate(date time.Time, repeat string) (time.Time, bool) {
	tag := strings.ToLower(strings.TrimSpace(repeat))
	if tag == "" || tag == "none" {
		return time.Time{}, false
	}

	if n, err := strconv.Atoi(tag); err == nil {
		if n <= 0 {
			return time.Time{}, false
		}
		return date.AddDate(0, 0, n), true
	}

	switch {
	case hasUnit(tag, "year"):
		return AddMonthsClamped(date, 12), true
	case hasUnit(tag, "month"):
		return AddMonthsClamped(date, 1), true
	case hasUnit(tag, "week"):
		return date.AddDate(0, 0, 7), true
	case hasUnit(tag, "day") || hasUnit(tag, "daily"):
		return date.AddDate(0, 0, 1), true
	}
	return time.Time{}, false
}

// hasUnit reports whether a word of tag starts with unit, so "every week"
// and "Monthly" match while "Sunday" and "today" do not.
func hasUnit(tag, unit string) bool {
	words := strings.FieldsFunc(tag, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if strings.HasPrefix(w, unit) {
			return true
		}
	}
	return false
}

// IsValidRepeat reports whether NextBillDate understands the tag. "None" and
// the empty string are valid and mean "does not recur".
func IsValidRepeat(repeat string) bool {
	tag := strings.TrimSpace(repeat)
	if tag == "" || strings.EqualFold(tag, RepeatNone) {
		return true
	}
	_, ok := NextBillDate(time.Unix(0, 0).UTC(), tag)
	return ok
}

// IsRecurring reports whether the tag produces further occurrences.
func IsRecurring(repeat string) bool {
	_, ok := NextBillDate(time.Unix(0, 0).UTC(), repeat)
	return ok
}

// AddMonthsClamped adds months keeping the day of month where possible and
// clamping to the last day of the target month otherwise.
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := DaysInMonth(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

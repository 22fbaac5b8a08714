package services

import (
	"fmt"
	"strings"
	"time"

	"finwallet/internal/core"
)

// DuenessChecker yields the occurrence following a given date. Ledger
// templates and subscriptions share the same checker so their schedules
// cannot disagree.
type DuenessChecker interface {
	Next(from time.Time) (time.Time, bool)
}

// repeatChecker follows a repeat tag through core.NextBillDate.
type repeatChecker struct {
	tag string
}

func (c repeatChecker) Next(from time.Time) (time.Time, bool) {
	return core.NextBillDate(from, c.tag)
}

// GetDuenessChecker returns the checker for a repeat tag, or an error when
// the tag does not recur.
func GetDuenessChecker(repeat string) (DuenessChecker, error) {
	tag := strings.TrimSpace(repeat)
	if !core.IsRecurring(tag) {
		return nil, fmt.Errorf("repeat %q does not recur", repeat)
	}
	return repeatChecker{tag: tag}, nil
}

// DueOccurrences lists the occurrences after from that fall on or before now,
// oldest first, at most limit of them.
func DueOccurrences(c DuenessChecker, from, now time.Time, limit int) []time.Time {
	var out []time.Time
	cur := from
	for len(out) < limit {
		next, ok := c.Next(cur)
		if !ok || next.After(now) || !next.After(cur) {
			break
		}
		out = append(out, next)
		cur = next
	}
	return out
}

// RollForward returns the first occurrence on or after target, starting from
// from itself. It gives up after limit steps.
func RollForward(c DuenessChecker, from, target time.Time, limit int) (time.Time, bool) {
	cur := from
	for i := 0; i < limit; i++ {
		if !cur.Before(target) {
			return cur, true
		}
		next, ok := c.Next(cur)
		if !ok || !next.After(cur) {
			return time.Time{}, false
		}
		cur = next
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

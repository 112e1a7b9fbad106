package services

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSelection reports an explicit selection date that did not parse.
var ErrInvalidSelection = errors.New("invalid selection date")

// Selection names the day contracts are generated for. The zero value means
// the default window: today or tomorrow in the canonical time zone.
type Selection struct {
	// Date is an explicit YYYY-MM-DD target; empty selects the default
	// window.
	Date string
}

// dayKey collapses a timestamp to its calendar day in loc, so time-of-day
// noise in the source never causes a false mismatch.
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("20060102")
}

// dateFilter decides whether a parsed row date matches the selection. All
// comparison happens on calendar-day keys in a single canonical zone.
type dateFilter struct {
	keys map[string]struct{}
	// primaryKey names the merged output: the explicit day, or today for
	// the default window.
	primaryKey string
	// label is the human-readable target used in messages and logs.
	label string
}

func newDateFilter(sel Selection, now time.Time, loc *time.Location) (*dateFilter, error) {
	f := &dateFilter{keys: make(map[string]struct{}, 2)}
	if sel.Date == "" {
		today := now.In(loc)
		f.primaryKey = dayKey(today, loc)
		f.keys[f.primaryKey] = struct{}{}
		f.keys[dayKey(today.AddDate(0, 0, 1), loc)] = struct{}{}
		f.label = "today or tomorrow"
		return f, nil
	}
	// Explicit targets go through the same parsing as row dates.
	t, ok := parseCellDate(sel.Date, loc)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSelection, sel.Date)
	}
	f.primaryKey = dayKey(t, loc)
	f.keys[f.primaryKey] = struct{}{}
	f.label = sel.Date
	return f, nil
}

func (f *dateFilter) matches(t time.Time, loc *time.Location) bool {
	_, ok := f.keys[dayKey(t, loc)]
	return ok
}

package report

import (
	"fmt"
	"strings"
	"time"

	"chitieu/internal/core"
)

// RelativePeriod names a window computed relative to today.
type RelativePeriod string

const (
	Today     RelativePeriod = "today"
	ThisWeek  RelativePeriod = "this_week"
	ThisMonth RelativePeriod = "this_month"
	ThisYear  RelativePeriod = "this_year"
	LastWeek  RelativePeriod = "last_week"
	LastMonth RelativePeriod = "last_month"
)

// RelativePeriods lists the supported periods in display order.
func RelativePeriods() []RelativePeriod {
	return []RelativePeriod{Today, ThisWeek, ThisMonth, ThisYear, LastWeek, LastMonth}
}

// ParseRelativePeriod validates a period name.
func ParseRelativePeriod(s string) (RelativePeriod, error) {
	p := RelativePeriod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range RelativePeriods() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Window is an inclusive range of calendar days. Start is never after End.
type Window struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
}

// NewWindow builds a window from explicit dates. It never swaps the bounds:
// start after end fails with ErrInvalidRange.
func NewWindow(start, end core.Date) (Window, error) {
	w := Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate reports ErrInvalidRange when Start is after End.
func (w Window) Validate() error {
	if w.Start.After(w.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, w.Start, w.End)
	}
	return nil
}

// Contains reports whether d lies in the window, bounds included.
func (w Window) Contains(d core.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days is the inclusive number of calendar days covered by the window.
func (w Window) Days() int {
	return w.Start.DaysUntil(w.End) + 1
}

func (w Window) String() string {
	return w.Start.String() + ".." + w.End.String()
}

// Resolve computes the window for a relative period. Weeks start on Monday.
// Month and year boundaries use calendar arithmetic, so last_month from
// March 1st is the whole of February whatever its length.
func Resolve(period RelativePeriod, today core.Date) (Window, error) {
	// Days elapsed since Monday: Monday=0 ... Sunday=6.
	weekday := (int(today.Weekday()) + 6) % 7

	switch period {
	case Today:
		return Window{Start: today, End: today}, nil
	case ThisWeek:
		return Window{Start: today.AddDays(-weekday), End: today}, nil
	case ThisMonth:
		return Window{Start: core.NewDate(today.Year(), today.Month(), 1), End: today}, nil
	case ThisYear:
		return Window{Start: core.NewDate(today.Year(), int(time.January), 1), End: today}, nil
	case LastWeek:
		return Window{Start: today.AddDays(-(weekday + 7)), End: today.AddDays(-(weekday + 1))}, nil
	case LastMonth:
		// Day 0 of this month is the last day of the previous one.
		end := core.NewDate(today.Year(), today.Month(), 0)
		return Window{Start: core.NewDate(end.Year(), end.Month(), 1), End: end}, nil
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(period))
	}
}

// ResolveName is Resolve for an unparsed period name.
func ResolveName(name string, today core.Date) (Window, error) {
	p, err := ParseRelativePeriod(name)
	if err != nil {
		return Window{}, err
	}
	return Resolve(p, today)
}

// Span returns the smallest window covering every transaction. ok is false
// for an empty set.
func Span(txs []core.Transaction) (w Window, ok bool) {
	for i, tx := range txs {
		if i == 0 {
			w = Window{Start: tx.Date, End: tx.Date}
			continue
		}
		if tx.Date.Before(w.Start) {
			w.Start = tx.Date
		}
		if tx.Date.After(w.End) {
			w.End = tx.Date
		}
	}
	return w, len(txs) > 0
}

package report

import (
	"errors"
	"testing"

	"chitieu/internal/core"
)

func d(s string) core.Date { return core.MustParseDate(s) }

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		period RelativePeriod
		today  string
		start  string
		end    string
	}{
		{"today", Today, "2024-05-15", "2024-05-15", "2024-05-15"},
		{"this week from wednesday", ThisWeek, "2024-05-15", "2024-05-13", "2024-05-15"},
		{"this week on monday", ThisWeek, "2024-05-13", "2024-05-13", "2024-05-13"},
		{"this week on sunday", ThisWeek, "2024-05-19", "2024-05-13", "2024-05-19"},
		{"this week across year", ThisWeek, "2025-01-01", "2024-12-30", "2025-01-01"},
		{"this month", ThisMonth, "2024-05-15", "2024-05-01", "2024-05-15"},
		{"this year", ThisYear, "2024-05-15", "2024-01-01", "2024-05-15"},
		{"last week from wednesday", LastWeek, "2024-05-15", "2024-05-06", "2024-05-12"},
		{"last week from sunday", LastWeek, "2024-05-19", "2024-05-06", "2024-05-12"},
		{"last week across year", LastWeek, "2025-01-02", "2024-12-23", "2024-12-29"},
		{"last month", LastMonth, "2024-05-15", "2024-04-01", "2024-04-30"},
		{"last month year rollover", LastMonth, "2024-01-15", "2023-12-01", "2023-12-31"},
		{"last month leap february", LastMonth, "2024-03-01", "2024-02-01", "2024-02-29"},
		{"last month february", LastMonth, "2023-03-31", "2023-02-01", "2023-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Resolve(tt.period, d(tt.today))
			if err != nil {
				t.Fatalf("Resolve error: %v", err)
			}
			if w.Start.String() != tt.start || w.End.String() != tt.end {
				t.Errorf("Resolve(%s, %s) = %s, want %s..%s", tt.period, tt.today, w, tt.start, tt.end)
			}
			if err := w.Validate(); err != nil {
				t.Errorf("resolved window invalid: %v", err)
			}
		})
	}
}

func TestResolveLastMonthEndsOnLastDayOfPreviousMonth(t *testing.T) {
	for day := d("2023-01-01"); day.Before(d("2025-12-31")); day = day.AddDays(1) {
		w, err := Resolve(LastMonth, day)
		if err != nil {
			t.Fatalf("Resolve error: %v", err)
		}
		firstOfMonth := core.NewDate(day.Year(), day.Month(), 1)
		if !w.End.Equal(firstOfMonth.AddDays(-1)) {
			t.Fatalf("today=%s: end %s is not the day before %s", day, w.End, firstOfMonth)
		}
		if w.Start.Day() != 1 || w.Start.Month() != w.End.Month() || w.Start.Year() != w.End.Year() {
			t.Fatalf("today=%s: start %s not first of end's month %s", day, w.Start, w.End)
		}
	}
}

func TestResolveUnknownPeriod(t *testing.T) {
	_, err := Resolve(RelativePeriod("next_decade"), d("2024-05-15"))
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := ResolveName("", d("2024-05-15")); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod for empty name, got %v", err)
	}
	w, err := ResolveName(" This_Month ", d("2024-05-15"))
	if err != nil || w.Start.String() != "2024-05-01" {
		t.Fatalf("ResolveName normalization failed: %v %v", w, err)
	}
}

func TestNewWindow(t *testing.T) {
	if _, err := NewWindow(d("2024-01-02"), d("2024-01-01")); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	w, err := NewWindow(d("2024-01-01"), d("2024-01-01"))
	if err != nil {
		t.Fatalf("single day window: %v", err)
	}
	if w.Days() != 1 || !w.Contains(d("2024-01-01")) || w.Contains(d("2024-01-02")) {
		t.Fatalf("unexpected single day window behaviour: %v", w)
	}
}

func TestSpan(t *testing.T) {
	if _, ok := Span(nil); ok {
		t.Fatal("expected no span for empty input")
	}
	w, ok := Span([]core.Transaction{
		{Date: d("2024-01-10")},
		{Date: d("2024-01-01")},
		{Date: d("2024-01-05")},
	})
	if !ok || w.String() != "2024-01-01..2024-01-10" || w.Days() != 10 {
		t.Fatalf("unexpected span %v (%d days)", w, w.Days())
	}
}

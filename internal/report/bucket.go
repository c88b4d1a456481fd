package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"chitieu/internal/core"
)

// Granularity is a calendar bucketing unit.
type Granularity string

const (
	Day     Granularity = "day"
	Week    Granularity = "week"
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
)

// Granularities lists the supported units from finest to coarsest.
func Granularities() []Granularity {
	return []Granularity{Day, Week, Month, Quarter, Year}
}

// ParseGranularity accepts the unit name or its adverb form ("monthly").
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	case "quarter", "quarterly":
		return Quarter, nil
	case "year", "yearly":
		return Year, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

// Label returns the period label of d. Labels start with the year so that
// sorting them as strings is chronological:
//
//	day     2024-01-31
//	week    2024-W05 (ISO week, the year is the ISO week-year)
//	month   2024-01
//	quarter 2024-Q1
//	year    2024
func (g Granularity) Label(d core.Date) (string, error) {
	switch g {
	case Day:
		return d.String(), nil
	case Week:
		year, week := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	case Month:
		return fmt.Sprintf("%04d-%02d", d.Year(), d.Month()), nil
	case Quarter:
		return fmt.Sprintf("%04d-Q%d", d.Year(), (d.Month()-1)/3+1), nil
	case Year:
		return fmt.Sprintf("%04d", d.Year()), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, string(g))
	}
}

// Bucket is the sum of one category's transactions within one period.
type Bucket struct {
	Period   string     `json:"period"`
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
	Count    int        `json:"count"`
}

// PeriodTotal is the sum of all transactions within one period.
type PeriodTotal struct {
	Period string     `json:"period"`
	Amount core.Money `json:"amount"`
	Count  int        `json:"count"`
}

// Bucketize groups transactions by (period label, category) and sums them.
// Rows are ordered by period label, then by the order in which each category
// first appears in txs, so legend order is stable across renders. Periods
// without transactions are not emitted. An empty input yields no rows.
func Bucketize(txs []core.Transaction, g Granularity) ([]Bucket, error) {
	if _, err := g.Label(core.Date{}); err != nil {
		return nil, err
	}
	type key struct{ period, category string }
	rank := map[string]int{}
	index := map[key]int{}
	out := []Bucket{}
	for _, tx := range txs {
		label, _ := g.Label(tx.Date)
		if _, ok := rank[tx.Category]; !ok {
			rank[tx.Category] = len(rank)
		}
		k := key{label, tx.Category}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Bucket{Period: label, Category: tx.Category})
		}
		out[i].Amount.Units += tx.Amount.Units
		out[i].Count++
	}
	slices.SortStableFunc(out, func(a, b Bucket) int {
		if c := strings.Compare(a.Period, b.Period); c != 0 {
			return c
		}
		return cmp.Compare(rank[a.Category], rank[b.Category])
	})
	return out, nil
}

// PeriodTotals is Bucketize without the category split, for trend charts.
func PeriodTotals(txs []core.Transaction, g Granularity) ([]PeriodTotal, error) {
	if _, err := g.Label(core.Date{}); err != nil {
		return nil, err
	}
	index := map[string]int{}
	out := []PeriodTotal{}
	for _, tx := range txs {
		label, _ := g.Label(tx.Date)
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, PeriodTotal{Period: label})
		}
		out[i].Amount.Units += tx.Amount.Units
		out[i].Count++
	}
	slices.SortFunc(out, func(a, b PeriodTotal) int { return strings.Compare(a.Period, b.Period) })
	return out, nil
}

package report

import (
	"slices"

	"chitieu/internal/core"
)

// Summary holds the headline metrics of a transaction set. Averages are 0
// for an empty set.
type Summary struct {
	Count                 int        `json:"count"`
	Total                 core.Money `json:"total"`
	AveragePerTransaction float64    `json:"average_per_transaction"`
	// SpanDays counts calendar days from the earliest to the latest
	// transaction inclusive, whether or not each day has activity.
	SpanDays      int     `json:"span_days"`
	AveragePerDay float64 `json:"average_per_day"`
}

// CumulativePoint is one day of the running total series.
type CumulativePoint struct {
	Date    core.Date  `json:"date"`
	Amount  core.Money `json:"amount"`
	Running core.Money `json:"running"`
}

// CategoryTotal is the sum spent in one category and its share of the total.
type CategoryTotal struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
	Count    int        `json:"count"`
	Percent  float64    `json:"percent"`
}

// Aggregate computes the summary metrics of txs.
func Aggregate(txs []core.Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		s.Total.Units += tx.Amount.Units
	}
	s.Count = len(txs)
	if s.Count == 0 {
		return s
	}
	s.AveragePerTransaction = float64(s.Total.Units) / float64(s.Count)
	span, _ := Span(txs)
	s.SpanDays = span.Days()
	s.AveragePerDay = float64(s.Total.Units) / float64(s.SpanDays)
	return s
}

// CumulativeSeries sums amounts per day, orders the days ascending and
// returns the running total at each day. The running total never decreases
// because amounts are positive.
func CumulativeSeries(txs []core.Transaction) []CumulativePoint {
	index := map[string]int{}
	out := []CumulativePoint{}
	for _, tx := range txs {
		key := tx.Date.String()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, CumulativePoint{Date: tx.Date})
		}
		out[i].Amount.Units += tx.Amount.Units
	}
	slices.SortFunc(out, func(a, b CumulativePoint) int { return a.Date.Compare(b.Date) })
	var running int64
	for i := range out {
		running += out[i].Amount.Units
		out[i].Running = core.Money{Units: running}
	}
	return out
}

// CategoryTotals sums amounts per category in order of first appearance.
func CategoryTotals(txs []core.Transaction) []CategoryTotal {
	index := map[string]int{}
	out := []CategoryTotal{}
	var total int64
	for _, tx := range txs {
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, CategoryTotal{Category: tx.Category})
		}
		out[i].Amount.Units += tx.Amount.Units
		out[i].Count++
		total += tx.Amount.Units
	}
	if total > 0 {
		for i := range out {
			out[i].Percent = float64(out[i].Amount.Units) * 100 / float64(total)
		}
	}
	return out
}

// SortByDateDesc returns a copy of txs, newest first. Same-day transactions
// keep their relative order.
func SortByDateDesc(txs []core.Transaction) []core.Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b core.Transaction) int { return b.Date.Compare(a.Date) })
	return out
}

// SortByDateAsc returns a copy of txs, oldest first.
func SortByDateAsc(txs []core.Transaction) []core.Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b core.Transaction) int { return a.Date.Compare(b.Date) })
	return out
}

package services

import (
	"fmt"
	"strings"

	"chitieu/internal/core"
	"chitieu/internal/report"
)

// PeriodAll selects every transaction in the snapshot. It is a dashboard
// option, not a relative period understood by report.Resolve.
const PeriodAll = "all"

// DefaultPeriod is used when a query names neither a period nor a range.
const DefaultPeriod = string(report.ThisMonth)

// DashboardQuery selects what the dashboard shows. A custom range (Start
// and End both set) takes precedence over Period.
type DashboardQuery struct {
	Period      string
	Start       core.Date
	End         core.Date
	Categories  []string
	Granularity report.Granularity
}

// Custom reports whether the query asks for an explicit date range.
func (q DashboardQuery) Custom() bool {
	return !q.Start.IsZero() || !q.End.IsZero()
}

// Dashboard is everything the dashboard and report views render.
type Dashboard struct {
	Period      string                   `json:"period"`
	Window      report.Window            `json:"window"`
	Categories  []string                 `json:"categories"`
	Granularity report.Granularity       `json:"granularity"`
	Summary     report.Summary           `json:"summary"`
	ByCategory  []report.CategoryTotal   `json:"by_category"`
	Buckets     []report.Bucket          `json:"buckets"`
	Trend       []report.PeriodTotal     `json:"trend"`
	Cumulative  []report.CumulativePoint `json:"cumulative"`
	Rows        []core.Transaction       `json:"rows"`
}

// Empty reports whether no transaction matched.
func (d Dashboard) Empty() bool { return d.Summary.Count == 0 }

// BuildDashboard resolves the query window relative to today, filters the
// snapshot and computes every view over the filtered set. It does not
// modify snapshot.
func BuildDashboard(snapshot []core.Transaction, q DashboardQuery, today core.Date) (Dashboard, error) {
	g := q.Granularity
	if g == "" {
		g = report.Month
	}
	if _, err := g.Label(today); err != nil {
		return Dashboard{}, err
	}

	period, w, err := resolveWindow(snapshot, q, today)
	if err != nil {
		return Dashboard{}, err
	}

	cats := core.NormalizeCategories(q.Categories)
	filtered, err := report.Filter(snapshot, w, cats)
	if err != nil {
		return Dashboard{}, err
	}

	buckets, err := report.Bucketize(filtered, g)
	if err != nil {
		return Dashboard{}, err
	}
	trend, err := report.PeriodTotals(filtered, g)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Period:      period,
		Window:      w,
		Categories:  cats,
		Granularity: g,
		Summary:     report.Aggregate(filtered),
		ByCategory:  report.CategoryTotals(filtered),
		Buckets:     buckets,
		Trend:       trend,
		Cumulative:  report.CumulativeSeries(filtered),
		Rows:        report.SortByDateDesc(filtered),
	}, nil
}

func resolveWindow(snapshot []core.Transaction, q DashboardQuery, today core.Date) (string, report.Window, error) {
	if q.Custom() {
		if q.Start.IsZero() || q.End.IsZero() {
			return "", report.Window{}, fmt.Errorf("%w: custom range needs both start and end", report.ErrInvalidRange)
		}
		w, err := report.NewWindow(q.Start, q.End)
		return "custom", w, err
	}

	name := strings.ToLower(strings.TrimSpace(q.Period))
	switch name {
	case "":
		name = DefaultPeriod
	case PeriodAll:
		w, ok := report.Span(snapshot)
		if !ok {
			// Nothing stored yet: an empty single-day window.
			w = report.Window{Start: today, End: today}
		}
		return PeriodAll, w, nil
	}
	w, err := report.ResolveName(name, today)
	return name, w, err
}

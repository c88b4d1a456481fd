package render

import (
	"strings"
	"testing"

	"chitieu/internal/core"
	"chitieu/internal/report"
	"chitieu/internal/services"
)

func sampleDashboard(t *testing.T) services.Dashboard {
	t.Helper()
	txs := []core.Transaction{
		{Date: core.NewDate(2025, 5, 1), Category: "Food", Amount: core.Money{Units: 120000}, Note: "phở | trà đá"},
		{Date: core.NewDate(2025, 5, 3), Category: "Transport", Amount: core.Money{Units: 30000}},
		{Date: core.NewDate(2025, 5, 20), Category: "Food", Amount: core.Money{Units: 50000}},
	}
	d, err := services.BuildDashboard(txs, services.DashboardQuery{Period: "this_month", Granularity: report.Week}, core.NewDate(2025, 5, 25))
	if err != nil {
		t.Fatalf("BuildDashboard: %v", err)
	}
	return d
}

func TestMarkdownDefaultSections(t *testing.T) {
	out, err := Markdown(sampleDashboard(t), Options{Currency: "VND"})
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	for _, want := range []string{
		"# Spending this_month",
		"2025-05-01 to 2025-05-25 (25 days)",
		"## Summary",
		"| Transactions | 3 |",
		"## By category",
		"| Food |",
		"85%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "## Transactions") {
		t.Error("transactions section should not be rendered by default")
	}
}

func TestMarkdownTrendAndTransactions(t *testing.T) {
	out, err := Markdown(sampleDashboard(t), Options{
		Currency: "VND",
		Sections: []Section{SectionTrend, SectionTransactions},
		MaxRows:  2,
	})
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	for _, want := range []string{
		"## Trend by week",
		"| 2025-W18 |",
		"### Per category",
		"## Transactions",
		"_1 older transactions not shown._",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "phở | trà") {
		t.Error("pipe in note must be escaped")
	}
}

func TestMarkdownEmpty(t *testing.T) {
	d, err := services.BuildDashboard(nil, services.DashboardQuery{Period: "today"}, core.NewDate(2025, 5, 25))
	if err != nil {
		t.Fatalf("BuildDashboard: %v", err)
	}
	out, err := Markdown(d, Options{Sections: []Section{SectionSummary}})
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if !strings.Contains(out, "No transactions in this window") {
		t.Errorf("missing empty notice:\n%s", out)
	}
	if strings.Contains(out, "## Summary") {
		t.Error("empty dashboard should only render the header")
	}
}

func TestMarkdownUnknownSection(t *testing.T) {
	if _, err := Markdown(sampleDashboard(t), Options{Sections: []Section{"bogus"}}); err == nil {
		t.Fatal("expected error for unknown section")
	}
}

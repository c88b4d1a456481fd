// Package render turns a dashboard into a markdown report.
package render

import (
	"embed"
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"

	"chitieu/internal/core"
	"chitieu/internal/services"
)

//go:embed templates/*.md
var templates embed.FS

// Section is one part of the report.
type Section string

const (
	SectionSummary      Section = "summary"
	SectionCategories   Section = "categories"
	SectionTrend        Section = "trend"
	SectionTransactions Section = "transactions"
)

// Options controls what Markdown renders.
type Options struct {
	Currency string
	// Sections are rendered in order after the header. Empty means summary
	// and categories.
	Sections []Section
	// MaxRows caps the transactions section; 0 means 20.
	MaxRows int
}

type view struct {
	services.Dashboard
	Rows      []core.Transaction
	Truncated int
}

// Markdown renders d as a markdown document.
func Markdown(d services.Dashboard, opts Options) (string, error) {
	sections := opts.Sections
	if len(sections) == 0 {
		sections = []Section{SectionSummary, SectionCategories}
	}
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = 20
	}

	tmpl, err := template.New("report").Funcs(funcs(opts.Currency)).ParseFS(templates, "templates/*.md")
	if err != nil {
		return "", fmt.Errorf("parse report templates: %w", err)
	}

	v := view{Dashboard: d, Rows: d.Rows}
	if len(v.Rows) > maxRows {
		v.Truncated = len(v.Rows) - maxRows
		v.Rows = v.Rows[:maxRows]
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, "header.md", v); err != nil {
		return "", fmt.Errorf("render header: %w", err)
	}
	if d.Empty() {
		return b.String(), nil
	}
	for _, s := range sections {
		b.WriteString("\n")
		if err := tmpl.ExecuteTemplate(&b, string(s)+".md", v); err != nil {
			return "", fmt.Errorf("render %s: %w", s, err)
		}
	}
	return b.String(), nil
}

func funcs(currency string) template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return m.Format(currency) },
		"average": func(v float64) string {
			return core.Money{Units: int64(math.Round(v))}.Format(currency)
		},
		"comma":   func(n int) string { return humanize.Comma(int64(n)) },
		"percent": func(p float64) string { return humanize.FtoaWithDigits(p, 1) + "%" },
		"join":    strings.Join,
		"cell":    cell,
	}
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\n", " ", "\r", "")

// cell makes s safe inside a markdown table cell.
func cell(s string) string {
	return cellReplacer.Replace(s)
}

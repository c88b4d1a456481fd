package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"

	"chitieu/internal/core"
	"chitieu/internal/report"
)

func TestParseDashboardQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     url.Values
		wantErr   error
		wantCats  []string
		wantGran  report.Granularity
		wantRange bool
	}{
		{name: "empty", query: url.Values{}},
		{
			name:     "categories repeated and comma separated",
			query:    url.Values{"category": {"Ăn uống, Nhà ở", "Di chuyển", " "}},
			wantCats: []string{"Ăn uống", "Nhà ở", "Di chuyển"},
		},
		{name: "granularity adverb", query: url.Values{"granularity": {"Weekly"}}, wantGran: report.Week},
		{name: "bad granularity", query: url.Values{"granularity": {"hourly"}}, wantErr: report.ErrInvalidGranularity},
		{
			name:      "custom range",
			query:     url.Values{"start": {"2025-05-01"}, "end": {"31/05/2025"}},
			wantRange: true,
		},
		{name: "bad start", query: url.Values{"start": {"soon"}}, wantErr: report.ErrInvalidRange},
		{name: "bad end", query: url.Values{"end": {"2025-13-01"}}, wantErr: report.ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseDashboardQuery(tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(q.Categories, tt.wantCats) {
				t.Errorf("categories = %q, want %q", q.Categories, tt.wantCats)
			}
			if q.Granularity != tt.wantGran {
				t.Errorf("granularity = %q, want %q", q.Granularity, tt.wantGran)
			}
			if q.Custom() != tt.wantRange {
				t.Errorf("Custom() = %v", q.Custom())
			}
			if tt.wantRange && (q.Start.String() != "2025-05-01" || q.End.String() != "2025-05-31") {
				t.Errorf("range = %s..%s", q.Start, q.End)
			}
		})
	}
}

func TestParseTransaction(t *testing.T) {
	today := core.NewDate(2025, 5, 25)
	form := func(v url.Values) func(string) string { return v.Get }

	tx, err := ParseTransaction(form(url.Values{
		"category": {"  Ăn uống\x00 "},
		"amount":   {"1.250.000"},
		"note":     {"sinh nhật\x07"},
	}), today)
	if err != nil {
		t.Fatalf("ParseTransaction: %v", err)
	}
	if !tx.Date.Equal(today) || tx.Category != "Ăn uống" || tx.Amount.Units != 1250000 || tx.Note != "sinh nhật" {
		t.Errorf("unexpected transaction %+v", tx)
	}

	if _, err := ParseTransaction(form(url.Values{"amount": {"12.5"}}), today); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("fractional amount: err = %v", err)
	}
	if _, err := ParseTransaction(form(url.Values{"date": {"32/01/2025"}, "amount": {"1"}}), today); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("bad date: err = %v", err)
	}
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantJSON bool
		wantErr  bool
		amount   string
	}{
		{"form", "category=An&amount=150000", false, false, "150000"},
		{"json number", `{"category":"An","amount":150000}`, true, false, "150000"},
		{"json string", `{"amount":"150.000"}`, true, false, "150.000"},
		{"json invalid", `{"amount":`, true, true, ""},
		{"empty", "", false, false, ""},
		{"too large", "note=" + strings.Repeat("x", maxBodyBytes), false, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(tt.body))
			p := NewRequestBodyParser(r)
			err := p.Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v", p.IsJSON())
			}
			if got := p.Get("amount"); got != tt.amount {
				t.Errorf("Get(amount) = %q, want %q", got, tt.amount)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  plain  ":        "plain",
		"a\x00b\x1fc":      "abc",
		"line\nbreak\ttab": "line\nbreak\ttab",
		"del\x7f":          "del",
		"\r\ncarriage\r\n": "carriage",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}

// Package http provides the HTTP server and handlers.
//
// This file turns request parameters into dashboard queries and
// transactions. It never decides whether a value is valid for the ledger;
// core and report do that.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"chitieu/internal/core"
	"chitieu/internal/report"
	"chitieu/internal/services"
)

// maxBodyBytes bounds a transaction submission.
const maxBodyBytes = 16 << 10

// ParseDashboardQuery reads period, start, end, category and granularity.
// category may repeat or hold a comma-separated list. Empty values are
// left for BuildDashboard to default. Unparseable dates fail with
// report.ErrInvalidRange, unknown granularities with
// report.ErrInvalidGranularity.
func ParseDashboardQuery(query url.Values) (services.DashboardQuery, error) {
	q := services.DashboardQuery{
		Period: strings.TrimSpace(query.Get("period")),
	}

	var err error
	if q.Start, err = parseOptionalDate(query.Get("start")); err != nil {
		return services.DashboardQuery{}, fmt.Errorf("%w: start: %v", report.ErrInvalidRange, err)
	}
	if q.End, err = parseOptionalDate(query.Get("end")); err != nil {
		return services.DashboardQuery{}, fmt.Errorf("%w: end: %v", report.ErrInvalidRange, err)
	}

	for _, v := range query["category"] {
		for _, c := range strings.Split(v, ",") {
			if c = sanitizeInput(c); c != "" {
				q.Categories = append(q.Categories, c)
			}
		}
	}

	if g := strings.TrimSpace(query.Get("granularity")); g != "" {
		if q.Granularity, err = report.ParseGranularity(g); err != nil {
			return services.DashboardQuery{}, err
		}
	}
	return q, nil
}

func parseOptionalDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

// ParseTransaction builds a transaction from submitted fields. A missing
// date means today. It does not validate the category.
func ParseTransaction(get func(string) string, today core.Date) (core.Transaction, error) {
	tx := core.Transaction{
		Date:     today,
		Category: sanitizeInput(get("category")),
		Note:     sanitizeInput(get("note")),
	}
	if v := strings.TrimSpace(get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Transaction{}, err
		}
		tx.Date = d
	}
	amount, err := core.ParseAmount(get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Amount = amount
	return tx, nil
}

// sanitizeInput drops control characters other than tab and newline and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' {
			return -1
		}
		if r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// RequestBodyParser reads a JSON or form-encoded body once.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("request body larger than %d bytes", maxBodyBytes)
	}
	return p
}

// Parse decodes the body as JSON when it looks like an object, otherwise as
// a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if strings.HasPrefix(trimmed, "{") {
		p.jsonData = map[string]any{}
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns the raw value for key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return stringValue(p.jsonData[key])
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// IsJSON reports whether the body was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod returns a 405 response unless r uses one of methods.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

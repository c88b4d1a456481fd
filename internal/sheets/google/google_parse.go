package google

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"chitieu/internal/core"
)

// ErrBadHeader is returned when the first row lacks a required column.
var ErrBadHeader = errors.New("unexpected sheet header")

type column int

const (
	colDate column = iota
	colCategory
	colAmount
	colNote
)

// headerNames maps lower-cased header text to its column. Both English and
// Vietnamese headings are recognised.
var headerNames = map[string]column{
	"date":        colDate,
	"ngày":        colDate,
	"category":    colCategory,
	"danh mục":    colCategory,
	"amount":      colAmount,
	"số tiền":     colAmount,
	"note":        colNote,
	"notes":       colNote,
	"description": colNote,
	"ghi chú":     colNote,
}

// sheetEpoch is day zero of spreadsheet date serial numbers.
var sheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// parseRows converts a values matrix whose first row is a header into
// transactions. Rows with an unparseable date or amount are skipped and
// counted. A blank category becomes core.Uncategorized. Fully blank rows
// are ignored.
func parseRows(values [][]any) ([]core.Transaction, int, error) {
	out := []core.Transaction{}
	if len(values) == 0 {
		return out, 0, nil
	}
	idx, err := headerIndex(values[0])
	if err != nil {
		return nil, 0, err
	}
	dropped := 0
	for _, row := range values[1:] {
		if blankRow(row) {
			continue
		}
		tx, ok := parseRow(row, idx)
		if !ok {
			dropped++
			continue
		}
		out = append(out, tx)
	}
	return out, dropped, nil
}

func headerIndex(header []any) (map[column]int, error) {
	idx := map[column]int{}
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(fmt.Sprint(cell)))
		if col, ok := headerNames[name]; ok {
			if _, dup := idx[col]; !dup {
				idx[col] = i
			}
		}
	}
	var missing []string
	for _, req := range []struct {
		col  column
		name string
	}{{colDate, "Date"}, {colCategory, "Category"}, {colAmount, "Amount"}} {
		if _, ok := idx[req.col]; !ok {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s; got headers=%v", ErrBadHeader, strings.Join(missing, ","), header)
	}
	return idx, nil
}

func parseRow(row []any, idx map[column]int) (core.Transaction, bool) {
	date, ok := parseDateCell(cell(row, idx, colDate))
	if !ok {
		return core.Transaction{}, false
	}
	amount, ok := parseAmountCell(cell(row, idx, colAmount))
	if !ok {
		return core.Transaction{}, false
	}
	category := strings.TrimSpace(cellString(cell(row, idx, colCategory)))
	if category == "" {
		category = core.Uncategorized
	}
	return core.Transaction{
		Date:     date,
		Category: category,
		Amount:   amount,
		Note:     strings.TrimSpace(cellString(cell(row, idx, colNote))),
	}, true
}

func cell(row []any, idx map[column]int, col column) any {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return nil
	}
	return row[i]
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func blankRow(row []any) bool {
	for _, v := range row {
		if strings.TrimSpace(cellString(v)) != "" {
			return false
		}
	}
	return true
}

func parseDateCell(v any) (core.Date, bool) {
	switch x := v.(type) {
	case float64:
		// Unformatted date cells arrive as serial day numbers.
		if x < 1 || x != math.Trunc(x) {
			return core.Date{}, false
		}
		return core.DateOf(sheetEpoch.AddDate(0, 0, int(x))), true
	case string:
		d, err := core.ParseDate(x)
		return d, err == nil
	default:
		return core.Date{}, false
	}
}

func parseAmountCell(v any) (core.Money, bool) {
	switch x := v.(type) {
	case float64:
		if x <= 0 || x != math.Trunc(x) || x > math.MaxInt64/2 {
			return core.Money{}, false
		}
		return core.Money{Units: int64(x)}, true
	case string:
		m, err := core.ParseAmount(x)
		return m, err == nil
	default:
		return core.Money{}, false
	}
}

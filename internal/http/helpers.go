package http

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"chitieu/internal/core"
	"chitieu/internal/report"
	"chitieu/internal/services"
	"chitieu/internal/sheets"
)

// User-facing messages.
const (
	msgBadRequest    = "Yêu cầu không hợp lệ."
	msgInvalidAmount = "Vui lòng nhập số tiền lớn hơn 0."
	msgInvalidDate   = "Ngày không hợp lệ."
	msgEmptyCategory = "Vui lòng chọn danh mục."
	msgUnknownCat    = "Danh mục không có trong danh sách."
	msgNoteTooLong   = "Ghi chú quá dài."
	msgInvalidPeriod = "Khoảng thời gian không hợp lệ."
	msgInvalidRange  = "Ngày bắt đầu phải trước hoặc bằng ngày kết thúc."
	msgSaveFailed    = "Không thể ghi dữ liệu. Vui lòng thử lại."
	msgLoadFailed    = "Không thể tải dữ liệu. Vui lòng kiểm tra kết nối Sheet."
	msgStoreDown     = "Không thể kết nối tới Google Sheet."
	msgRateLimited   = "Quá nhiều yêu cầu. Vui lòng thử lại sau."
	msgSaved         = "Dữ liệu đã được ghi thành công!"
)

// statusForError maps an error to an HTTP status and a user message.
// Invalid period or granularity names are malformed requests; a valid
// request whose values cannot be used is unprocessable.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, report.ErrInvalidPeriod), errors.Is(err, report.ErrInvalidGranularity):
		return http.StatusBadRequest, msgInvalidPeriod
	case errors.Is(err, report.ErrInvalidRange):
		return http.StatusUnprocessableEntity, msgInvalidRange
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, msgInvalidAmount
	case errors.Is(err, core.ErrInvalidDate):
		return http.StatusUnprocessableEntity, msgInvalidDate
	case errors.Is(err, core.ErrEmptyCategory):
		return http.StatusUnprocessableEntity, msgEmptyCategory
	case errors.Is(err, core.ErrUnknownCategory):
		return http.StatusUnprocessableEntity, msgUnknownCat
	case errors.Is(err, core.ErrNoteTooLong):
		return http.StatusUnprocessableEntity, msgNoteTooLong
	case errors.Is(err, sheets.ErrUnavailable):
		return http.StatusBadGateway, msgStoreDown
	default:
		return http.StatusInternalServerError, msgLoadFailed
	}
}

func templateFuncs(currency string) template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return m.Format(currency) },
		"average": func(v float64) string {
			return core.Money{Units: int64(math.Round(v))}.Format(currency)
		},
		"comma": func(n int) string { return humanize.Comma(int64(n)) },
		"percent": func(p float64) string {
			return humanize.FtoaWithDigits(p, 1) + "%"
		},
	}
}

// relTimeMagnitudes renders snapshot ages in Vietnamese.
var relTimeMagnitudes = []humanize.RelTimeMagnitude{
	{D: 5 * time.Second, Format: "vừa xong", DivBy: time.Second},
	{D: time.Minute, Format: "%d giây %s", DivBy: time.Second},
	{D: time.Hour, Format: "%d phút %s", DivBy: time.Minute},
	{D: humanize.Day, Format: "%d giờ %s", DivBy: time.Hour},
	{D: math.MaxInt64, Format: "%d ngày %s", DivBy: humanize.Day},
}

type option struct {
	Value, Label string
	Selected     bool
}

var periodLabels = []option{
	{Value: string(report.Today), Label: "Hôm nay"},
	{Value: string(report.ThisWeek), Label: "Tuần này"},
	{Value: string(report.ThisMonth), Label: "Tháng này"},
	{Value: string(report.ThisYear), Label: "Năm nay"},
	{Value: string(report.LastWeek), Label: "Tuần trước"},
	{Value: string(report.LastMonth), Label: "Tháng trước"},
	{Value: services.PeriodAll, Label: "Tất cả"},
}

var granularityLabels = []option{
	{Value: string(report.Day), Label: "Ngày"},
	{Value: string(report.Week), Label: "Tuần"},
	{Value: string(report.Month), Label: "Tháng"},
	{Value: string(report.Quarter), Label: "Quý"},
	{Value: string(report.Year), Label: "Năm"},
}

func selectOptions(opts []option, selected string) []option {
	out := make([]option, len(opts))
	for i, o := range opts {
		o.Selected = o.Value == selected
		out[i] = o
	}
	return out
}

// pieColors cycles for categories beyond its length.
var pieColors = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2",
	"#59a14f", "#edc948", "#b07aa1", "#ff9da7",
}

type pieSlice struct {
	Category string
	Amount   core.Money
	Percent  float64
	Color    string
}

type bar struct {
	Label  string
	Amount core.Money
	Count  int
	Height int
}

// dashboardView is the template data of the dashboard partial.
type dashboardView struct {
	services.Dashboard
	Error         string
	Start, End    string
	Periods       []option
	Granularities []option
	CategoryOpts  []option
	Slices        []pieSlice
	PieGradient   template.CSS
	Bars          []bar
	CumulativeSVG string
	SnapshotAge   string
	Dropped       int
}

func (s *Server) newDashboardView(data dashboardData, q services.DashboardQuery) dashboardView {
	d := data.dashboard
	v := dashboardView{
		Dashboard:     d,
		Periods:       selectOptions(periodLabels, d.Period),
		Granularities: selectOptions(granularityLabels, string(d.Granularity)),
		Dropped:       data.dropped,
	}
	if q.Custom() {
		v.Start, v.End = q.Start.String(), q.End.String()
	}
	if !data.fetchedAt.IsZero() {
		v.SnapshotAge = humanize.CustomRelTime(data.fetchedAt, s.now(), "trước", "sau", relTimeMagnitudes)
	}

	selected := map[string]bool{}
	for _, c := range d.Categories {
		selected[c] = true
	}
	for _, c := range data.categories {
		v.CategoryOpts = append(v.CategoryOpts, option{Value: c, Label: c, Selected: selected[c]})
	}

	v.Slices, v.PieGradient = pieChart(d.ByCategory)
	v.Bars = barChart(d.Trend)
	v.CumulativeSVG = polyline(d.Cumulative, 300, 100)
	return v
}

// pieChart assigns colours and builds a conic-gradient for the shares.
func pieChart(totals []report.CategoryTotal) ([]pieSlice, template.CSS) {
	if len(totals) == 0 {
		return nil, ""
	}
	slices := make([]pieSlice, len(totals))
	stops := make([]string, 0, len(totals))
	var from float64
	for i, t := range totals {
		color := pieColors[i%len(pieColors)]
		slices[i] = pieSlice{Category: t.Category, Amount: t.Amount, Percent: t.Percent, Color: color}
		to := from + t.Percent
		if i == len(totals)-1 {
			to = 100
		}
		stops = append(stops, fmt.Sprintf("%s %.2f%% %.2f%%", color, from, to))
		from = to
	}
	return slices, template.CSS("conic-gradient(" + strings.Join(stops, ", ") + ")")
}

// barChart scales period totals to percentages of the largest.
func barChart(trend []report.PeriodTotal) []bar {
	var peak int64
	for _, p := range trend {
		if p.Amount.Units > peak {
			peak = p.Amount.Units
		}
	}
	bars := make([]bar, len(trend))
	for i, p := range trend {
		h := 0
		if peak > 0 {
			h = int(math.Round(float64(p.Amount.Units) * 100 / float64(peak)))
			if h < 2 && p.Amount.Units > 0 {
				h = 2
			}
		}
		bars[i] = bar{Label: p.Period, Amount: p.Amount, Count: p.Count, Height: h}
	}
	return bars
}

// polyline returns SVG points for the running total in a width x height box.
func polyline(points []report.CumulativePoint, width, height int) string {
	if len(points) == 0 {
		return ""
	}
	last := points[len(points)-1].Running.Units
	if last <= 0 {
		return ""
	}
	var b strings.Builder
	n := len(points)
	for i, p := range points {
		x := 0.0
		if n > 1 {
			x = float64(i) * float64(width) / float64(n-1)
		}
		y := float64(height) - float64(p.Running.Units)*float64(height)/float64(last)
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", x, y)
	}
	return b.String()
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"chitieu/internal/backend"
	"chitieu/internal/core"
	applog "chitieu/internal/log"
	"chitieu/internal/render"
	"chitieu/internal/report"
	"chitieu/internal/services"
)

// environment is what every report command shares.
type environment struct {
	currency string
	loc      *time.Location
	now      func() time.Time
	out      io.Writer
	errOut   io.Writer
	logger   *applog.Logger
	open     func(ctx context.Context) (*backend.BackendResult, error)
}

func (e *environment) today() core.Date {
	return core.DateOf(e.now().In(e.loc))
}

// queryFlags are the selection flags common to all reports.
type queryFlags struct {
	period      string
	from        string
	to          string
	category    string
	granularity string
}

func (q *queryFlags) register(f *flag.FlagSet) {
	f.StringVar(&q.period, "period", "", "relative period: today, this_week, this_month, this_year, last_week, last_month or all (default this_month)")
	f.StringVar(&q.from, "from", "", "start date of a custom range (YYYY-MM-DD or DD/MM/YYYY)")
	f.StringVar(&q.to, "to", "", "end date of a custom range, inclusive")
	f.StringVar(&q.category, "category", "", "comma separated categories to include (default all)")
	f.StringVar(&q.granularity, "granularity", "", "trend bucket size: day, week, month, quarter or year (default month)")
}

// query converts the flags to a dashboard query. Date and granularity
// errors wrap the report package sentinels.
func (q *queryFlags) query() (services.DashboardQuery, error) {
	dq := services.DashboardQuery{Period: strings.TrimSpace(q.period)}
	var err error
	if s := strings.TrimSpace(q.from); s != "" {
		if dq.Start, err = core.ParseDate(s); err != nil {
			return dq, fmt.Errorf("%w: -from: %v", report.ErrInvalidRange, err)
		}
	}
	if s := strings.TrimSpace(q.to); s != "" {
		if dq.End, err = core.ParseDate(s); err != nil {
			return dq, fmt.Errorf("%w: -to: %v", report.ErrInvalidRange, err)
		}
	}
	for _, c := range strings.Split(q.category, ",") {
		if c = strings.TrimSpace(c); c != "" {
			dq.Categories = append(dq.Categories, c)
		}
	}
	if s := strings.TrimSpace(q.granularity); s != "" {
		if dq.Granularity, err = report.ParseGranularity(s); err != nil {
			return dq, err
		}
	}
	return dq, nil
}

// reportCmd renders a fixed list of sections for the selected window.
type reportCmd struct {
	env      *environment
	name     string
	synopsis string
	sections []render.Section

	flags queryFlags
	rows  int
	raw   bool
	width int
}

func commands(env *environment) []subcommands.Command {
	return []subcommands.Command{
		&reportCmd{
			env:      env,
			name:     "summary",
			synopsis: "totals, averages and the latest transactions",
			sections: []render.Section{render.SectionSummary, render.SectionCategories, render.SectionTransactions},
		},
		&reportCmd{
			env:      env,
			name:     "trend",
			synopsis: "spending per period at the chosen granularity",
			sections: []render.Section{render.SectionSummary, render.SectionTrend},
		},
		&reportCmd{
			env:      env,
			name:     "categories",
			synopsis: "spending per category and its share of the total",
			sections: []render.Section{render.SectionCategories},
		},
	}
}

func (c *reportCmd) Name() string     { return c.name }
func (c *reportCmd) Synopsis() string { return c.synopsis }
func (c *reportCmd) Usage() string {
	return fmt.Sprintf(`%s [-period <name> | -from <date> -to <date>] [-category <a,b>] [-granularity <unit>]

  Prints the %s report. The store is chosen by DATA_BACKEND.
`, c.name, c.name)
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.flags.register(f)
	f.IntVar(&c.rows, "rows", 20, "maximum transactions listed")
	f.BoolVar(&c.raw, "raw", false, "print markdown without terminal styling")
	f.IntVar(&c.width, "width", 100, "word wrap width of styled output")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	q, err := c.flags.query()
	if err != nil {
		fmt.Fprintf(c.env.errOut, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	md, err := c.generate(ctx, q)
	if errors.Is(err, report.ErrInvalidPeriod) || errors.Is(err, report.ErrInvalidRange) || errors.Is(err, report.ErrInvalidGranularity) {
		fmt.Fprintf(c.env.errOut, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(c.env.errOut, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := c.print(md); err != nil {
		fmt.Fprintf(c.env.errOut, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *reportCmd) generate(ctx context.Context, q services.DashboardQuery) (string, error) {
	store, err := c.env.open(ctx)
	if err != nil {
		return "", fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			c.env.logger.Warn("Store cleanup failed", "error", err)
		}
	}()

	snap, err := store.Backend.FetchAll(ctx)
	if err != nil {
		return "", fmt.Errorf("read transactions: %w", err)
	}
	if snap.Dropped > 0 {
		c.env.logger.Warn("Skipped unreadable rows", "dropped", snap.Dropped)
	}

	d, err := services.BuildDashboard(snap.Transactions, q, c.env.today())
	if err != nil {
		return "", err
	}
	return render.Markdown(d, render.Options{
		Currency: c.env.currency,
		Sections: c.sections,
		MaxRows:  c.rows,
	})
}

func (c *reportCmd) print(md string) error {
	if c.raw {
		_, err := io.WriteString(c.env.out, md)
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(c.width))
	if err != nil {
		return fmt.Errorf("terminal renderer: %w", err)
	}
	styled, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(c.env.out, styled)
	return err
}

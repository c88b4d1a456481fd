package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	applog "chitieu/internal/log"
	"chitieu/internal/report"
	"chitieu/internal/services"
	"chitieu/internal/sheets"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that the store answers within a few seconds.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := http.StatusOK

	var err error
	if p, ok := s.store.(pinger); ok {
		err = p.Ping(ctx)
	} else {
		_, err = s.store.Categories(ctx)
	}
	if err != nil {
		checks["store"] = "failed: " + err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}

// handleIndex renders the page with the entry form and the initial dashboard.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := services.DashboardQuery{Period: services.DefaultPeriod, Granularity: report.Month}
	data, err := s.loadDashboard(ctx, q)
	if err != nil {
		s.logError(ctx, "Failed to load dashboard", err, applog.OpRead)
	}

	page := struct {
		Today      string
		Categories []string
		Dashboard  dashboardView
		LoadError  string
	}{
		Today:      s.today().String(),
		Categories: data.categories,
		Dashboard:  s.newDashboardView(data, q),
	}
	if err != nil {
		page.LoadError = msgLoadFailed
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", page); err != nil {
		s.logError(ctx, "Index template execution failed", err, applog.OpRender)
	}
}

// dashboardData is what a dashboard view needs from the store.
type dashboardData struct {
	categories []string
	dashboard  services.Dashboard
	dropped    int
	fetchedAt  time.Time
	cached     bool
}

// loadDashboard fetches categories and the snapshot concurrently and builds
// the dashboard for q.
func (s *Server) loadDashboard(ctx context.Context, q services.DashboardQuery) (dashboardData, error) {
	var (
		data   dashboardData
		snap   sheets.Snapshot
		cached bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cats, err := s.store.Categories(gctx)
		data.categories = cats
		return err
	})
	g.Go(func() error {
		var err error
		snap, cached, err = s.snapshots.Fetch(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return data, err
	}

	d, err := services.BuildDashboard(snap.Transactions, q, s.today())
	if err != nil {
		return data, err
	}
	data.dashboard = d
	data.dropped = snap.Dropped
	data.fetchedAt = snap.FetchedAt
	data.cached = cached

	applog.NewStructuredLogger(applog.FromContext(ctx).WithComponent(applog.ComponentDashboard)).
		LogDashboard(ctx, d.Period, string(d.Granularity), d.Window.Start, d.Window.End, d.Summary.Count, snap.Dropped)
	return data, nil
}

func (s *Server) logError(ctx context.Context, msg string, err error, op string) {
	applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, msg, err, op, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package http

import (
	"bytes"
	"context"
	"net/http"
	"time"

	applog "chitieu/internal/log"
	"chitieu/internal/services"
)

const dashboardTimeout = 10 * time.Second

// handleDashboardPartial renders the dashboard fragment for the query in
// the URL.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	q, err := ParseDashboardQuery(r.URL.Query())
	if err != nil {
		status, msg := statusForError(err)
		ErrorResponse(status, msg).Write(w)
		return
	}
	data, err := s.loadDashboard(ctx, q)
	if err != nil {
		status, msg := statusForError(err)
		if status >= http.StatusInternalServerError {
			s.logError(ctx, "Failed to build dashboard", err, applog.OpRead)
		}
		ErrorResponse(status, msg).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard", s.newDashboardView(data, q)); err != nil {
		s.logError(ctx, "Dashboard template execution failed", err, applog.OpRender)
		ErrorResponse(http.StatusInternalServerError, msgLoadFailed).Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(buf.String()).Write(w)
}

// dashboardResponse is the JSON form of a dashboard.
type dashboardResponse struct {
	services.Dashboard
	Dropped   int       `json:"dropped_rows"`
	FetchedAt time.Time `json:"fetched_at"`
	Cached    bool      `json:"cached"`
}

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	q, err := ParseDashboardQuery(r.URL.Query())
	if err != nil {
		status, _ := statusForError(err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	data, err := s.loadDashboard(ctx, q)
	if err != nil {
		status, msg := statusForError(err)
		if status >= http.StatusInternalServerError {
			s.logError(ctx, "Failed to build dashboard", err, applog.OpRead)
			writeJSON(w, status, map[string]string{"error": msg})
			return
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		Dashboard: data.dashboard,
		Dropped:   data.dropped,
		FetchedAt: data.fetchedAt,
		Cached:    data.cached,
	})
}

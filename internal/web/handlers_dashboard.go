package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/web/templates"
)

const (
	dashboardReports = 5
	dashboardRuns    = 10
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := templates.DashboardData{
		Health: s.healthStatus(),
		Runner: s.runs.Store().Snapshot(),
	}

	active, err := s.api.ActiveBatches(ctx)
	if err != nil {
		s.logger.Debug("active batches unavailable", zap.Error(err))
	}
	data.ActiveBatches = active

	reports, err := s.api.ListReports(ctx, 0, dashboardReports)
	if err != nil {
		data.ReportsError = err.Error()
	}
	data.RecentReports = reports

	if s.journal != nil {
		runs, err := s.journal.ListRuns(ctx, dashboardRuns)
		if err != nil {
			s.logger.Warn("failed to list journal runs", zap.Error(err))
		}
		data.RecentRuns = runs
	}

	s.render(w, r, http.StatusOK, templates.Dashboard(data, noticeFrom(r)))
}

func (s *Server) handleHealthPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.HealthBadge(s.healthStatus()))
}

func (s *Server) healthStatus() templates.HealthStatus {
	out := templates.HealthStatus{APIURL: s.apiURL}
	if s.health == nil {
		return out
	}
	st := s.health.Status()
	out.Connected = st.Connected
	out.LastChecked = st.LastChecked
	out.LastError = st.LastError
	return out
}

func (s *Server) handleJournalRun(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	batchID := r.PathValue("batch")

	run, err := s.journal.GetRun(ctx, batchID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.NotFound(w, r)
		return
	}
	logs, err := s.journal.ListLogs(ctx, batchID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, templates.JournalRun(templates.JournalPage{Run: run, Logs: logs}))
}

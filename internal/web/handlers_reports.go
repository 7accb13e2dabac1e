package web

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/adapters/storage"
	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/web/templates"
)

const (
	reportListLimit = 100
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := templates.ReportsPage{Archived: map[string]bool{}}

	reports, err := s.api.ListReports(ctx, 0, reportListLimit)
	if err != nil {
		data.LoadError = err.Error()
	}
	data.Reports = reports

	if s.archive != nil {
		for _, b := range reports {
			ok, err := s.archive.Exists(ctx, b.ID)
			if err != nil {
				s.logger.Debug("archive lookup failed", zap.String("batch_id", b.ID), zap.Error(err))
				continue
			}
			data.Archived[b.ID] = ok
		}
	}

	s.render(w, r, http.StatusOK, templates.Reports(data, noticeFrom(r)))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	batchID := r.PathValue("id")

	batch, err := s.api.GetReport(ctx, batchID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if batch == nil {
		http.NotFound(w, r)
		return
	}
	results, err := s.api.ReportDetails(ctx, batchID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	filter := r.URL.Query().Get("result")
	data := templates.ReportDetail{Batch: *batch, Filter: filter}
	for _, res := range domain.FilterResults(results, filter) {
		diff := domain.DiffSQL(res.ExpectedSQL, res.ActualSQL)
		data.Rows = append(data.Rows, templates.ResultRow{Result: res, Diff: diff, Changed: domain.ChangedCount(diff)})
	}
	if s.archive != nil {
		data.Archived, _ = s.archive.Exists(ctx, batchID)
	}

	s.render(w, r, http.StatusOK, templates.Report(data, noticeFrom(r)))
}

// handleExportReport streams the workbook and keeps a local copy. When the
// backend cannot export, a previously archived copy is served instead.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	batchID := r.PathValue("id")

	data, err := s.api.ExportReport(ctx, batchID)
	if err != nil {
		archived, ok := s.archived(r, batchID)
		if !ok {
			s.fail(w, r, err)
			return
		}
		s.logger.Warn("export failed, serving archived copy", zap.String("batch_id", batchID), zap.Error(err))
		data = archived
	} else if s.archive != nil {
		if _, err := s.archive.Store(ctx, batchID, data); err != nil {
			s.logger.Warn("failed to archive report", zap.String("batch_id", batchID), zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", storage.FileName(batchID)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) archived(r *http.Request, batchID string) ([]byte, bool) {
	if s.archive == nil {
		return nil, false
	}
	data, err := s.archive.Get(r.Context(), batchID)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (s *Server) handleForgetReport(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")
	if s.archive == nil {
		http.NotFound(w, r)
		return
	}
	if err := s.archive.Delete(r.Context(), batchID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	redirect(w, r, "/reports", "Local copy of "+batchID+" removed")
}

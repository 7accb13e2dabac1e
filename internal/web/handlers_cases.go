package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/web/templates"
)

const maxImportSize = 32 << 20

var casePriorities = []domain.Priority{domain.PriorityP0, domain.PriorityP1, domain.PriorityP2}

func (s *Server) handleCases(w http.ResponseWriter, r *http.Request) {
	filter := filterFrom(r.URL.Query())
	data := templates.CasesPage{
		Filter:     filter,
		Priorities: casePriorities,
		Running:    s.runs.Store().Running(),
	}

	all, err := s.api.ListCases(r.Context(), 0, s.caseLimit)
	if err != nil {
		data.LoadError = err.Error()
	}
	data.Total = len(all)
	data.Modules = domain.UniqueModules(all)
	data.Cases = domain.FilterCases(all, filter)

	s.render(w, r, http.StatusOK, templates.Cases(data, noticeFrom(r)))
}

func (s *Server) handleNewCase(w http.ResponseWriter, r *http.Request) {
	form := templates.CaseForm{Input: domain.CaseInput{IsActive: true}}
	s.render(w, r, http.StatusOK, templates.CaseEditor(form, nil))
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	in, ok := s.caseInput(w, r, 0)
	if !ok {
		return
	}
	created, err := s.api.CreateCase(r.Context(), in)
	if err != nil {
		s.render(w, r, statusFor(err), templates.CaseEditor(templates.CaseForm{Input: in}, errorFlash(err)))
		return
	}
	notice := "Case created"
	if created != nil {
		notice = fmt.Sprintf("Case #%d created", created.ID)
	}
	redirect(w, r, "/cases", notice)
}

func (s *Server) handleEditCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cases, err := s.api.ListCases(r.Context(), 0, s.caseLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for _, c := range cases {
		if c.ID != id {
			continue
		}
		form := templates.CaseForm{
			ID:     c.ID,
			Module: c.Module,
			Input: domain.CaseInput{
				Question:           c.Question,
				ExpectedKeywords:   c.ExpectedKeywords,
				ExpectedConditions: c.ExpectedConditions,
				ExpectedSQL:        c.ExpectedSQL,
				IsActive:           c.IsActive,
			},
		}
		s.render(w, r, http.StatusOK, templates.CaseEditor(form, nil))
		return
	}
	http.NotFound(w, r)
}

func (s *Server) handleUpdateCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	in, ok := s.caseInput(w, r, id)
	if !ok {
		return
	}
	if _, err := s.api.UpdateCase(r.Context(), id, in); err != nil {
		s.render(w, r, statusFor(err), templates.CaseEditor(templates.CaseForm{ID: id, Input: in}, errorFlash(err)))
		return
	}
	redirect(w, r, "/cases", fmt.Sprintf("Case #%d saved", id))
}

// caseInput parses and validates the case form, rendering the editor with
// field errors when it is invalid.
func (s *Server) caseInput(w http.ResponseWriter, r *http.Request, id int) (domain.CaseInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return domain.CaseInput{}, false
	}
	in := domain.CaseInput{
		Question:           strings.TrimSpace(r.FormValue("question")),
		ExpectedKeywords:   strings.TrimSpace(r.FormValue("expected_keywords")),
		ExpectedConditions: strings.TrimSpace(r.FormValue("expected_conditions")),
		ExpectedSQL:        strings.TrimSpace(r.FormValue("expected_sql")),
		IsActive:           r.FormValue("is_active") == "true",
	}
	if err := in.Validate(); err != nil {
		form := templates.CaseForm{ID: id, Input: in}
		form.Errors, _ = err.(*domain.ValidationError)
		s.render(w, r, http.StatusUnprocessableEntity, templates.CaseEditor(form, nil))
		return in, false
	}
	return in, true
}

func (s *Server) handleToggleCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	active, err := strconv.ParseBool(r.URL.Query().Get("active"))
	if err != nil {
		var v domain.ValidationError
		v.Add("active", "must be true or false")
		s.fail(w, r, &v)
		return
	}
	updated, err := s.api.SetCaseActive(r.Context(), id, active)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if updated == nil {
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusOK)
		return
	}
	s.render(w, r, http.StatusOK, templates.CaseRow(*updated))
}

func (s *Server) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.api.DeleteCase(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	// The row is swapped out with the empty body.
	w.WriteHeader(http.StatusOK)
}

// handleBulkCases runs, enables, disables or deletes the selected cases. A
// run without a selection takes every case the filter displays.
func (s *Server) handleBulkCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ids, err := formIDs(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	action := r.FormValue("action")
	if action == "run" {
		s.runSelection(w, r, ids, filterFrom(r.Form))
		return
	}
	if len(ids) == 0 {
		s.fail(w, r, errNoSelection)
		return
	}

	var notice string
	switch action {
	case "enable", "disable":
		res, err := s.api.SetCasesActive(ctx, ids, action == "enable")
		if err != nil {
			s.fail(w, r, err)
			return
		}
		notice = fmt.Sprintf("%d cases %sd", bulkCount(res, len(ids)), action)
	case "delete":
		res, err := s.api.DeleteCases(ctx, ids)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		n := len(ids)
		if res != nil {
			n = res.Deleted
		}
		notice = fmt.Sprintf("%d cases deleted", n)
	default:
		var v domain.ValidationError
		v.Add("action", "is not supported")
		s.fail(w, r, &v)
		return
	}
	redirect(w, r, "/cases", notice)
}

func bulkCount(res *domain.BulkResult, fallback int) int {
	if res == nil {
		return fallback
	}
	return res.Updated
}

func (s *Server) runSelection(w http.ResponseWriter, r *http.Request, selected []int, filter domain.CaseFilter) {
	ctx := r.Context()
	all, err := s.api.ListCases(ctx, 0, s.caseLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ids, err := domain.SelectForRun(selected, domain.FilterCases(all, filter))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ticket, err := s.runs.Start(ctx, ids, domain.CasesByID(all, ids))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.runs.FollowInBackground(s.baseCtx, ticket.BatchID)

	s.logger.Info("run started from web", zap.String("batch_id", ticket.BatchID), zap.Int("cases", len(ids)))
	redirect(w, r, "/runner", "")
}

func (s *Server) handleImportCases(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	res, err := s.api.ImportCases(r.Context(), header.Filename, file)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	n := 0
	if res != nil {
		n = res.Imported
	}
	redirect(w, r, "/cases", fmt.Sprintf("Imported %d cases from %s", n, header.Filename))
}

func (s *Server) handleClearCases(w http.ResponseWriter, r *http.Request) {
	res, err := s.api.ClearCases(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	n := 0
	if res != nil {
		n = res.Deleted
	}
	redirect(w, r, "/cases", fmt.Sprintf("%d cases deleted", n))
}

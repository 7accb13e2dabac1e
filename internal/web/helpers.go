package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/runner"
	"github.com/emiliopalmerini/helix-console/internal/shared/middleware"
	"github.com/emiliopalmerini/helix-console/internal/web/templates"
)

// statusFor maps an error to the HTTP status shown to the browser.
func statusFor(err error) int {
	var ve *domain.ValidationError
	var coded interface{ HTTPStatus() int }
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, runner.ErrNoActiveRun):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptySelection), errors.Is(err, errNoSelection):
		return http.StatusBadRequest
	case errors.As(err, &coded):
		switch code := coded.HTTPStatus(); code {
		case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
			return code
		}
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

var errNoSelection = errors.New("select at least one case")

// fail reports err as a flash. HTMX requests get the banner swapped into
// #flash; plain requests get a text error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}

	if !middleware.IsHTMX(r) {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("HX-Retarget", "#flash")
	w.Header().Set("HX-Reswap", "innerHTML")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = templates.FlashMessage(&templates.Flash{Kind: "error", Message: err.Error()}).Render(r.Context(), w)
}

// redirect sends the browser to target with an optional notice.
func redirect(w http.ResponseWriter, r *http.Request, target, notice string) {
	if notice != "" {
		target += "?notice=" + url.QueryEscape(notice)
	}
	if middleware.IsHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := c.Render(r.Context(), w); err != nil {
		s.logger.Warn("render failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// noticeFrom turns the notice query parameter into a success flash.
func noticeFrom(r *http.Request) *templates.Flash {
	if msg := r.URL.Query().Get("notice"); msg != "" {
		return &templates.Flash{Kind: "success", Message: msg}
	}
	return nil
}

func errorFlash(err error) *templates.Flash {
	return &templates.Flash{Kind: "error", Message: err.Error()}
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		var v domain.ValidationError
		v.Add("id", "must be a positive integer")
		return 0, &v
	}
	return id, nil
}

// formIDs parses every repeated "id" form value, skipping blanks.
func formIDs(r *http.Request) ([]int, error) {
	var ids []int
	for _, raw := range r.Form["id"] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			var v domain.ValidationError
			v.Add("id", "must be an integer")
			return nil, &v
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// filterFrom reads the case filter from query or form values.
func filterFrom(values url.Values) domain.CaseFilter {
	f := domain.CaseFilter{
		Search: strings.TrimSpace(values.Get("q")),
		Status: domain.ParseStatusFilter(values.Get("status")),
	}
	for _, m := range values["module"] {
		if m = strings.TrimSpace(m); m != "" {
			f.Modules = append(f.Modules, m)
		}
	}
	for _, p := range values["priority"] {
		if p = strings.TrimSpace(p); p != "" {
			f.Priorities = append(f.Priorities, domain.Priority(strings.ToUpper(p)))
		}
	}
	return f
}

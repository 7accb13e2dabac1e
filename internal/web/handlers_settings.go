package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/web/templates"
)

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.api.GetConfig(r.Context())
	if err != nil {
		s.render(w, r, statusFor(err), templates.Settings(templates.SettingsForm{}, errorFlash(err)))
		return
	}
	if cfg == nil {
		cfg = &domain.SystemConfig{}
	}
	form := templates.SettingsForm{Config: *cfg, Headers: headersJSON(cfg.Headers)}
	s.render(w, r, http.StatusOK, templates.Settings(form, noticeFrom(r)))
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	update, verr := configUpdateFromForm(r)
	if verr == nil {
		if err := update.Validate(); err != nil {
			verr, _ = err.(*domain.ValidationError)
		}
	}
	if verr != nil {
		form := templates.SettingsForm{Headers: r.FormValue("headers"), Errors: verr}
		if cfg, err := s.api.GetConfig(ctx); err == nil && cfg != nil {
			form.Config = *cfg
		}
		if update.MaxWorkers != nil {
			form.Config.MaxWorkers = *update.MaxWorkers
		}
		s.render(w, r, http.StatusUnprocessableEntity, templates.Settings(form, nil))
		return
	}
	if update.IsEmpty() {
		redirect(w, r, "/settings", "Nothing to change")
		return
	}

	if _, err := s.api.UpdateConfig(ctx, update); err != nil {
		s.fail(w, r, err)
		return
	}
	redirect(w, r, "/settings", "Settings saved")
}

// configUpdateFromForm keeps blank fields out of the update so the backend
// leaves them untouched.
func configUpdateFromForm(r *http.Request) (domain.ConfigUpdate, *domain.ValidationError) {
	var u domain.ConfigUpdate
	var v domain.ValidationError

	if token := strings.TrimSpace(r.FormValue("user_token")); token != "" {
		u.UserToken = &token
	}
	if raw := strings.TrimSpace(r.FormValue("max_workers")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			v.Add("max_workers", "must be a whole number")
		} else {
			u.MaxWorkers = &n
		}
	}
	if raw := strings.TrimSpace(r.FormValue("headers")); raw != "" {
		var headers map[string]string
		if err := json.Unmarshal([]byte(raw), &headers); err != nil {
			v.Add("headers", "must be a JSON object of strings")
		} else {
			u.Headers = headers
		}
	}
	if len(v.Fields) > 0 {
		return u, &v
	}
	return u, nil
}

func headersJSON(h map[string]string) string {
	if len(h) == 0 {
		return ""
	}
	b, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

func (s *Server) handleGenerator(w http.ResponseWriter, r *http.Request) {
	data := templates.GeneratorPage{Count: domain.DefaultGenerateCount}
	meta, err := s.api.PreviewMetadata(r.Context())
	if err != nil {
		data.LoadError = err.Error()
	}
	data.Metadata = meta
	s.render(w, r, http.StatusOK, templates.Generator(data, noticeFrom(r)))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	count := domain.DefaultGenerateCount
	if raw := strings.TrimSpace(r.FormValue("count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			var v domain.ValidationError
			v.Add("count", "must be a whole number")
			s.fail(w, r, &v)
			return
		}
		count = domain.ClampGenerateCount(n)
	}

	data := templates.GeneratorPage{Count: count}
	meta, err := s.api.PreviewMetadata(ctx)
	if err != nil {
		s.logger.Warn("failed to load generator metadata", zap.Error(err))
		data.LoadError = err.Error()
	}
	data.Metadata = meta

	res, err := s.api.GenerateCases(ctx, count)
	if err != nil {
		s.render(w, r, statusFor(err), templates.Generator(data, errorFlash(err)))
		return
	}
	if res == nil {
		res = &domain.GenerateResult{Generated: count}
	}
	data.Result = res
	s.render(w, r, http.StatusOK, templates.Generator(data, &templates.Flash{
		Kind:    "success",
		Message: fmt.Sprintf("Generated %d cases", res.Generated),
	}))
}

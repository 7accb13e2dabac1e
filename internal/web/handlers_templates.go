package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/web/templates"
)

const templateListLimit = 500

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	var data templates.TemplatesPage
	list, err := s.api.ListTemplates(r.Context(), 0, templateListLimit)
	if err != nil {
		data.LoadError = err.Error()
	}
	data.Templates = list
	s.render(w, r, http.StatusOK, templates.Templates(data, noticeFrom(r)))
}

func (s *Server) handleNewTemplate(w http.ResponseWriter, r *http.Request) {
	t := domain.Template{IsActive: true, Method: "POST"}
	t.Normalize()
	s.render(w, r, http.StatusOK, templates.TemplateEditor(templates.TemplateForm{Template: t}, nil))
}

func (s *Server) handleEditTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.api.GetTemplate(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if t == nil {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, http.StatusOK, templates.TemplateEditor(templates.TemplateForm{Template: *t}, noticeFrom(r)))
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.templateForm(w, r, 0)
	if !ok {
		return
	}
	created, err := s.api.CreateTemplate(r.Context(), t)
	if err != nil {
		s.render(w, r, statusFor(err), templates.TemplateEditor(templates.TemplateForm{Template: t}, errorFlash(err)))
		return
	}
	code := t.Code
	if created != nil {
		code = created.Code
	}
	redirect(w, r, "/templates", fmt.Sprintf("Template %s created", code))
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	t, ok := s.templateForm(w, r, id)
	if !ok {
		return
	}
	if _, err := s.api.UpdateTemplate(r.Context(), id, t); err != nil {
		s.render(w, r, statusFor(err), templates.TemplateEditor(templates.TemplateForm{Template: t}, errorFlash(err)))
		return
	}
	redirect(w, r, "/templates", fmt.Sprintf("Template %s saved", t.Code))
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.api.DeleteTemplate(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleParseCurl seeds a new template draft from a pasted cURL command.
func (s *Server) handleParseCurl(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	command := strings.TrimSpace(r.FormValue("curl_command"))
	form := templates.TemplateForm{CurlInput: command, Template: domain.Template{IsActive: true}}
	if command == "" {
		var v domain.ValidationError
		v.Add("curl_command", "is required")
		s.render(w, r, http.StatusUnprocessableEntity, templates.TemplateEditor(form, errorFlash(&v)))
		return
	}
	parsed, err := s.api.ParseCurl(r.Context(), command)
	if err != nil {
		s.render(w, r, statusFor(err), templates.TemplateEditor(form, errorFlash(err)))
		return
	}
	form.Template = parsed.ToTemplate()
	s.render(w, r, http.StatusOK, templates.TemplateEditor(form, &templates.Flash{Kind: "success", Message: "Parsed cURL command"}))
}

// handleDebugTemplate renders and sends the unsaved form through the backend.
func (s *Server) handleDebugTemplate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	t, verr := templateFromForm(r)
	if verr != nil {
		s.fail(w, r, verr)
		return
	}
	t.Normalize()

	req := domain.TemplateDebugRequest{Template: t}
	if raw := strings.TrimSpace(r.FormValue("variables")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			var v domain.ValidationError
			v.Add("variables", "must be a JSON object")
			s.fail(w, r, &v)
			return
		}
	}

	res, err := s.api.DebugTemplate(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res == nil {
		res = &domain.TemplateDebugResponse{}
	}
	s.render(w, r, http.StatusOK, templates.DebugResult(res))
}

// templateForm parses, normalizes and validates the editor form. Invalid
// input re-renders the editor with field errors.
func (s *Server) templateForm(w http.ResponseWriter, r *http.Request, id int) (domain.Template, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return domain.Template{}, false
	}
	t, verr := templateFromForm(r)
	t.ID = id
	if verr == nil {
		t.Normalize()
		if err := t.Validate(); err != nil {
			verr, _ = err.(*domain.ValidationError)
		}
	}
	if verr != nil {
		form := templates.TemplateForm{Template: t, Errors: verr}
		s.render(w, r, http.StatusUnprocessableEntity, templates.TemplateEditor(form, nil))
		return t, false
	}
	return t, true
}

func templateFromForm(r *http.Request) (domain.Template, *domain.ValidationError) {
	t := domain.Template{
		Code:           r.FormValue("code"),
		Name:           r.FormValue("name"),
		Description:    strings.TrimSpace(r.FormValue("description")),
		Version:        strings.TrimSpace(r.FormValue("version")),
		Method:         r.FormValue("method"),
		BaseURL:        r.FormValue("base_url"),
		Endpoint:       r.FormValue("endpoint"),
		BodyType:       r.FormValue("body_type"),
		BodyTemplate:   r.FormValue("body_template"),
		QueryParams:    strings.TrimSpace(r.FormValue("query_params")),
		Headers:        strings.TrimSpace(r.FormValue("headers")),
		AuthType:       r.FormValue("auth_type"),
		AuthConfig:     strings.TrimSpace(r.FormValue("auth_config")),
		ResponseParser: strings.TrimSpace(r.FormValue("response_parser")),
		IsActive:       r.FormValue("is_active") == "true",
	}

	var v domain.ValidationError
	if n, ok := formInt(r, "timeout"); ok {
		t.Timeout = n
	} else {
		v.Add("timeout", "must be a whole number of seconds")
	}
	if n, ok := formInt(r, "retry_count"); ok {
		t.RetryCount = n
	} else {
		v.Add("retry_count", "must be a whole number")
	}
	if len(v.Fields) > 0 {
		return t, &v
	}
	return t, nil
}

// formInt reads an optional integer field; blank is zero.
func formInt(r *http.Request, name string) (int, bool) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

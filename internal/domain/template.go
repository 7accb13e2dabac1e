package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Body types accepted by a template.
const (
	BodyJSON     = "json"
	BodyFormData = "form-data"
	BodyRaw      = "raw"
	BodyNone     = "none"
)

// Auth types accepted by a template.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthAPIKey = "apikey"
	AuthBasic  = "basic"
	AuthCustom = "custom"
)

const defaultTemplateTimeout = 10

var (
	templateMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	bodyTypes       = []string{BodyJSON, BodyFormData, BodyRaw, BodyNone}
	authTypes       = []string{AuthNone, AuthBearer, AuthAPIKey, AuthBasic, AuthCustom}
)

// Template is a reusable HTTP request definition.
type Template struct {
	ID             int        `json:"id,omitempty" yaml:"id,omitempty"`
	ProjectID      int        `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Code           string     `json:"code" yaml:"code"`
	Name           string     `json:"name" yaml:"name"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	Version        string     `json:"version,omitempty" yaml:"version,omitempty"`
	BaseURL        string     `json:"base_url" yaml:"base_url"`
	Method         string     `json:"method" yaml:"method"`
	Endpoint       string     `json:"endpoint" yaml:"endpoint"`
	BodyType       string     `json:"body_type,omitempty" yaml:"body_type,omitempty"`
	BodyTemplate   string     `json:"body_template,omitempty" yaml:"body_template,omitempty"`
	QueryParams    string     `json:"query_params,omitempty" yaml:"query_params,omitempty"`
	Headers        string     `json:"headers,omitempty" yaml:"headers,omitempty"`
	AuthType       string     `json:"auth_type,omitempty" yaml:"auth_type,omitempty"`
	AuthConfig     string     `json:"auth_config,omitempty" yaml:"auth_config,omitempty"`
	ResponseParser string     `json:"response_parser,omitempty" yaml:"response_parser,omitempty"`
	Timeout        int        `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RetryCount     int        `json:"retry_count,omitempty" yaml:"retry_count,omitempty"`
	IsActive       bool       `json:"is_active" yaml:"is_active"`
	CreatedBy      string     `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	CreatedAt      *Timestamp `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt      *Timestamp `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Normalize fills the defaults the backend would apply and canonicalizes the method.
func (t *Template) Normalize() {
	t.Method = strings.ToUpper(strings.TrimSpace(t.Method))
	t.Code = strings.TrimSpace(t.Code)
	t.Name = strings.TrimSpace(t.Name)
	t.BaseURL = strings.TrimSpace(t.BaseURL)
	t.Endpoint = strings.TrimSpace(t.Endpoint)
	if t.BodyType == "" {
		t.BodyType = BodyJSON
	}
	if t.AuthType == "" {
		t.AuthType = AuthNone
	}
	if t.Timeout <= 0 {
		t.Timeout = defaultTemplateTimeout
	}
}

// Validate applies the rules of the template editor form.
func (t Template) Validate() error {
	var v ValidationError
	if strings.TrimSpace(t.Code) == "" {
		v.Add("code", "is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		v.Add("name", "is required")
	}
	method := strings.ToUpper(strings.TrimSpace(t.Method))
	switch {
	case method == "":
		v.Add("method", "is required")
	case !containsString(templateMethods, method):
		v.Add("method", fmt.Sprintf("must be one of %s", strings.Join(templateMethods, ", ")))
	}
	if strings.TrimSpace(t.BaseURL) == "" {
		v.Add("base_url", "is required")
	}
	if strings.TrimSpace(t.Endpoint) == "" {
		v.Add("endpoint", "is required")
	}
	if t.BodyType != "" && !containsString(bodyTypes, t.BodyType) {
		v.Add("body_type", fmt.Sprintf("must be one of %s", strings.Join(bodyTypes, ", ")))
	}
	if t.AuthType != "" && !containsString(authTypes, t.AuthType) {
		v.Add("auth_type", fmt.Sprintf("must be one of %s", strings.Join(authTypes, ", ")))
	}
	jsonFields := []struct{ name, raw string }{
		{"headers", t.Headers},
		{"query_params", t.QueryParams},
		{"auth_config", t.AuthConfig},
		{"response_parser", t.ResponseParser},
	}
	for _, f := range jsonFields {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(f.raw), &obj); err != nil {
			v.Add(f.name, "must be a JSON object")
		}
	}
	if t.Timeout < 0 {
		v.Add("timeout", "must not be negative")
	}
	if t.RetryCount < 0 {
		v.Add("retry_count", "must not be negative")
	}
	return v.OrNil()
}

// HeaderMap decodes the headers JSON string. Invalid JSON yields an empty map.
func (t Template) HeaderMap() map[string]string {
	out := map[string]string{}
	if strings.TrimSpace(t.Headers) == "" {
		return out
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(t.Headers), &raw); err != nil {
		return out
	}
	for k, v := range raw {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// URL joins base URL and endpoint the way the backend does before rendering.
func (t Template) URL() string {
	base := strings.TrimRight(t.BaseURL, "/")
	endpoint := strings.TrimLeft(t.Endpoint, "/")
	if base == "" {
		return endpoint
	}
	return base + "/" + endpoint
}

// RenderVariables substitutes {{ name }} placeholders. Unknown placeholders
// are left in place.
func RenderVariables(text string, vars map[string]any) string {
	if text == "" || len(vars) == 0 {
		return text
	}
	for k, v := range vars {
		pattern := regexp.MustCompile(`\{\{\s*` + regexp.QuoteMeta(k) + `\s*\}\}`)
		text = pattern.ReplaceAllLiteralString(text, fmt.Sprint(v))
	}
	return text
}

// TemplateDebugRequest asks the backend to render and execute a template.
type TemplateDebugRequest struct {
	Template  Template       `json:"template"`
	Variables map[string]any `json:"variables,omitempty"`
}

// DebugRenderedRequest is the request the backend built.
type DebugRenderedRequest struct {
	URL     string            `json:"url" yaml:"url"`
	Method  string            `json:"method" yaml:"method"`
	Headers map[string]string `json:"headers" yaml:"headers"`
	Body    any               `json:"body" yaml:"body"`
}

// DebugResponse is what the target answered.
type DebugResponse struct {
	StatusCode int               `json:"status_code" yaml:"status_code"`
	Headers    map[string]string `json:"headers" yaml:"headers"`
	Text       string            `json:"text" yaml:"text"`
	JSON       any               `json:"json,omitempty" yaml:"json,omitempty"`
	Duration   float64           `json:"duration" yaml:"duration"`
}

// TemplateDebugResponse is the result of a template preview.
type TemplateDebugResponse struct {
	Request  DebugRenderedRequest `json:"request" yaml:"request"`
	Response DebugResponse        `json:"response" yaml:"response"`
	Error    string               `json:"error,omitempty" yaml:"error,omitempty"`
	Step     string               `json:"step,omitempty" yaml:"step,omitempty"`
}

// CurlParseResult is a cURL command split into request parts.
type CurlParseResult struct {
	Method  string            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers" yaml:"headers"`
	Body    *string           `json:"body" yaml:"body"`
}

// ToTemplate seeds a template draft from a parsed cURL command.
func (c CurlParseResult) ToTemplate() Template {
	t := Template{
		Method:   c.Method,
		BodyType: BodyNone,
		AuthType: AuthNone,
		IsActive: true,
	}
	base, endpoint := splitURL(c.URL)
	t.BaseURL = base
	t.Endpoint = endpoint
	if len(c.Headers) > 0 {
		if b, err := json.Marshal(c.Headers); err == nil {
			t.Headers = string(b)
		}
	}
	if c.Body != nil && *c.Body != "" {
		t.BodyTemplate = *c.Body
		t.BodyType = BodyRaw
		if json.Valid([]byte(*c.Body)) {
			t.BodyType = BodyJSON
		}
	}
	t.Normalize()
	return t
}

// splitURL separates scheme://host from the path and query.
func splitURL(raw string) (string, string) {
	schemeEnd := strings.Index(raw, "://")
	if schemeEnd < 0 {
		return "", raw
	}
	rest := raw[schemeEnd+3:]
	slash := strings.IndexAny(rest, "/?")
	if slash < 0 {
		return raw, "/"
	}
	endpoint := rest[slash:]
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return raw[:schemeEnd+3+slash], endpoint
}

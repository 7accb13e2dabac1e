package domain

import (
	"errors"
	"testing"
)

func validTemplate() Template {
	return Template{
		Code:     "user.get",
		Name:     "Get user",
		Method:   "get",
		BaseURL:  "https://api.example.com/",
		Endpoint: "/v1/users/{{ id }}",
	}
}

func TestTemplateValidate_Valid(t *testing.T) {
	if err := validTemplate().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTemplateValidate_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Template)
		field  string
	}{
		{"missing code", func(t *Template) { t.Code = "" }, "code"},
		{"missing name", func(t *Template) { t.Name = " " }, "name"},
		{"missing method", func(t *Template) { t.Method = "" }, "method"},
		{"bad method", func(t *Template) { t.Method = "FETCH" }, "method"},
		{"missing base url", func(t *Template) { t.BaseURL = "" }, "base_url"},
		{"missing endpoint", func(t *Template) { t.Endpoint = "" }, "endpoint"},
		{"bad body type", func(t *Template) { t.BodyType = "xml" }, "body_type"},
		{"bad auth type", func(t *Template) { t.AuthType = "oauth" }, "auth_type"},
		{"headers not json", func(t *Template) { t.Headers = "X-Token: abc" }, "headers"},
		{"auth config array", func(t *Template) { t.AuthConfig = `["token"]` }, "auth_config"},
		{"negative retry", func(t *Template) { t.RetryCount = -1 }, "retry_count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := validTemplate()
			tt.mutate(&tmpl)

			err := tmpl.Validate()
			var v *ValidationError
			if !errors.As(err, &v) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if v.For(tt.field) == "" {
				t.Errorf("expected a message for %s, got %v", tt.field, v)
			}
		})
	}
}

func TestTemplateNormalize(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Normalize()

	assertEqual(t, "Method", "GET", tmpl.Method)
	assertEqual(t, "BodyType", BodyJSON, tmpl.BodyType)
	assertEqual(t, "AuthType", AuthNone, tmpl.AuthType)
	assertEqual(t, "Timeout", 10, tmpl.Timeout)
}

func TestTemplateURL(t *testing.T) {
	tests := []struct {
		base, endpoint, want string
	}{
		{"https://api.example.com/", "/v1/users", "https://api.example.com/v1/users"},
		{"https://api.example.com", "v1/users", "https://api.example.com/v1/users"},
		{"", "/v1/users", "v1/users"},
	}
	for _, tt := range tests {
		got := Template{BaseURL: tt.base, Endpoint: tt.endpoint}.URL()
		assertEqual(t, tt.base+"+"+tt.endpoint, tt.want, got)
	}
}

func TestRenderVariables(t *testing.T) {
	got := RenderVariables("/users/{{id}}/orders/{{ order }}?q={{missing}}", map[string]any{
		"id":    42,
		"order": "a.b",
	})
	assertEqual(t, "rendered", "/users/42/orders/a.b?q={{missing}}", got)

	assertEqual(t, "no vars", "{{ id }}", RenderVariables("{{ id }}", nil))
}

func TestTemplateHeaderMap(t *testing.T) {
	tmpl := Template{Headers: `{"X-Token":"abc","X-Retry":3}`}
	h := tmpl.HeaderMap()
	assertEqual(t, "X-Token", "abc", h["X-Token"])
	assertEqual(t, "X-Retry", "3", h["X-Retry"])

	assertEqual(t, "invalid json", 0, len(Template{Headers: "nope"}.HeaderMap()))
}

func TestCurlParseResultToTemplate(t *testing.T) {
	body := `{"name":"x"}`
	parsed := CurlParseResult{
		Method:  "POST",
		URL:     "https://api.example.com/v1/users?active=1",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    &body,
	}

	tmpl := parsed.ToTemplate()

	assertEqual(t, "BaseURL", "https://api.example.com", tmpl.BaseURL)
	assertEqual(t, "Endpoint", "/v1/users?active=1", tmpl.Endpoint)
	assertEqual(t, "Method", "POST", tmpl.Method)
	assertEqual(t, "BodyType", BodyJSON, tmpl.BodyType)
	assertEqual(t, "BodyTemplate", body, tmpl.BodyTemplate)
	assertEqual(t, "Headers", `{"Content-Type":"application/json"}`, tmpl.Headers)
}

func TestCurlParseResultToTemplate_NoPath(t *testing.T) {
	tmpl := CurlParseResult{Method: "GET", URL: "http://localhost:8001"}.ToTemplate()
	assertEqual(t, "BaseURL", "http://localhost:8001", tmpl.BaseURL)
	assertEqual(t, "Endpoint", "/", tmpl.Endpoint)
	assertEqual(t, "BodyType", BodyNone, tmpl.BodyType)
}

package helixapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

func (c *Client) ListTemplates(ctx context.Context, skip, limit int) ([]domain.Template, error) {
	var out []domain.Template
	err := c.do(ctx, request{
		op:     "list templates",
		method: http.MethodGet,
		path:   "/templates/",
		query:  pageQuery(skip, limit),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTemplate(ctx context.Context, id int) (*domain.Template, error) {
	var t domain.Template
	if err := c.do(ctx, request{op: "get template", method: http.MethodGet, path: "/templates/" + strconv.Itoa(id)}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreateTemplate(ctx context.Context, t domain.Template) (*domain.Template, error) {
	var out domain.Template
	if err := c.do(ctx, request{op: "create template", method: http.MethodPost, path: "/templates/", body: t}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTemplate(ctx context.Context, id int, t domain.Template) (*domain.Template, error) {
	var out domain.Template
	err := c.do(ctx, request{
		op:     "update template",
		method: http.MethodPut,
		path:   "/templates/" + strconv.Itoa(id),
		body:   t,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTemplate(ctx context.Context, id int) error {
	return c.do(ctx, request{op: "delete template", method: http.MethodDelete, path: "/templates/" + strconv.Itoa(id)}, nil)
}

// DebugTemplate renders and executes a template on the backend. A failing
// target still answers 200 with Error and Step set.
func (c *Client) DebugTemplate(ctx context.Context, req domain.TemplateDebugRequest) (*domain.TemplateDebugResponse, error) {
	var out domain.TemplateDebugResponse
	if err := c.do(ctx, request{op: "debug template", method: http.MethodPost, path: "/templates/debug", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

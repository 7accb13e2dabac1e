package helixapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

func (c *Client) ListCases(ctx context.Context, skip, limit int) ([]domain.TestCase, error) {
	var cases []domain.TestCase
	err := c.do(ctx, request{
		op:     "list cases",
		method: http.MethodGet,
		path:   "/cases/",
		query:  pageQuery(skip, limit),
	}, &cases)
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *Client) CreateCase(ctx context.Context, in domain.CaseInput) (*domain.TestCase, error) {
	var tc domain.TestCase
	if err := c.do(ctx, request{op: "create case", method: http.MethodPost, path: "/cases/", body: in}, &tc); err != nil {
		return nil, err
	}
	return &tc, nil
}

func (c *Client) UpdateCase(ctx context.Context, id int, in domain.CaseInput) (*domain.TestCase, error) {
	var tc domain.TestCase
	err := c.do(ctx, request{
		op:     "update case",
		method: http.MethodPut,
		path:   "/cases/" + strconv.Itoa(id),
		body:   in,
	}, &tc)
	if err != nil {
		return nil, err
	}
	return &tc, nil
}

// SetCaseActive flips the active flag of one case.
func (c *Client) SetCaseActive(ctx context.Context, id int, active bool) (*domain.TestCase, error) {
	var tc domain.TestCase
	err := c.do(ctx, request{
		op:     "toggle case",
		method: http.MethodPatch,
		path:   "/cases/" + strconv.Itoa(id),
		body:   map[string]bool{"is_active": active},
	}, &tc)
	if err != nil {
		return nil, err
	}
	return &tc, nil
}

// SetCasesActive sends the ids as body and the flag as query parameter.
func (c *Client) SetCasesActive(ctx context.Context, ids []int, active bool) (*domain.BulkResult, error) {
	var res domain.BulkResult
	err := c.do(ctx, request{
		op:     "batch status",
		method: http.MethodPost,
		path:   "/cases/batch-status",
		query:  url.Values{"is_active": {strconv.FormatBool(active)}},
		body:   nonNilIDs(ids),
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) DeleteCase(ctx context.Context, id int) error {
	return c.do(ctx, request{op: "delete case", method: http.MethodDelete, path: "/cases/" + strconv.Itoa(id)}, nil)
}

func (c *Client) DeleteCases(ctx context.Context, ids []int) (*domain.BulkResult, error) {
	var res domain.BulkResult
	err := c.do(ctx, request{
		op:     "batch delete",
		method: http.MethodDelete,
		path:   "/cases/batch",
		body:   nonNilIDs(ids),
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ClearCases(ctx context.Context) (*domain.BulkResult, error) {
	var res domain.BulkResult
	if err := c.do(ctx, request{op: "clear cases", method: http.MethodDelete, path: "/cases/clear-all"}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ImportCases uploads a spreadsheet as the multipart field "file".
func (c *Client) ImportCases(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	var res domain.ImportResult
	err = c.do(ctx, request{
		op:          "import cases",
		method:      http.MethodPost,
		path:        "/cases/import",
		rawBody:     &buf,
		contentType: mw.FormDataContentType(),
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func nonNilIDs(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

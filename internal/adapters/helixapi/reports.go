package helixapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

func (c *Client) ListReports(ctx context.Context, skip, limit int) ([]domain.Batch, error) {
	var out []domain.Batch
	err := c.do(ctx, request{
		op:     "list reports",
		method: http.MethodGet,
		path:   "/reports/",
		query:  pageQuery(skip, limit),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetReport(ctx context.Context, batchID string) (*domain.Batch, error) {
	var b domain.Batch
	if err := c.do(ctx, request{op: "get report", method: http.MethodGet, path: "/reports/" + url.PathEscape(batchID)}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) ReportDetails(ctx context.Context, batchID string) ([]domain.RunResult, error) {
	var out []domain.RunResult
	err := c.do(ctx, request{
		op:     "report details",
		method: http.MethodGet,
		path:   "/reports/" + url.PathEscape(batchID) + "/details",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ExportReport(ctx context.Context, batchID string) ([]byte, error) {
	return c.send(ctx, request{
		op:     "export report",
		method: http.MethodGet,
		path:   "/reports/" + url.PathEscape(batchID) + "/export",
	})
}

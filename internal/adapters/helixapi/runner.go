package helixapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

func (c *Client) StartRun(ctx context.Context, caseIDs []int) (*domain.RunTicket, error) {
	var ticket domain.RunTicket
	err := c.do(ctx, request{
		op:     "start run",
		method: http.MethodPost,
		path:   "/run/",
		body:   map[string][]int{"case_ids": nonNilIDs(caseIDs)},
	}, &ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// StopRun signals the batch to stop and returns the backend's message. An
// unknown or finished batch is not an error.
func (c *Client) StopRun(ctx context.Context, batchID string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, request{
		op:     "stop run",
		method: http.MethodPost,
		path:   "/run/stop",
		query:  url.Values{"batch_id": {batchID}},
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) ActiveBatches(ctx context.Context) ([]domain.ActiveBatch, error) {
	var out []domain.ActiveBatch
	if err := c.do(ctx, request{op: "active batches", method: http.MethodGet, path: "/run/active-batches"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RunHistory(ctx context.Context, batchID string) ([]domain.RunResult, error) {
	var out []domain.RunResult
	err := c.do(ctx, request{
		op:     "run history",
		method: http.MethodGet,
		path:   "/run/history/" + url.PathEscape(batchID),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

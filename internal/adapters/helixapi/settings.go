package helixapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

func (c *Client) GetConfig(ctx context.Context) (*domain.SystemConfig, error) {
	var cfg domain.SystemConfig
	if err := c.do(ctx, request{op: "get config", method: http.MethodGet, path: "/config/"}, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateConfig posts a partial update; omitted fields keep their value.
func (c *Client) UpdateConfig(ctx context.Context, u domain.ConfigUpdate) (*domain.SystemConfig, error) {
	var cfg domain.SystemConfig
	if err := c.do(ctx, request{op: "update config", method: http.MethodPost, path: "/config/", body: u}, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) PreviewMetadata(ctx context.Context) (*domain.GeneratorMetadata, error) {
	var md domain.GeneratorMetadata
	if err := c.do(ctx, request{op: "preview metadata", method: http.MethodGet, path: "/generate/preview"}, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

// GenerateCases clamps count to the range the backend accepts.
func (c *Client) GenerateCases(ctx context.Context, count int) (*domain.GenerateResult, error) {
	var res domain.GenerateResult
	err := c.do(ctx, request{
		op:     "generate cases",
		method: http.MethodPost,
		path:   "/generate/cases",
		query:  url.Values{"count": {strconv.Itoa(domain.ClampGenerateCount(count))}},
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ParseCurl(ctx context.Context, command string) (*domain.CurlParseResult, error) {
	var res domain.CurlParseResult
	err := c.do(ctx, request{
		op:     "parse curl",
		method: http.MethodPost,
		path:   "/tools/parse-curl",
		body:   map[string]string{"curl_command": command},
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Health returns nil when the backend answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{op: "health", method: http.MethodGet, path: "/health"}, nil)
}

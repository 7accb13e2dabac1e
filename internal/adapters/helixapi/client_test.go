package helixapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

// capturedRequest records what the fake backend received.
type capturedRequest struct {
	Method      string
	Path        string
	Query       string
	ContentType string
	Body        string
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	response string
}

func newFakeBackend(t *testing.T, status int, response string) (*fakeBackend, *Client) {
	t.Helper()
	fb := &fakeBackend{status: status, response: response}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.requests = append(fb.requests, capturedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		})
		fb.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fb.status)
		_, _ = io.WriteString(w, fb.response)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return fb, client
}

func (fb *fakeBackend) last(t *testing.T) capturedRequest {
	t.Helper()
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.requests) == 0 {
		t.Fatal("backend received no request")
	}
	return fb.requests[len(fb.requests)-1]
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "  "}); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://localhost:8000/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %s, got %s", DefaultTimeout, c.httpClient.Timeout)
	}
	if c.BaseURL() != "http://localhost:8000" {
		t.Errorf("expected trailing slash trimmed, got %s", c.BaseURL())
	}
}

func TestRequestShapes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		response string
		call     func(c *Client) error
		want     capturedRequest
	}{
		{
			name:     "list cases",
			response: `[]`,
			call: func(c *Client) error {
				_, err := c.ListCases(ctx, 0, 500)
				return err
			},
			want: capturedRequest{Method: "GET", Path: "/cases/", Query: "limit=500"},
		},
		{
			name:     "create case",
			response: `{"id":1,"question":"q","is_active":true}`,
			call: func(c *Client) error {
				_, err := c.CreateCase(ctx, domain.CaseInput{Question: "q", IsActive: true})
				return err
			},
			want: capturedRequest{Method: "POST", Path: "/cases/", ContentType: "application/json", Body: `{"question":"q","is_active":true}`},
		},
		{
			name:     "toggle case",
			response: `{"id":4,"is_active":false}`,
			call: func(c *Client) error {
				_, err := c.SetCaseActive(ctx, 4, false)
				return err
			},
			want: capturedRequest{Method: "PATCH", Path: "/cases/4", ContentType: "application/json", Body: `{"is_active":false}`},
		},
		{
			name:     "batch status",
			response: `{"updated":2,"is_active":true}`,
			call: func(c *Client) error {
				_, err := c.SetCasesActive(ctx, []int{1, 2}, true)
				return err
			},
			want: capturedRequest{Method: "POST", Path: "/cases/batch-status", Query: "is_active=true", ContentType: "application/json", Body: `[1,2]`},
		},
		{
			name:     "batch delete",
			response: `{"deleted":2}`,
			call: func(c *Client) error {
				_, err := c.DeleteCases(ctx, []int{5, 6})
				return err
			},
			want: capturedRequest{Method: "DELETE", Path: "/cases/batch", ContentType: "application/json", Body: `[5,6]`},
		},
		{
			name:     "clear all",
			response: `{"deleted":9}`,
			call: func(c *Client) error {
				_, err := c.ClearCases(ctx)
				return err
			},
			want: capturedRequest{Method: "DELETE", Path: "/cases/clear-all"},
		},
		{
			name:     "start run",
			response: `{"message":"Test run started","batch_id":"b-1","cases":[]}`,
			call: func(c *Client) error {
				_, err := c.StartRun(ctx, nil)
				return err
			},
			want: capturedRequest{Method: "POST", Path: "/run/", ContentType: "application/json", Body: `{"case_ids":[]}`},
		},
		{
			name:     "stop run",
			response: `{"message":"Stop signal sent"}`,
			call: func(c *Client) error {
				_, err := c.StopRun(ctx, "b-1")
				return err
			},
			want: capturedRequest{Method: "POST", Path: "/run/stop", Query: "batch_id=b-1"},
		},
		{
			name:     "generate clamps count",
			response: `{"generated":10,"message":"ok"}`,
			call: func(c *Client) error {
				_, err := c.GenerateCases(ctx, 50)
				return err
			},
			want: capturedRequest{Method: "POST", Path: "/generate/cases", Query: "count=10"},
		},
		{
			name:     "parse curl",
			response: `{"method":"GET","url":"http://x","headers":{},"body":null}`,
			call: func(c *Client) error {
				_, err := c.ParseCurl(ctx, "curl http://x")
				return err
			},
			want: capturedRequest{Method: "POST", Path: "/tools/parse-curl", ContentType: "application/json", Body: `{"curl_command":"curl http://x"}`},
		},
		{
			name:     "report details",
			response: `[]`,
			call: func(c *Client) error {
				_, err := c.ReportDetails(ctx, "b-9")
				return err
			},
			want: capturedRequest{Method: "GET", Path: "/reports/b-9/details"},
		},
		{
			name:     "health",
			response: `{"status":"ok"}`,
			call: func(c *Client) error {
				return c.Health(ctx)
			},
			want: capturedRequest{Method: "GET", Path: "/health"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, client := newFakeBackend(t, http.StatusOK, tt.response)
			if err := tt.call(client); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, fb.last(t)); diff != "" {
				t.Errorf("request mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListReports_Decodes(t *testing.T) {
	_, client := newFakeBackend(t, http.StatusOK,
		`[{"id":"b-1","status":"COMPLETED","total_count":4,"pass_count":3,"start_time":"2026-03-01T10:00:00.000000"}]`)

	got, err := client.ListReports(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := domain.NewTimestamp(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	want := []domain.Batch{{ID: "b-1", Status: domain.BatchCompleted, TotalCount: 4, PassCount: 3, StartTime: start}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListReports() mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIError_Detail(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"string detail", http.StatusNotFound, `{"detail":"Case not found"}`, "Case not found"},
		{"validation list", http.StatusUnprocessableEntity,
			`{"detail":[{"loc":["body","question"],"msg":"field required","type":"value_error.missing"}]}`,
			"question: field required"},
		{"plain body", http.StatusInternalServerError, `Internal Server Error`, "Internal Server Error"},
		{"empty body", http.StatusBadGateway, ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newFakeBackend(t, tt.status, tt.body)

			err := client.DeleteCase(context.Background(), 3)

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, apiErr.Message)
			}
			if apiErr.Operation != "delete case" {
				t.Errorf("expected operation 'delete case', got %q", apiErr.Operation)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	_, client := newFakeBackend(t, http.StatusNotFound, `{"detail":"Template not found"}`)

	_, err := client.GetTemplate(context.Background(), 77)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "Template not found") {
		t.Errorf("expected detail in error string, got %q", err.Error())
	}
}

func TestImportCases_Multipart(t *testing.T) {
	var gotName, gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotName, gotContent = hdr.Filename, string(b)
		_ = json.NewEncoder(w).Encode(domain.ImportResult{Imported: 12})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	res, err := client.ImportCases(context.Background(), "cases.xlsx", strings.NewReader("sheet-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Imported != 12 {
		t.Errorf("expected 12 imported, got %d", res.Imported)
	}
	if gotName != "cases.xlsx" || gotContent != "sheet-bytes" {
		t.Errorf("unexpected upload: name=%q content=%q", gotName, gotContent)
	}
}

func TestExportReport_ReturnsRawBytes(t *testing.T) {
	fb, client := newFakeBackend(t, http.StatusOK, "PK\x03\x04xlsx")

	data, err := client.ExportReport(context.Background(), "b-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "PK\x03\x04xlsx" {
		t.Errorf("unexpected export payload %q", data)
	}
	if got := fb.last(t).Path; got != "/reports/b-2/export" {
		t.Errorf("unexpected path %s", got)
	}
}

type recordingMetrics struct {
	mu    sync.Mutex
	calls []string
}

func (m *recordingMetrics) RecordAPICall(_ context.Context, op string, status int, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := "ok"
	if failed {
		state = "failed"
	}
	m.calls = append(m.calls, op+":"+state)
}
func (m *recordingMetrics) RecordRunMessage(context.Context, string) {}
func (m *recordingMetrics) RecordRunStarted(context.Context, int)    {}
func (m *recordingMetrics) Close(context.Context) error              { return nil }

func TestClient_RecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	m := &recordingMetrics{}
	client, err := NewClient(Config{BaseURL: srv.URL}, WithMetrics(m))
	if err != nil {
		t.Fatal(err)
	}

	_, _ = client.ActiveBatches(context.Background())
	_ = client.Health(context.Background())

	if diff := cmp.Diff([]string{"active batches:ok", "health:failed"}, m.calls); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
}

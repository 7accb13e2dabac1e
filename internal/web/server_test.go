package web

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/emiliopalmerini/helix-console/internal/adapters/helixapi"
	"github.com/emiliopalmerini/helix-console/internal/adapters/storage"
	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/ports"
	"github.com/emiliopalmerini/helix-console/internal/runner"
)

type fakeRuns struct {
	store *runner.Store

	mu       sync.Mutex
	started  []int
	followed []string
	startErr error
	stopErr  error
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{store: runner.NewStore()}
}

func (f *fakeRuns) Store() *runner.Store { return f.store }

func (f *fakeRuns) Start(_ context.Context, ids []int, cases []domain.TestCase) (*domain.RunTicket, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.mu.Lock()
	f.started = ids
	f.mu.Unlock()
	f.store.StartRun(cases, "B-1")
	return &domain.RunTicket{BatchID: "B-1"}, nil
}

func (f *fakeRuns) Attach(_ context.Context, b domain.ActiveBatch) error {
	f.store.StartRun(nil, b.BatchID)
	return nil
}

func (f *fakeRuns) Stop(context.Context) (string, error) {
	if f.stopErr != nil {
		return "", f.stopErr
	}
	f.store.StopRun()
	return "stopping", nil
}

func (f *fakeRuns) FollowInBackground(_ context.Context, batchID string) {
	f.mu.Lock()
	f.followed = append(f.followed, batchID)
	f.mu.Unlock()
}

var sampleCases = []domain.TestCase{
	{ID: 1, Question: "Revenue by month", Module: "sales", Priority: domain.PriorityP0, IsActive: true},
	{ID: 2, Question: "Headcount <script>", Module: "hr", Priority: domain.PriorityP1, IsActive: true},
	{ID: 3, Question: "Churn rate", Module: "sales", Priority: domain.PriorityP2, IsActive: false},
}

func newTestServer(t *testing.T, api *ports.MockHelixAPI, opts ...Option) (*Server, *fakeRuns) {
	t.Helper()
	if api.ListCasesFunc == nil {
		api.ListCasesFunc = func(context.Context, int, int) ([]domain.TestCase, error) {
			return sampleCases, nil
		}
	}
	runs := newFakeRuns()
	return NewServer(api, runs, ":0", opts...), runs
}

func do(s *Server, method, target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &ports.MockHelixAPI{})
	rec := do(s, http.MethodGet, "/health", nil, false)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestCasesPageFiltersAndEscapes(t *testing.T) {
	s, _ := newTestServer(t, &ports.MockHelixAPI{})

	rec := do(s, http.MethodGet, "/cases?module=sales", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Revenue by month") || !strings.Contains(body, "Churn rate") {
		t.Error("sales cases missing")
	}
	if strings.Contains(body, `id="case-2"`) {
		t.Error("hr case should be filtered out")
	}

	rec = do(s, http.MethodGet, "/cases", nil, false)
	body = rec.Body.String()
	if strings.Contains(body, "Headcount <script>") {
		t.Error("question was not escaped")
	}
	if !strings.Contains(body, "Headcount &lt;script&gt;") {
		t.Error("escaped question missing")
	}
}

func TestCreateCase(t *testing.T) {
	var got domain.CaseInput
	api := &ports.MockHelixAPI{
		CreateCaseFunc: func(_ context.Context, in domain.CaseInput) (*domain.TestCase, error) {
			got = in
			return &domain.TestCase{ID: 9, Question: in.Question}, nil
		},
	}
	s, _ := newTestServer(t, api)

	t.Run("missing question", func(t *testing.T) {
		rec := do(s, http.MethodPost, "/cases", url.Values{"question": {"  "}}, true)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "is required") {
			t.Error("field error not rendered")
		}
	})

	t.Run("created", func(t *testing.T) {
		form := url.Values{"question": {"Top customers"}, "expected_sql": {"SELECT 1"}, "is_active": {"true"}}
		rec := do(s, http.MethodPost, "/cases", form, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if loc := rec.Header().Get("HX-Redirect"); !strings.HasPrefix(loc, "/cases?notice=") {
			t.Errorf("HX-Redirect = %q", loc)
		}
		want := domain.CaseInput{Question: "Top customers", ExpectedSQL: "SELECT 1", IsActive: true}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("input mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("plain form redirects", func(t *testing.T) {
		rec := do(s, http.MethodPost, "/cases", url.Values{"question": {"Q"}}, false)
		if rec.Code != http.StatusSeeOther {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestBulkRun(t *testing.T) {
	t.Run("no selection runs the displayed cases", func(t *testing.T) {
		s, runs := newTestServer(t, &ports.MockHelixAPI{})
		form := url.Values{"action": {"run"}, "module": {"sales"}, "status": {"active"}}
		rec := do(s, http.MethodPost, "/cases/bulk", form, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if diff := cmp.Diff([]int{1}, runs.started); diff != "" {
			t.Errorf("started ids (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"B-1"}, runs.followed); diff != "" {
			t.Errorf("followed (-want +got):\n%s", diff)
		}
		if got := rec.Header().Get("HX-Redirect"); got != "/runner" {
			t.Errorf("HX-Redirect = %q", got)
		}
	})

	t.Run("explicit selection wins", func(t *testing.T) {
		s, runs := newTestServer(t, &ports.MockHelixAPI{})
		form := url.Values{"action": {"run"}, "id": {"3", "2"}, "module": {"sales"}}
		do(s, http.MethodPost, "/cases/bulk", form, true)
		if diff := cmp.Diff([]int{3, 2}, runs.started); diff != "" {
			t.Errorf("started ids (-want +got):\n%s", diff)
		}
	})

	t.Run("empty filter result", func(t *testing.T) {
		s, runs := newTestServer(t, &ports.MockHelixAPI{})
		form := url.Values{"action": {"run"}, "q": {"no such case"}}
		rec := do(s, http.MethodPost, "/cases/bulk", form, true)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
		if runs.started != nil {
			t.Error("run should not start")
		}
		if rec.Header().Get("HX-Retarget") != "#flash" {
			t.Error("error should target the flash banner")
		}
	})
}

func TestBulkEnableAndDelete(t *testing.T) {
	var gotIDs []int
	var gotActive bool
	api := &ports.MockHelixAPI{
		SetCasesActiveFunc: func(_ context.Context, ids []int, active bool) (*domain.BulkResult, error) {
			gotIDs, gotActive = ids, active
			return &domain.BulkResult{Updated: len(ids), IsActive: active}, nil
		},
	}
	s, _ := newTestServer(t, api)

	rec := do(s, http.MethodPost, "/cases/bulk", url.Values{"action": {"disable"}}, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty selection status = %d", rec.Code)
	}

	rec = do(s, http.MethodPost, "/cases/bulk", url.Values{"action": {"disable"}, "id": {"1", "2"}}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotActive || len(gotIDs) != 2 {
		t.Errorf("SetCasesActive(%v, %v)", gotIDs, gotActive)
	}
	if loc := rec.Header().Get("HX-Redirect"); !strings.Contains(loc, url.QueryEscape("2 cases disabled")) {
		t.Errorf("HX-Redirect = %q", loc)
	}
}

func TestToggleCaseRendersRow(t *testing.T) {
	s, _ := newTestServer(t, &ports.MockHelixAPI{})
	rec := do(s, http.MethodPatch, "/cases/4/active?active=false", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="case-4"`) || !strings.Contains(body, "Inactive") {
		t.Errorf("unexpected row: %s", body)
	}
}

func TestBackendErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &helixapi.APIError{Status: 404, Operation: "delete case"}, http.StatusNotFound},
		{"unprocessable", &helixapi.APIError{Status: 422}, http.StatusUnprocessableEntity},
		{"server error", &helixapi.APIError{Status: 500}, http.StatusBadGateway},
		{"transport", errors.New("dial tcp: connection refused"), http.StatusBadGateway},
		{"no run", runner.ErrNoActiveRun, http.StatusConflict},
		{"empty selection", domain.ErrEmptySelection, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor = %d, want %d", got, tt.want)
			}
		})
	}

	api := &ports.MockHelixAPI{
		DeleteCaseFunc: func(context.Context, int) error {
			return &helixapi.APIError{Status: 404, Message: "Test case not found", Operation: "delete case"}
		},
	}
	s, _ := newTestServer(t, api)
	rec := do(s, http.MethodDelete, "/cases/7", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Test case not found") {
		t.Errorf("flash missing backend detail: %s", rec.Body.String())
	}
}

func TestStopRun(t *testing.T) {
	s, runs := newTestServer(t, &ports.MockHelixAPI{})

	runs.stopErr = runner.ErrNoActiveRun
	if rec := do(s, http.MethodPost, "/runner/stop", nil, true); rec.Code != http.StatusConflict {
		t.Errorf("status = %d", rec.Code)
	}

	runs.stopErr = nil
	rec := do(s, http.MethodPost, "/runner/stop", nil, true)
	if got := rec.Header().Get("HX-Redirect"); got != "/runner?notice=stopping" {
		t.Errorf("HX-Redirect = %q", got)
	}
}

func TestAttachFollowsBatch(t *testing.T) {
	api := &ports.MockHelixAPI{
		ActiveBatchesFunc: func(context.Context) ([]domain.ActiveBatch, error) {
			return []domain.ActiveBatch{{BatchID: "B-7", TotalCount: 4, CompletedCount: 1}}, nil
		},
	}
	s, runs := newTestServer(t, api)
	rec := do(s, http.MethodPost, "/runner/attach/B-7", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := runs.store.ActiveBatchID(); got != "B-7" {
		t.Errorf("active batch = %q", got)
	}
	if diff := cmp.Diff([]string{"B-7"}, runs.followed); diff != "" {
		t.Errorf("followed (-want +got):\n%s", diff)
	}
}

func TestExportArchivesAndFallsBack(t *testing.T) {
	archive, err := storage.NewReportArchive(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	workbook := []byte("PK\x03\x04 xlsx")
	exportErr := error(nil)
	api := &ports.MockHelixAPI{
		ExportReportFunc: func(context.Context, string) ([]byte, error) {
			if exportErr != nil {
				return nil, exportErr
			}
			return workbook, nil
		},
	}
	s, _ := newTestServer(t, api, WithArchive(archive))

	rec := do(s, http.MethodGet, "/reports/B-1/export", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "report_B-1.xlsx") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if ok, _ := archive.Exists(context.Background(), "B-1"); !ok {
		t.Fatal("workbook not archived")
	}

	exportErr = &helixapi.APIError{Status: 500}
	rec = do(s, http.MethodGet, "/reports/B-1/export", nil, false)
	if rec.Code != http.StatusOK || rec.Body.String() != string(workbook) {
		t.Errorf("fallback: status %d body %q", rec.Code, rec.Body.String())
	}

	rec = do(s, http.MethodGet, "/reports/B-2/export", nil, false)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("unarchived failure status = %d", rec.Code)
	}
}

func TestReportDetailFiltersAndHighlights(t *testing.T) {
	api := &ports.MockHelixAPI{
		ReportDetailsFunc: func(context.Context, string) ([]domain.RunResult, error) {
			return []domain.RunResult{
				{CaseID: 1, Question: "ok one", Result: domain.CaseStatusPass, ActualSQL: "SELECT a FROM t", ExpectedSQL: "SELECT a FROM t"},
				{CaseID: 2, Question: "bad one", Result: domain.CaseStatusFail, ActualSQL: "SELECT b FROM t", ExpectedSQL: "SELECT a FROM t"},
			}, nil
		},
	}
	s, _ := newTestServer(t, api)

	rec := do(s, http.MethodGet, "/reports/B-1?result=fail", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "ok one") {
		t.Error("passing row should be filtered out")
	}
	if !strings.Contains(body, "<mark>b</mark>") {
		t.Errorf("changed word not highlighted: %s", body)
	}
}

func TestSaveSettings(t *testing.T) {
	var got domain.ConfigUpdate
	calls := 0
	api := &ports.MockHelixAPI{
		UpdateConfigFunc: func(_ context.Context, u domain.ConfigUpdate) (*domain.SystemConfig, error) {
			calls++
			got = u
			return &domain.SystemConfig{MaxWorkers: *u.MaxWorkers}, nil
		},
	}
	s, _ := newTestServer(t, api)

	rec := do(s, http.MethodPost, "/settings", url.Values{"headers": {"[1,2]"}}, true)
	if rec.Code != http.StatusUnprocessableEntity || calls != 0 {
		t.Fatalf("invalid headers: status %d, calls %d", rec.Code, calls)
	}

	rec = do(s, http.MethodPost, "/settings", url.Values{"max_workers": {"0"}}, true)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "must be at least 1") {
		t.Fatalf("zero workers: status %d", rec.Code)
	}

	rec = do(s, http.MethodPost, "/settings", url.Values{"max_workers": {"4"}, "user_token": {""}}, true)
	if rec.Code != http.StatusOK || calls != 1 {
		t.Fatalf("status %d, calls %d", rec.Code, calls)
	}
	if got.UserToken != nil {
		t.Error("blank token should be left out of the update")
	}
	if got.MaxWorkers == nil || *got.MaxWorkers != 4 {
		t.Errorf("MaxWorkers = %v", got.MaxWorkers)
	}
}

func TestCreateTemplateValidation(t *testing.T) {
	called := false
	api := &ports.MockHelixAPI{
		CreateTemplateFunc: func(_ context.Context, tpl domain.Template) (*domain.Template, error) {
			called = true
			return &tpl, nil
		},
	}
	s, _ := newTestServer(t, api)

	form := url.Values{"name": {"Chat"}, "method": {"post"}, "base_url": {"https://api.example.com"}, "endpoint": {"/chat"}, "headers": {"not json"}}
	rec := do(s, http.MethodPost, "/templates", form, true)
	if rec.Code != http.StatusUnprocessableEntity || called {
		t.Fatalf("status %d, called %v", rec.Code, called)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "is required") || !strings.Contains(body, "must be a JSON object") {
		t.Errorf("field errors missing: %s", body)
	}

	form.Set("code", "CHAT")
	form.Set("headers", `{"X-Team":"qa"}`)
	rec = do(s, http.MethodPost, "/templates", form, true)
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("status %d, called %v", rec.Code, called)
	}
}

func TestGenerateClampsCount(t *testing.T) {
	var got int
	api := &ports.MockHelixAPI{
		GenerateCasesFunc: func(_ context.Context, count int) (*domain.GenerateResult, error) {
			got = count
			return &domain.GenerateResult{Generated: count, Message: "done"}, nil
		},
	}
	s, _ := newTestServer(t, api)
	rec := do(s, http.MethodPost, "/generator", url.Values{"count": {"50"}}, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got != domain.MaxGenerateCount {
		t.Errorf("count = %d, want %d", got, domain.MaxGenerateCount)
	}
}

func TestGenerateReportsMetadataFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	api := &ports.MockHelixAPI{
		PreviewMetadataFunc: func(context.Context) (*domain.GeneratorMetadata, error) {
			return nil, errors.New("metadata unavailable")
		},
		GenerateCasesFunc: func(_ context.Context, count int) (*domain.GenerateResult, error) {
			return &domain.GenerateResult{Generated: count}, nil
		},
	}
	s, _ := newTestServer(t, api, WithLogger(zap.New(core)))
	rec := do(s, http.MethodPost, "/generator", url.Values{"count": {"5"}}, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"metadata unavailable", "Generated 5 cases"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if logs.FilterMessage("failed to load generator metadata").Len() != 1 {
		t.Errorf("expected one metadata warning, got %v", logs.All())
	}
}

func TestRunnerEventsStreamState(t *testing.T) {
	s, runs := newTestServer(t, &ports.MockHelixAPI{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/runner/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(substr string) {
		t.Helper()
		for lines.Scan() {
			if strings.Contains(lines.Text(), substr) {
				return
			}
		}
		t.Fatalf("stream ended before %q: %v", substr, lines.Err())
	}

	waitFor("event: state")
	waitFor("No batch loaded")

	runs.store.StartRun([]domain.TestCase{{ID: 5, Question: "Q5"}}, "B-9")
	waitFor("B-9")
}

package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/runner"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestReportTable_EscapesBatchIDsInPaths(t *testing.T) {
	batches := []domain.Batch{{ID: `a/b c"><x`, Status: domain.BatchCompleted, TotalCount: 2, PassCount: 1}}
	out := render(t, reportTable(batches, map[string]bool{batches[0].ID: true}))

	for _, want := range []string{
		`href="/reports/a%2Fb%20c%22%3E%3Cx"`,
		`href="/reports/a%2Fb%20c%22%3E%3Cx/export"`,
		`hx-delete="/reports/a%2Fb%20c%22%3E%3Cx/archive"`,
		`a/b c&#34;&gt;&lt;x`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, `"><x`) {
		t.Errorf("raw id leaked into markup:\n%s", out)
	}
}

func TestReport_TabsKeepBatchPath(t *testing.T) {
	d := ReportDetail{Batch: domain.Batch{ID: "B 1"}, Filter: "fail"}
	out := render(t, Report(d, nil))
	if !strings.Contains(out, `href="/reports/B%201?result=fail" class="active"`) {
		t.Errorf("fail tab not active or not escaped:\n%s", out)
	}
	if !strings.Contains(out, `href="/reports/B%201?result=all" class=""`) {
		t.Errorf("all tab missing:\n%s", out)
	}
}

func TestDashboard_FollowButtonEscapesBatch(t *testing.T) {
	d := DashboardData{ActiveBatches: []domain.ActiveBatch{{BatchID: "x/y", TotalCount: 4, CompletedCount: 1}}}
	out := render(t, Dashboard(d, nil))
	if !strings.Contains(out, `hx-post="/runner/attach/x%2Fy"`) {
		t.Errorf("attach path not escaped:\n%s", out)
	}
	if !strings.Contains(out, "1/4 (25%)") {
		t.Errorf("progress missing:\n%s", out)
	}
}

func TestLayout_MarksActiveNav(t *testing.T) {
	out := render(t, Settings(SettingsForm{}, &Flash{Message: "Saved"}))
	if !strings.Contains(out, `<a href="/settings" class="active">Settings</a>`) {
		t.Errorf("settings link not active:\n%s", out)
	}
	if !strings.Contains(out, `<div class="flash flash-info" role="alert">Saved</div>`) {
		t.Errorf("flash missing:\n%s", out)
	}
}

func TestCaseRow_ToggleTargetsRow(t *testing.T) {
	out := render(t, CaseRow(domain.TestCase{ID: 7, Question: "Q", IsActive: true}))
	for _, want := range []string{`id="case-7"`, `hx-patch="/cases/7/active?active=false"`, `hx-target="#case-7"`, `href="/cases/7/edit"`, ">Active<"} {
		if !strings.Contains(out, want) {
			t.Errorf("row missing %s:\n%s", want, out)
		}
	}
}

func TestRunnerState_TrimsFeed(t *testing.T) {
	s := runner.State{ActiveBatchID: "B-1", Progress: 40}
	for i := 0; i < maxFeedLines+5; i++ {
		s.Logs = append(s.Logs, domain.LogEntry{Message: "line", Level: domain.LevelInfo})
	}
	out := render(t, RunnerState(s))
	if got := strings.Count(out, `<span class="clock">`); got != maxFeedLines {
		t.Errorf("rendered %d feed lines, want %d", got, maxFeedLines)
	}
	if !strings.Contains(out, `value="40"`) {
		t.Errorf("progress value missing:\n%s", out[:200])
	}
}

func TestDebugResult_SortsHeaders(t *testing.T) {
	res := &domain.TemplateDebugResponse{
		Request:  domain.DebugRenderedRequest{Method: "POST", URL: "https://api.example.com/q", Headers: map[string]string{"X-B": "2", "X-A": "1"}},
		Response: domain.DebugResponse{StatusCode: 200, Duration: 0.25, Text: "ok"},
	}
	out := render(t, DebugResult(res))
	if !strings.Contains(out, "POST https://api.example.com/q\nX-A: 1\nX-B: 2") {
		t.Errorf("request block unexpected:\n%s", out)
	}
	if !strings.Contains(out, "200 · 250ms") {
		t.Errorf("response meta missing:\n%s", out)
	}
}

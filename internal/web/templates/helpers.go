package templates

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/runner"
	"github.com/emiliopalmerini/helix-console/internal/util"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

func formatTimestamp(ts *domain.Timestamp) string {
	if ts == nil {
		return "-"
	}
	return util.FormatDateTime(ts.Time)
}

func formatPassRate(b domain.Batch) string {
	return util.FormatPercent(b.PassRate() * 100)
}

func formatDuration(b domain.Batch) string {
	if d := b.Duration(); d > 0 {
		return d.String()
	}
	return "-"
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.2fs", s)
}

func statusClass(s domain.CaseStatus) string {
	return "status status-" + strings.ToLower(string(s))
}

func batchClass(s domain.BatchStatus) string {
	return "badge badge-" + strings.ToLower(string(s))
}

func levelClass(l domain.LogLevel) string {
	return "log log-" + strings.ToLower(string(l))
}

func flashClass(kind string) string {
	if kind == "" {
		kind = "info"
	}
	return "flash flash-" + kind
}

func navClass(href templ.SafeURL, active string) string {
	if string(href) == active {
		return "active"
	}
	return ""
}

func priorityLabel(p domain.Priority) string {
	if p == "" {
		return "-"
	}
	return string(p)
}

func activeLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func fieldError(v *domain.ValidationError, field string) string {
	if v == nil {
		return ""
	}
	return v.For(field)
}

func containsModule(list []string, m string) bool {
	for _, s := range list {
		if s == m {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.Priority, p domain.Priority) bool {
	for _, s := range list {
		if s == p {
			return true
		}
	}
	return false
}

func statusSelected(f domain.StatusFilter, st domain.StatusFilter) bool {
	return f == st || (f == "" && st == domain.StatusAll)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func runSummary(s runner.State) string {
	pass, fail, pending := s.Counts()
	return fmt.Sprintf("%d%% · %d pass · %d fail · %d pending", s.Progress, pass, fail, pending)
}

func activeProgress(b domain.ActiveBatch) string {
	return fmt.Sprintf("%d/%d (%d%%)", b.CompletedCount, b.TotalCount, b.Progress())
}

func batchSummary(b domain.Batch) string {
	return fmt.Sprintf("%d cases · %d pass · %d fail · %s · %s",
		b.TotalCount, b.PassCount, b.FailCount(), formatPassRate(b), formatDuration(b))
}

func journalSummary(r *domain.JournalRun) string {
	return fmt.Sprintf("%s · %d cases · %d pass · %d fail", r.Source, r.CaseCount, r.PassCount, r.FailCount)
}

func journalTimes(r *domain.JournalRun) string {
	s := "started " + util.FormatDateTime(r.StartedAt)
	if r.FinishedAt != nil {
		s += " · finished " + util.FormatDateTime(*r.FinishedAt)
	}
	return s
}

// Backend ids are opaque; every path built from one is escaped.

func reportURL(batchID string) templ.SafeURL {
	return templ.SafeURL("/reports/" + url.PathEscape(batchID))
}

func reportExportURL(batchID string) templ.SafeURL {
	return templ.SafeURL("/reports/" + url.PathEscape(batchID) + "/export")
}

func reportTabURL(batchID, tab string) templ.SafeURL {
	return templ.SafeURL("/reports/" + url.PathEscape(batchID) + "?result=" + url.QueryEscape(tab))
}

func reportArchivePath(batchID string) string {
	return "/reports/" + url.PathEscape(batchID) + "/archive"
}

func journalURL(batchID string) templ.SafeURL {
	return templ.SafeURL("/journal/" + url.PathEscape(batchID))
}

func attachPath(batchID string) string {
	return "/runner/attach/" + url.PathEscape(batchID)
}

func casePath(id int) string {
	return "/cases/" + itoa(id)
}

func caseToggle(c domain.TestCase) string {
	return casePath(c.ID) + "/active?active=" + strconv.FormatBool(!c.IsActive)
}

func caseEditURL(id int) templ.SafeURL {
	return templ.SafeURL(casePath(id) + "/edit")
}

func caseFormAction(id int) templ.SafeURL {
	if id == 0 {
		return "/cases"
	}
	return templ.SafeURL(casePath(id))
}

func caseEditorTitle(id int) string {
	if id == 0 {
		return "New case"
	}
	return "Edit case #" + itoa(id)
}

func templatePath(id int) string {
	return "/templates/" + itoa(id)
}

func templateEditURL(id int) templ.SafeURL {
	return templ.SafeURL(templatePath(id) + "/edit")
}

func templateFormAction(id int) templ.SafeURL {
	if id == 0 {
		return "/templates"
	}
	return templ.SafeURL(templatePath(id))
}

func templateEditorTitle(t domain.Template) string {
	if t.ID == 0 {
		return "New template"
	}
	return "Edit " + t.Code
}

func rowTarget(prefix string, id int) string {
	return "#" + prefix + "-" + itoa(id)
}

func rowID(prefix string, id int) string {
	return prefix + "-" + itoa(id)
}

func generateCount(n int) string {
	if n == 0 {
		n = domain.DefaultGenerateCount
	}
	return itoa(n)
}

func debugStep(res *domain.TemplateDebugResponse) string {
	if res.Step == "" {
		return "request"
	}
	return res.Step
}

// debugRequest renders the sent request the way a terminal would print it.
func debugRequest(res *domain.TemplateDebugResponse) string {
	var b strings.Builder
	b.WriteString(res.Request.Method + " " + res.Request.URL)
	keys := make([]string, 0, len(res.Request.Headers))
	for k := range res.Request.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n" + k + ": " + res.Request.Headers[k])
	}
	if res.Request.Body != nil {
		b.WriteString("\n\n" + prettyJSON(res.Request.Body))
	}
	return b.String()
}

func debugResponseMeta(res *domain.TemplateDebugResponse) string {
	return fmt.Sprintf("%d · %.0fms", res.Response.StatusCode, res.Response.Duration*1000)
}

func debugResponseBody(res *domain.TemplateDebugResponse) string {
	if res.Response.JSON != nil {
		return prettyJSON(res.Response.JSON)
	}
	return res.Response.Text
}

func prettyJSON(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

func tabClass(tab, filter string) string {
	if tab == filter || (filter == "" && tab == "all") {
		return "active"
	}
	return ""
}

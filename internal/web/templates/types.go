package templates

import (
	"time"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/runner"
)

// Flash is a transient notification shown above the page content.
type Flash struct {
	Kind    string // info, success, error
	Message string
}

type HealthStatus struct {
	Connected   bool
	LastChecked time.Time
	LastError   string
	APIURL      string
}

type DashboardData struct {
	Health        HealthStatus
	ActiveBatches []domain.ActiveBatch
	RecentReports []domain.Batch
	RecentRuns    []*domain.JournalRun
	Runner        runner.State
	ReportsError  string
}

type CasesPage struct {
	Cases      []domain.TestCase
	Total      int
	Modules    []string
	Filter     domain.CaseFilter
	Running    bool
	LoadError  string
	Priorities []domain.Priority
}

type CaseForm struct {
	ID     int
	Input  domain.CaseInput
	Module string
	Errors *domain.ValidationError
}

type TemplatesPage struct {
	Templates []domain.Template
	LoadError string
}

type TemplateForm struct {
	Template  domain.Template
	Errors    *domain.ValidationError
	CurlInput string
	Variables string
}

type ReportsPage struct {
	Reports   []domain.Batch
	Archived  map[string]bool
	LoadError string
}

// ResultRow is one report detail line with its SQL diff.
type ResultRow struct {
	Result  domain.RunResult
	Diff    []domain.DiffToken
	Changed int
}

type ReportDetail struct {
	Batch    domain.Batch
	Rows     []ResultRow
	Archived bool
	Filter   string // all, pass, fail
}

type SettingsForm struct {
	Config  domain.SystemConfig
	Headers string
	Errors  *domain.ValidationError
}

type GeneratorPage struct {
	Metadata  *domain.GeneratorMetadata
	Result    *domain.GenerateResult
	Count     int
	LoadError string
}

type JournalPage struct {
	Run  *domain.JournalRun
	Logs []domain.LogEntry
}

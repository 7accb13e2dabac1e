package ports

import (
	"context"
	"io"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

type CaseService interface {
	ListCases(ctx context.Context, skip, limit int) ([]domain.TestCase, error)
	CreateCase(ctx context.Context, in domain.CaseInput) (*domain.TestCase, error)
	UpdateCase(ctx context.Context, id int, in domain.CaseInput) (*domain.TestCase, error)
	SetCaseActive(ctx context.Context, id int, active bool) (*domain.TestCase, error)
	SetCasesActive(ctx context.Context, ids []int, active bool) (*domain.BulkResult, error)
	DeleteCase(ctx context.Context, id int) error
	DeleteCases(ctx context.Context, ids []int) (*domain.BulkResult, error)
	ClearCases(ctx context.Context) (*domain.BulkResult, error)
	ImportCases(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error)
}

type TemplateService interface {
	ListTemplates(ctx context.Context, skip, limit int) ([]domain.Template, error)
	GetTemplate(ctx context.Context, id int) (*domain.Template, error)
	CreateTemplate(ctx context.Context, t domain.Template) (*domain.Template, error)
	UpdateTemplate(ctx context.Context, id int, t domain.Template) (*domain.Template, error)
	DeleteTemplate(ctx context.Context, id int) error
	DebugTemplate(ctx context.Context, req domain.TemplateDebugRequest) (*domain.TemplateDebugResponse, error)
}

type ReportService interface {
	ListReports(ctx context.Context, skip, limit int) ([]domain.Batch, error)
	GetReport(ctx context.Context, batchID string) (*domain.Batch, error)
	ReportDetails(ctx context.Context, batchID string) ([]domain.RunResult, error)
	// ExportReport returns the xlsx workbook for a batch.
	ExportReport(ctx context.Context, batchID string) ([]byte, error)
}

type RunService interface {
	// StartRun asks the backend to execute caseIDs. An empty list runs every
	// active case.
	StartRun(ctx context.Context, caseIDs []int) (*domain.RunTicket, error)
	StopRun(ctx context.Context, batchID string) (string, error)
	ActiveBatches(ctx context.Context) ([]domain.ActiveBatch, error)
	RunHistory(ctx context.Context, batchID string) ([]domain.RunResult, error)
}

type ConfigService interface {
	GetConfig(ctx context.Context) (*domain.SystemConfig, error)
	UpdateConfig(ctx context.Context, u domain.ConfigUpdate) (*domain.SystemConfig, error)
}

type GeneratorService interface {
	PreviewMetadata(ctx context.Context) (*domain.GeneratorMetadata, error)
	GenerateCases(ctx context.Context, count int) (*domain.GenerateResult, error)
}

type ToolService interface {
	ParseCurl(ctx context.Context, command string) (*domain.CurlParseResult, error)
}

type HealthChecker interface {
	Health(ctx context.Context) error
}

// HelixAPI is the whole backend surface the console talks to.
type HelixAPI interface {
	CaseService
	TemplateService
	ReportService
	RunService
	ConfigService
	GeneratorService
	ToolService
	HealthChecker
}

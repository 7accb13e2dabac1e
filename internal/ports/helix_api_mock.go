package ports

import (
	"context"
	"io"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

// MockHelixAPI is a mock implementation of HelixAPI for testing. Unset
// funcs return zero values.
type MockHelixAPI struct {
	ListCasesFunc      func(ctx context.Context, skip, limit int) ([]domain.TestCase, error)
	CreateCaseFunc     func(ctx context.Context, in domain.CaseInput) (*domain.TestCase, error)
	UpdateCaseFunc     func(ctx context.Context, id int, in domain.CaseInput) (*domain.TestCase, error)
	SetCaseActiveFunc  func(ctx context.Context, id int, active bool) (*domain.TestCase, error)
	SetCasesActiveFunc func(ctx context.Context, ids []int, active bool) (*domain.BulkResult, error)
	DeleteCaseFunc     func(ctx context.Context, id int) error
	DeleteCasesFunc    func(ctx context.Context, ids []int) (*domain.BulkResult, error)
	ClearCasesFunc     func(ctx context.Context) (*domain.BulkResult, error)
	ImportCasesFunc    func(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error)

	ListTemplatesFunc  func(ctx context.Context, skip, limit int) ([]domain.Template, error)
	GetTemplateFunc    func(ctx context.Context, id int) (*domain.Template, error)
	CreateTemplateFunc func(ctx context.Context, t domain.Template) (*domain.Template, error)
	UpdateTemplateFunc func(ctx context.Context, id int, t domain.Template) (*domain.Template, error)
	DeleteTemplateFunc func(ctx context.Context, id int) error
	DebugTemplateFunc  func(ctx context.Context, req domain.TemplateDebugRequest) (*domain.TemplateDebugResponse, error)

	ListReportsFunc   func(ctx context.Context, skip, limit int) ([]domain.Batch, error)
	GetReportFunc     func(ctx context.Context, batchID string) (*domain.Batch, error)
	ReportDetailsFunc func(ctx context.Context, batchID string) ([]domain.RunResult, error)
	ExportReportFunc  func(ctx context.Context, batchID string) ([]byte, error)

	StartRunFunc      func(ctx context.Context, caseIDs []int) (*domain.RunTicket, error)
	StopRunFunc       func(ctx context.Context, batchID string) (string, error)
	ActiveBatchesFunc func(ctx context.Context) ([]domain.ActiveBatch, error)
	RunHistoryFunc    func(ctx context.Context, batchID string) ([]domain.RunResult, error)

	GetConfigFunc    func(ctx context.Context) (*domain.SystemConfig, error)
	UpdateConfigFunc func(ctx context.Context, u domain.ConfigUpdate) (*domain.SystemConfig, error)

	PreviewMetadataFunc func(ctx context.Context) (*domain.GeneratorMetadata, error)
	GenerateCasesFunc   func(ctx context.Context, count int) (*domain.GenerateResult, error)

	ParseCurlFunc func(ctx context.Context, command string) (*domain.CurlParseResult, error)
	HealthFunc    func(ctx context.Context) error
}

var _ HelixAPI = (*MockHelixAPI)(nil)

func (m *MockHelixAPI) ListCases(ctx context.Context, skip, limit int) ([]domain.TestCase, error) {
	if m.ListCasesFunc != nil {
		return m.ListCasesFunc(ctx, skip, limit)
	}
	return []domain.TestCase{}, nil
}

func (m *MockHelixAPI) CreateCase(ctx context.Context, in domain.CaseInput) (*domain.TestCase, error) {
	if m.CreateCaseFunc != nil {
		return m.CreateCaseFunc(ctx, in)
	}
	return &domain.TestCase{Question: in.Question, IsActive: in.IsActive}, nil
}

func (m *MockHelixAPI) UpdateCase(ctx context.Context, id int, in domain.CaseInput) (*domain.TestCase, error) {
	if m.UpdateCaseFunc != nil {
		return m.UpdateCaseFunc(ctx, id, in)
	}
	return &domain.TestCase{ID: id, Question: in.Question, IsActive: in.IsActive}, nil
}

func (m *MockHelixAPI) SetCaseActive(ctx context.Context, id int, active bool) (*domain.TestCase, error) {
	if m.SetCaseActiveFunc != nil {
		return m.SetCaseActiveFunc(ctx, id, active)
	}
	return &domain.TestCase{ID: id, IsActive: active}, nil
}

func (m *MockHelixAPI) SetCasesActive(ctx context.Context, ids []int, active bool) (*domain.BulkResult, error) {
	if m.SetCasesActiveFunc != nil {
		return m.SetCasesActiveFunc(ctx, ids, active)
	}
	return &domain.BulkResult{Updated: len(ids), IsActive: active}, nil
}

func (m *MockHelixAPI) DeleteCase(ctx context.Context, id int) error {
	if m.DeleteCaseFunc != nil {
		return m.DeleteCaseFunc(ctx, id)
	}
	return nil
}

func (m *MockHelixAPI) DeleteCases(ctx context.Context, ids []int) (*domain.BulkResult, error) {
	if m.DeleteCasesFunc != nil {
		return m.DeleteCasesFunc(ctx, ids)
	}
	return &domain.BulkResult{Deleted: len(ids)}, nil
}

func (m *MockHelixAPI) ClearCases(ctx context.Context) (*domain.BulkResult, error) {
	if m.ClearCasesFunc != nil {
		return m.ClearCasesFunc(ctx)
	}
	return &domain.BulkResult{}, nil
}

func (m *MockHelixAPI) ImportCases(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	if m.ImportCasesFunc != nil {
		return m.ImportCasesFunc(ctx, filename, r)
	}
	return &domain.ImportResult{}, nil
}

func (m *MockHelixAPI) ListTemplates(ctx context.Context, skip, limit int) ([]domain.Template, error) {
	if m.ListTemplatesFunc != nil {
		return m.ListTemplatesFunc(ctx, skip, limit)
	}
	return []domain.Template{}, nil
}

func (m *MockHelixAPI) GetTemplate(ctx context.Context, id int) (*domain.Template, error) {
	if m.GetTemplateFunc != nil {
		return m.GetTemplateFunc(ctx, id)
	}
	return &domain.Template{ID: id}, nil
}

func (m *MockHelixAPI) CreateTemplate(ctx context.Context, t domain.Template) (*domain.Template, error) {
	if m.CreateTemplateFunc != nil {
		return m.CreateTemplateFunc(ctx, t)
	}
	return &t, nil
}

func (m *MockHelixAPI) UpdateTemplate(ctx context.Context, id int, t domain.Template) (*domain.Template, error) {
	if m.UpdateTemplateFunc != nil {
		return m.UpdateTemplateFunc(ctx, id, t)
	}
	t.ID = id
	return &t, nil
}

func (m *MockHelixAPI) DeleteTemplate(ctx context.Context, id int) error {
	if m.DeleteTemplateFunc != nil {
		return m.DeleteTemplateFunc(ctx, id)
	}
	return nil
}

func (m *MockHelixAPI) DebugTemplate(ctx context.Context, req domain.TemplateDebugRequest) (*domain.TemplateDebugResponse, error) {
	if m.DebugTemplateFunc != nil {
		return m.DebugTemplateFunc(ctx, req)
	}
	return &domain.TemplateDebugResponse{}, nil
}

func (m *MockHelixAPI) ListReports(ctx context.Context, skip, limit int) ([]domain.Batch, error) {
	if m.ListReportsFunc != nil {
		return m.ListReportsFunc(ctx, skip, limit)
	}
	return []domain.Batch{}, nil
}

func (m *MockHelixAPI) GetReport(ctx context.Context, batchID string) (*domain.Batch, error) {
	if m.GetReportFunc != nil {
		return m.GetReportFunc(ctx, batchID)
	}
	return &domain.Batch{ID: batchID}, nil
}

func (m *MockHelixAPI) ReportDetails(ctx context.Context, batchID string) ([]domain.RunResult, error) {
	if m.ReportDetailsFunc != nil {
		return m.ReportDetailsFunc(ctx, batchID)
	}
	return []domain.RunResult{}, nil
}

func (m *MockHelixAPI) ExportReport(ctx context.Context, batchID string) ([]byte, error) {
	if m.ExportReportFunc != nil {
		return m.ExportReportFunc(ctx, batchID)
	}
	return nil, nil
}

func (m *MockHelixAPI) StartRun(ctx context.Context, caseIDs []int) (*domain.RunTicket, error) {
	if m.StartRunFunc != nil {
		return m.StartRunFunc(ctx, caseIDs)
	}
	return &domain.RunTicket{BatchID: "mock-batch"}, nil
}

func (m *MockHelixAPI) StopRun(ctx context.Context, batchID string) (string, error) {
	if m.StopRunFunc != nil {
		return m.StopRunFunc(ctx, batchID)
	}
	return "Stop signal sent", nil
}

func (m *MockHelixAPI) ActiveBatches(ctx context.Context) ([]domain.ActiveBatch, error) {
	if m.ActiveBatchesFunc != nil {
		return m.ActiveBatchesFunc(ctx)
	}
	return []domain.ActiveBatch{}, nil
}

func (m *MockHelixAPI) RunHistory(ctx context.Context, batchID string) ([]domain.RunResult, error) {
	if m.RunHistoryFunc != nil {
		return m.RunHistoryFunc(ctx, batchID)
	}
	return []domain.RunResult{}, nil
}

func (m *MockHelixAPI) GetConfig(ctx context.Context) (*domain.SystemConfig, error) {
	if m.GetConfigFunc != nil {
		return m.GetConfigFunc(ctx)
	}
	return &domain.SystemConfig{MaxWorkers: 5}, nil
}

func (m *MockHelixAPI) UpdateConfig(ctx context.Context, u domain.ConfigUpdate) (*domain.SystemConfig, error) {
	if m.UpdateConfigFunc != nil {
		return m.UpdateConfigFunc(ctx, u)
	}
	return &domain.SystemConfig{}, nil
}

func (m *MockHelixAPI) PreviewMetadata(ctx context.Context) (*domain.GeneratorMetadata, error) {
	if m.PreviewMetadataFunc != nil {
		return m.PreviewMetadataFunc(ctx)
	}
	return &domain.GeneratorMetadata{}, nil
}

func (m *MockHelixAPI) GenerateCases(ctx context.Context, count int) (*domain.GenerateResult, error) {
	if m.GenerateCasesFunc != nil {
		return m.GenerateCasesFunc(ctx, count)
	}
	return &domain.GenerateResult{}, nil
}

func (m *MockHelixAPI) ParseCurl(ctx context.Context, command string) (*domain.CurlParseResult, error) {
	if m.ParseCurlFunc != nil {
		return m.ParseCurlFunc(ctx, command)
	}
	return &domain.CurlParseResult{}, nil
}

func (m *MockHelixAPI) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

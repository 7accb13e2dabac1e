package ports

import (
	"context"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

// RunJournal keeps the console's own history of the batches it started or
// followed.
type RunJournal interface {
	RecordRun(ctx context.Context, run *domain.JournalRun) error
	FinishRun(ctx context.Context, batchID string, status domain.BatchStatus, passCount, failCount int) error
	AppendLog(ctx context.Context, batchID string, entry domain.LogEntry) error
	GetRun(ctx context.Context, batchID string) (*domain.JournalRun, error)
	ListRuns(ctx context.Context, limit int) ([]*domain.JournalRun, error)
	ListLogs(ctx context.Context, batchID string) ([]domain.LogEntry, error)
}

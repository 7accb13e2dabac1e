package turso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/infrastructure/database"
	"github.com/emiliopalmerini/helix-console/internal/util"
)

const streamRetries = 2

// ErrRunNotFound is returned when finishing a batch the journal never saw.
var ErrRunNotFound = errors.New("journal run not found")

type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// RecordRun inserts the run, or refreshes case count and status when the
// batch is already journaled. Source and start time keep their first value.
func (r *JournalRepository) RecordRun(ctx context.Context, run *domain.JournalRun) error {
	if run.BatchID == "" {
		return fmt.Errorf("journal run needs a batch id")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = domain.BatchRunning
	}

	_, err := database.WithRetry(ctx, streamRetries, func() (sql.Result, error) {
		return r.db.ExecContext(ctx, `
			INSERT INTO journal_runs (id, batch_id, source, case_count, status, pass_count, fail_count, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(batch_id) DO UPDATE SET
				case_count = excluded.case_count,
				status = excluded.status
		`,
			run.ID,
			run.BatchID,
			run.Source,
			run.CaseCount,
			string(run.Status),
			run.PassCount,
			run.FailCount,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			nullTime(run.FinishedAt),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to record journal run: %w", err)
	}
	return nil
}

func (r *JournalRepository) FinishRun(ctx context.Context, batchID string, status domain.BatchStatus, passCount, failCount int) error {
	finished := time.Now().UTC()
	res, err := database.WithRetry(ctx, streamRetries, func() (sql.Result, error) {
		return r.db.ExecContext(ctx, `
			UPDATE journal_runs
			SET status = ?, pass_count = ?, fail_count = ?, finished_at = ?
			WHERE batch_id = ?
		`, string(status), passCount, failCount, finished.Format(time.RFC3339Nano), batchID)
	})
	if err != nil {
		return fmt.Errorf("failed to finish journal run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, batchID)
	}
	return nil
}

func (r *JournalRepository) AppendLog(ctx context.Context, batchID string, entry domain.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	_, err := database.WithRetry(ctx, streamRetries, func() (sql.Result, error) {
		return r.db.ExecContext(ctx, `
			INSERT INTO journal_logs (id, batch_id, level, message, logged_at)
			VALUES (?, ?, ?, ?, ?)
		`, entry.ID, batchID, string(entry.Level), entry.Message, entry.Timestamp.UTC().Format(time.RFC3339Nano))
	})
	if err != nil {
		return fmt.Errorf("failed to append journal log: %w", err)
	}
	return nil
}

// GetRun returns nil, nil when the batch was never journaled.
func (r *JournalRepository) GetRun(ctx context.Context, batchID string) (*domain.JournalRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, batch_id, source, case_count, status, pass_count, fail_count, started_at, finished_at
		FROM journal_runs WHERE batch_id = ?
	`, batchID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get journal run: %w", err)
	}
	return run, nil
}

// ListRuns returns the newest runs first.
func (r *JournalRepository) ListRuns(ctx context.Context, limit int) ([]*domain.JournalRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.WithRetry(ctx, streamRetries, func() (*sql.Rows, error) {
		return r.db.QueryContext(ctx, `
			SELECT id, batch_id, source, case_count, status, pass_count, fail_count, started_at, finished_at
			FROM journal_runs
			ORDER BY started_at DESC
			LIMIT ?
		`, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list journal runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*domain.JournalRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListLogs returns the feed lines of a batch in the order they were seen.
func (r *JournalRepository) ListLogs(ctx context.Context, batchID string) ([]domain.LogEntry, error) {
	rows, err := database.WithRetry(ctx, streamRetries, func() (*sql.Rows, error) {
		return r.db.QueryContext(ctx, `
			SELECT id, level, message, logged_at
			FROM journal_logs
			WHERE batch_id = ?
			ORDER BY seq
		`, batchID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list journal logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []domain.LogEntry
	for rows.Next() {
		var (
			entry    domain.LogEntry
			level    string
			loggedAt string
		)
		if err := rows.Scan(&entry.ID, &level, &entry.Message, &loggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal log: %w", err)
		}
		entry.Level = domain.LogLevel(level)
		entry.Timestamp = util.ParseTimeSQLite(loggedAt)
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*domain.JournalRun, error) {
	var (
		run        domain.JournalRun
		status     string
		startedAt  string
		finishedAt sql.NullString
	)
	if err := s.Scan(&run.ID, &run.BatchID, &run.Source, &run.CaseCount, &status,
		&run.PassCount, &run.FailCount, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	run.Status = domain.BatchStatus(status)
	run.StartedAt = util.ParseTimeSQLite(startedAt)
	if finishedAt.Valid {
		t := util.ParseTimeSQLite(finishedAt.String)
		run.FinishedAt = &t
	}
	return &run, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return util.NullString(t.UTC().Format(time.RFC3339Nano))
}

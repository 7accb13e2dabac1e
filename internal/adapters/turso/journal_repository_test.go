package turso_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/emiliopalmerini/helix-console/internal/adapters/turso"
	"github.com/emiliopalmerini/helix-console/internal/domain"
)

var started = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func TestJournalRepository_RecordAndGet(t *testing.T) {
	repo := turso.NewJournalRepository(testDB(t))
	ctx := context.Background()

	run := &domain.JournalRun{
		BatchID:   "BATCH-1",
		Source:    domain.JournalStarted,
		CaseCount: 3,
		StartedAt: started,
	}
	if err := repo.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if run.ID == "" {
		t.Error("expected RecordRun to assign an id")
	}

	got, err := repo.GetRun(ctx, "BATCH-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	want := &domain.JournalRun{
		ID:        run.ID,
		BatchID:   "BATCH-1",
		Source:    domain.JournalStarted,
		CaseCount: 3,
		Status:    domain.BatchRunning,
		StartedAt: started,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetRun mismatch (-want +got):\n%s", diff)
	}
}

func TestJournalRepository_GetMissing(t *testing.T) {
	repo := turso.NewJournalRepository(testDB(t))

	got, err := repo.GetRun(context.Background(), "nope")
	if err != nil || got != nil {
		t.Errorf("GetRun(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestJournalRepository_RecordTwiceKeepsSource(t *testing.T) {
	repo := turso.NewJournalRepository(testDB(t))
	ctx := context.Background()

	first := &domain.JournalRun{BatchID: "BATCH-2", Source: domain.JournalStarted, CaseCount: 2, StartedAt: started}
	if err := repo.RecordRun(ctx, first); err != nil {
		t.Fatal(err)
	}
	again := &domain.JournalRun{BatchID: "BATCH-2", Source: domain.JournalFollowed, CaseCount: 5, StartedAt: started.Add(time.Hour)}
	if err := repo.RecordRun(ctx, again); err != nil {
		t.Fatalf("second RecordRun failed: %v", err)
	}

	got, err := repo.GetRun(ctx, "BATCH-2")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != first.ID || got.Source != domain.JournalStarted || !got.StartedAt.Equal(started) {
		t.Errorf("expected first id, source and start time kept, got %+v", got)
	}
	if got.CaseCount != 5 {
		t.Errorf("expected case count refreshed to 5, got %d", got.CaseCount)
	}
}

func TestJournalRepository_FinishRun(t *testing.T) {
	repo := turso.NewJournalRepository(testDB(t))
	ctx := context.Background()

	if err := repo.RecordRun(ctx, &domain.JournalRun{BatchID: "BATCH-3", Source: domain.JournalFollowed, StartedAt: started}); err != nil {
		t.Fatal(err)
	}
	if err := repo.FinishRun(ctx, "BATCH-3", domain.BatchCompleted, 4, 1); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	got, err := repo.GetRun(ctx, "BATCH-3")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.BatchCompleted || got.PassCount != 4 || got.FailCount != 1 {
		t.Errorf("unexpected finished run: %+v", got)
	}
	if got.FinishedAt == nil {
		t.Error("expected finished_at to be set")
	}

	err = repo.FinishRun(ctx, "BATCH-unknown", domain.BatchStopped, 0, 0)
	if !errors.Is(err, turso.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestJournalRepository_ListRunsNewestFirst(t *testing.T) {
	repo := turso.NewJournalRepository(testDB(t))
	ctx := context.Background()

	for i, id := range []string{"BATCH-a", "BATCH-b", "BATCH-c"} {
		run := &domain.JournalRun{BatchID: id, Source: domain.JournalStarted, StartedAt: started.Add(time.Duration(i) * time.Minute)}
		if err := repo.RecordRun(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := repo.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.BatchID)
	}
	if diff := cmp.Diff([]string{"BATCH-c", "BATCH-b"}, ids); diff != "" {
		t.Errorf("ListRuns order (-want +got):\n%s", diff)
	}
}

func TestJournalRepository_Logs(t *testing.T) {
	exerciseLogs(t, testDB(t))
}

func TestJournalRepository_LibsqlServer(t *testing.T) {
	db := testServerDB(t)
	exerciseLogs(t, db)
}

func exerciseLogs(t *testing.T, db *sql.DB) {
	t.Helper()
	repo := turso.NewJournalRepository(db)
	ctx := context.Background()

	entries := []domain.LogEntry{
		{ID: "l1", Timestamp: started, Level: domain.LevelInfo, Message: "Connected to live log stream: BATCH-4"},
		{ID: "l2", Timestamp: started.Add(time.Second), Level: domain.LevelError, Message: "[FAIL] #7: wrong join"},
		{Timestamp: started.Add(2 * time.Second), Level: domain.LevelInfo, Message: "Run finished."},
	}
	for _, e := range entries {
		if err := repo.AppendLog(ctx, "BATCH-4", e); err != nil {
			t.Fatalf("AppendLog failed: %v", err)
		}
	}
	if err := repo.AppendLog(ctx, "BATCH-other", entries[0]); err != nil {
		t.Fatal(err)
	}

	got, err := repo.ListLogs(ctx, "BATCH-4")
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if diff := cmp.Diff(entries, got, cmpopts.IgnoreFields(domain.LogEntry{}, "ID")); diff != "" {
		t.Errorf("ListLogs mismatch (-want +got):\n%s", diff)
	}
	if got[2].ID == "" {
		t.Error("expected a generated id for the third entry")
	}
}

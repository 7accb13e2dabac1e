package runner

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestStore(opts ...StoreOption) *Store {
	opts = append([]StoreOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewStore(opts...)
}

func twoCases() []domain.TestCase {
	return []domain.TestCase{
		{ID: 1, Question: "q1", Status: domain.CaseStatusPass},
		{ID: 2, Question: "q2"},
	}
}

func statuses(s State) map[int]domain.CaseStatus {
	out := make(map[int]domain.CaseStatus, len(s.Cases))
	for _, c := range s.Cases {
		out[c.ID] = c.Status
	}
	return out
}

func TestStore_StartRun(t *testing.T) {
	s := newTestStore()
	s.AddLog("left over", domain.LevelInfo)
	s.UpdateProgress(40)

	s.StartRun(twoCases(), "b-1")
	snap := s.Snapshot()

	if !snap.Running {
		t.Error("expected running")
	}
	if snap.Progress != 0 {
		t.Errorf("expected progress reset, got %d", snap.Progress)
	}
	if len(snap.Logs) != 0 {
		t.Errorf("expected logs cleared, got %d", len(snap.Logs))
	}
	if snap.ActiveBatchID != "b-1" {
		t.Errorf("expected batch b-1, got %s", snap.ActiveBatchID)
	}
	want := map[int]domain.CaseStatus{1: domain.CaseStatusWaiting, 2: domain.CaseStatusWaiting}
	if diff := cmp.Diff(want, statuses(snap)); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_StartRunGeneratesBatchID(t *testing.T) {
	s := newTestStore()
	s.StartRun(nil, "")

	want := "BATCH-" + "1772357400000"
	if got := s.ActiveBatchID(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestStore_AddLog(t *testing.T) {
	var sunk []string
	s := newTestStore(WithLogSink(func(batchID string, e domain.LogEntry) {
		sunk = append(sunk, batchID+"|"+e.Message)
	}))
	s.StartRun(nil, "b-7")

	s.AddLog("first", "")
	s.AddLog("second", domain.LevelError)

	snap := s.Snapshot()
	if len(snap.Logs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap.Logs))
	}
	if snap.Logs[0].Level != domain.LevelInfo {
		t.Errorf("expected default INFO, got %s", snap.Logs[0].Level)
	}
	if snap.Logs[1].Level != domain.LevelError {
		t.Errorf("expected ERROR, got %s", snap.Logs[1].Level)
	}
	if snap.Logs[0].ID == "" || snap.Logs[0].ID == snap.Logs[1].ID {
		t.Errorf("expected distinct ids, got %q and %q", snap.Logs[0].ID, snap.Logs[1].ID)
	}
	if !snap.Logs[0].Timestamp.Equal(fixedNow) {
		t.Errorf("expected timestamp %s, got %s", fixedNow, snap.Logs[0].Timestamp)
	}
	if diff := cmp.Diff([]string{"b-7|first", "b-7|second"}, sunk); diff != "" {
		t.Errorf("sink mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_UpdateCaseStatus(t *testing.T) {
	s := newTestStore()
	s.StartRun(twoCases(), "b")

	s.UpdateCaseStatus(2, domain.CaseStatusRunning)
	s.UpdateCaseStatus(99, domain.CaseStatusFail)

	want := map[int]domain.CaseStatus{1: domain.CaseStatusWaiting, 2: domain.CaseStatusRunning}
	if diff := cmp.Diff(want, statuses(s.Snapshot())); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_RecordResultIgnoresUnknownCase(t *testing.T) {
	s := newTestStore()
	s.StartRun(twoCases(), "b")

	s.RecordResult(domain.RunResult{CaseID: 1, Message: "ok"})
	s.RecordResult(domain.RunResult{CaseID: 50, Message: "stray"})

	results := s.Snapshot().Results
	if len(results) != 1 || results[1].Message != "ok" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestStore_UpdateProgressClamps(t *testing.T) {
	s := newTestStore()
	for in, want := range map[int]int{-5: 0, 42: 42, 130: 100} {
		s.UpdateProgress(in)
		if got := s.Snapshot().Progress; got != want {
			t.Errorf("UpdateProgress(%d): expected %d, got %d", in, want, got)
		}
	}
}

func TestStore_StopAndReset(t *testing.T) {
	s := newTestStore()
	s.StartRun(twoCases(), "b")
	s.AddLog("x", "")

	s.StopRun()
	snap := s.Snapshot()
	if snap.Running {
		t.Error("expected stopped")
	}
	if len(snap.Logs) != 1 || len(snap.Cases) != 2 {
		t.Error("StopRun must keep logs and cases")
	}

	s.Reset()
	if diff := cmp.Diff(State{Results: map[int]domain.RunResult{}}, s.Snapshot()); diff != "" {
		t.Errorf("reset mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_SnapshotIsIndependent(t *testing.T) {
	s := newTestStore()
	s.StartRun(twoCases(), "b")

	snap := s.Snapshot()
	snap.Cases[0].Status = domain.CaseStatusFail

	if got := s.Snapshot().Cases[0].Status; got != domain.CaseStatusWaiting {
		t.Errorf("snapshot mutation leaked into store: %s", got)
	}
}

func TestStore_Subscribe(t *testing.T) {
	s := newTestStore()
	ch, cancel := s.Subscribe()

	s.UpdateProgress(10)
	s.UpdateProgress(20)

	select {
	case <-ch:
	default:
		t.Fatal("expected a notification")
	}
	select {
	case <-ch:
		t.Fatal("expected notifications to coalesce")
	default:
	}

	cancel()
	cancel()
	s.UpdateProgress(30)
	if _, ok := <-ch; ok {
		t.Fatal("expected the channel closed with no notification after cancel")
	}
}

func TestState_Counts(t *testing.T) {
	st := State{Cases: []domain.TestCase{
		{ID: 1, Status: domain.CaseStatusPass},
		{ID: 2, Status: domain.CaseStatusFail},
		{ID: 3, Status: domain.CaseStatusRunning},
		{ID: 4, Status: domain.CaseStatusPass},
	}}
	pass, fail, pending := st.Counts()
	if pass != 2 || fail != 1 || pending != 1 {
		t.Errorf("expected 2/1/1, got %d/%d/%d", pass, fail, pending)
	}
}

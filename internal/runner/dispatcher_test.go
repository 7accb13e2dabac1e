package runner

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

type countingMetrics struct {
	mu       sync.Mutex
	messages map[string]int
	started  []int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{messages: make(map[string]int)}
}

func (m *countingMetrics) RecordAPICall(context.Context, string, int, bool) {}
func (m *countingMetrics) RecordRunMessage(_ context.Context, msgType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msgType]++
}
func (m *countingMetrics) RecordRunStarted(_ context.Context, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, n)
}
func (m *countingMetrics) Close(context.Context) error { return nil }

func logLines(s State) []string {
	out := make([]string, len(s.Logs))
	for i, l := range s.Logs {
		out[i] = string(l.Level) + " " + l.Message
	}
	return out
}

func TestDispatcher_Messages(t *testing.T) {
	tests := []struct {
		name         string
		frames       []string
		wantStatuses map[int]domain.CaseStatus
		wantLogs     []string
		wantProgress int
		wantRunning  bool
		wantDone     bool
	}{
		{
			name:         "running",
			frames:       []string{`{"type":"running","case_id":2}`},
			wantStatuses: map[int]domain.CaseStatus{1: domain.CaseStatusWaiting, 2: domain.CaseStatusRunning},
			wantLogs:     []string{},
			wantRunning:  true,
		},
		{
			name:         "update pass and fail",
			frames:       []string{`{"type":"update","case_id":1,"result":{"result":"PASS","message":"matched"}}`, `{"type":"update","case_id":2,"result":{"result":"FAIL"}}`},
			wantStatuses: map[int]domain.CaseStatus{1: domain.CaseStatusPass, 2: domain.CaseStatusFail},
			wantLogs:     []string{"INFO [PASS] #1: matched", "ERROR [FAIL] #2: Done"},
			wantRunning:  true,
		},
		{
			name:         "update for unknown case only logs",
			frames:       []string{`{"type":"update","case_id":9,"result":{"result":"PASS"}}`},
			wantStatuses: map[int]domain.CaseStatus{1: domain.CaseStatusWaiting, 2: domain.CaseStatusWaiting},
			wantLogs:     []string{"INFO [PASS] #9: Done"},
			wantRunning:  true,
		},
		{
			name:         "batch status progress",
			frames:       []string{`{"type":"batch_status","total":3,"completed":2}`},
			wantStatuses: map[int]domain.CaseStatus{1: domain.CaseStatusWaiting, 2: domain.CaseStatusWaiting},
			wantLogs:     []string{},
			wantProgress: 67,
			wantRunning:  true,
		},
		{
			name:         "batch status zero total leaves progress",
			frames:       []string{`{"type":"batch_status","total":0,"completed":0}`},
			wantStatuses: map[int]domain.CaseStatus{1: domain.CaseStatusWaiting, 2: domain.CaseStatusWaiting},
			wantLogs:     []string{},
			wantRunning:  true,
		},
		{
			name:         "terminal snapshot stops run",
			frames:       []string{`{"type":"batch_status","status":"COMPLETED","total_count":2,"pass_count":2}`},
			wantStatuses: map[int]domain.CaseStatus{1: domain.CaseStatusWaiting, 2: domain.CaseStatusWaiting},
			wantLogs:     []string{},
			wantRunning:  false,
		},
		{
			name:         "log with and without level",
			frames:       []string{`{"type":"log","message":"logged in"}`, `{"type":"log","message":"slow","level":"WARNING"}`},
			wantStatuses: map[int]domain.CaseStatus{1: domain.CaseStatusWaiting, 2: domain.CaseStatusWaiting},
			wantLogs:     []string{"INFO logged in", "WARN slow"},
			wantRunning:  true,
		},
		{
			name:         "init replaces cases",
			frames:       []string{`{"type":"init","cases":[{"id":5,"question":"q5"}]}`},
			wantStatuses: map[int]domain.CaseStatus{5: domain.CaseStatusWaiting},
			wantLogs:     []string{},
			wantRunning:  true,
		},
		{
			name:         "error ends the batch",
			frames:       []string{`{"type":"error","message":"Login failed"}`},
			wantStatuses: map[int]domain.CaseStatus{1: domain.CaseStatusWaiting, 2: domain.CaseStatusWaiting},
			wantLogs:     []string{"ERROR Login failed"},
			wantRunning:  false,
			wantDone:     true,
		},
		{
			name:         "done",
			frames:       []string{`{"type":"done"}`},
			wantStatuses: map[int]domain.CaseStatus{1: domain.CaseStatusWaiting, 2: domain.CaseStatusWaiting},
			wantLogs:     []string{"INFO Run finished."},
			wantRunning:  false,
			wantDone:     true,
		},
		{
			name:         "garbage and unknown types are dropped",
			frames:       []string{`not json`, `{"type":"heartbeat"}`, `{"case_id":1}`},
			wantStatuses: map[int]domain.CaseStatus{1: domain.CaseStatusWaiting, 2: domain.CaseStatusWaiting},
			wantLogs:     []string{},
			wantRunning:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore()
			store.StartRun(twoCases(), "b")
			d := NewDispatcher(store, nil, nil)

			done := false
			for _, f := range tt.frames {
				done = d.Handle(context.Background(), []byte(f))
			}

			snap := store.Snapshot()
			if diff := cmp.Diff(tt.wantStatuses, statuses(snap)); diff != "" {
				t.Errorf("statuses mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantLogs, logLines(snap)); diff != "" {
				t.Errorf("logs mismatch (-want +got):\n%s", diff)
			}
			if snap.Progress != tt.wantProgress {
				t.Errorf("expected progress %d, got %d", tt.wantProgress, snap.Progress)
			}
			if snap.Running != tt.wantRunning {
				t.Errorf("expected running=%v, got %v", tt.wantRunning, snap.Running)
			}
			if done != tt.wantDone {
				t.Errorf("expected done=%v, got %v", tt.wantDone, done)
			}
		})
	}
}

func TestDispatcher_UpdateRecordsResult(t *testing.T) {
	store := newTestStore()
	store.StartRun(twoCases(), "b")
	d := NewDispatcher(store, nil, nil)

	d.Handle(context.Background(), []byte(`{"type":"update","case_id":2,"result":{"result":"FAIL","actual_sql":"SELECT 2","duration":0.5}}`))

	res, ok := store.Snapshot().Results[2]
	if !ok {
		t.Fatal("expected result for case 2")
	}
	if res.CaseID != 2 || res.ActualSQL != "SELECT 2" || res.Duration != 0.5 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestDispatcher_CountsMessages(t *testing.T) {
	store := newTestStore()
	store.StartRun(twoCases(), "b")
	m := newCountingMetrics()
	d := NewDispatcher(store, nil, m)

	for _, f := range []string{`{"type":"running","case_id":1}`, `{"type":"running","case_id":2}`, `{"type":"done"}`, `bad`} {
		d.Handle(context.Background(), []byte(f))
	}

	if diff := cmp.Diff(map[string]int{"running": 2, "done": 1}, m.messages); diff != "" {
		t.Errorf("message counts mismatch (-want +got):\n%s", diff)
	}
}

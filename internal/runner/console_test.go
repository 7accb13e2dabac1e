package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/ports"
)

func newTestConsole(api ports.RunService, dialer *fakeDialer, opts ...ConsoleOption) *Console {
	store := newTestStore()
	follower := newTestFollower(store, dialer)
	return NewConsole(api, store, follower, opts...)
}

func TestConsole_StartUsesTicketCases(t *testing.T) {
	var gotIDs []int
	api := &ports.MockHelixAPI{
		StartRunFunc: func(_ context.Context, ids []int) (*domain.RunTicket, error) {
			gotIDs = ids
			return &domain.RunTicket{BatchID: "b-9", Cases: []domain.CaseRef{{ID: 3, Question: "q3"}}}, nil
		},
	}
	j := newRecordingJournal()
	m := newCountingMetrics()
	c := newTestConsole(api, &fakeDialer{}, WithConsoleJournal(j), WithConsoleMetrics(m))

	ticket, err := c.Start(context.Background(), []int{3}, []domain.TestCase{{ID: 3, Question: "stale"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.BatchID != "b-9" {
		t.Errorf("expected b-9, got %s", ticket.BatchID)
	}
	if diff := cmp.Diff([]int{3}, gotIDs); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	snap := c.Store().Snapshot()
	if !snap.Running || snap.ActiveBatchID != "b-9" {
		t.Errorf("expected running b-9, got running=%v batch=%s", snap.Running, snap.ActiveBatchID)
	}
	if len(snap.Cases) != 1 || snap.Cases[0].Question != "q3" || snap.Cases[0].Status != domain.CaseStatusWaiting {
		t.Errorf("unexpected runtime cases: %+v", snap.Cases)
	}
	if len(j.runs) != 1 || j.runs[0].Source != domain.JournalStarted || j.runs[0].CaseCount != 1 {
		t.Errorf("unexpected journal: %+v", j.runs)
	}
	if diff := cmp.Diff([]int{1}, m.started); diff != "" {
		t.Errorf("runs started mismatch (-want +got):\n%s", diff)
	}
}

func TestConsole_StartFallsBackToGivenCases(t *testing.T) {
	c := newTestConsole(&ports.MockHelixAPI{}, &fakeDialer{})

	_, err := c.Start(context.Background(), []int{1, 2}, twoCases())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(c.Store().Snapshot().Cases); got != 2 {
		t.Errorf("expected 2 runtime cases, got %d", got)
	}
}

func TestConsole_StartErrorLeavesStore(t *testing.T) {
	api := &ports.MockHelixAPI{
		StartRunFunc: func(context.Context, []int) (*domain.RunTicket, error) {
			return nil, errors.New("backend down")
		},
	}
	c := newTestConsole(api, &fakeDialer{})

	if _, err := c.Start(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error")
	}
	if c.Store().Snapshot().Running {
		t.Error("store must stay idle when the backend refuses the run")
	}
}

func TestConsole_Restore(t *testing.T) {
	api := &ports.MockHelixAPI{
		ActiveBatchesFunc: func(context.Context) ([]domain.ActiveBatch, error) {
			return []domain.ActiveBatch{
				{BatchID: "latest", TotalCount: 4, CompletedCount: 2},
				{BatchID: "older", TotalCount: 1},
			}, nil
		},
		RunHistoryFunc: func(_ context.Context, batchID string) ([]domain.RunResult, error) {
			if batchID != "latest" {
				t.Errorf("expected history of latest, got %s", batchID)
			}
			return []domain.RunResult{
				{CaseID: 1, Question: "q1", Result: domain.CaseStatusPass},
				{CaseID: 2, Question: "q2", Result: domain.CaseStatusFail},
			}, nil
		},
	}
	j := newRecordingJournal()
	c := newTestConsole(api, &fakeDialer{}, WithConsoleJournal(j))

	batch, err := c.Restore(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch == nil || batch.BatchID != "latest" {
		t.Fatalf("expected latest batch, got %+v", batch)
	}

	snap := c.Store().Snapshot()
	want := map[int]domain.CaseStatus{1: domain.CaseStatusPass, 2: domain.CaseStatusFail}
	if diff := cmp.Diff(want, statuses(snap)); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
	if snap.Progress != 50 {
		t.Errorf("expected progress 50, got %d", snap.Progress)
	}
	if len(j.runs) != 1 || j.runs[0].Source != domain.JournalFollowed {
		t.Errorf("expected a followed journal entry, got %+v", j.runs)
	}
}

func TestConsole_RestoreNothingActive(t *testing.T) {
	c := newTestConsole(&ports.MockHelixAPI{}, &fakeDialer{})

	batch, err := c.Restore(context.Background())
	if err != nil || batch != nil {
		t.Fatalf("expected nil batch and error, got %+v, %v", batch, err)
	}
}

func TestConsole_Stop(t *testing.T) {
	var stopped string
	api := &ports.MockHelixAPI{
		StopRunFunc: func(_ context.Context, batchID string) (string, error) {
			stopped = batchID
			return "Stop signal sent", nil
		},
	}
	j := newRecordingJournal()
	c := newTestConsole(api, &fakeDialer{}, WithConsoleJournal(j))

	if _, err := c.Stop(context.Background()); !errors.Is(err, ErrNoActiveRun) {
		t.Fatalf("expected ErrNoActiveRun, got %v", err)
	}

	c.Store().StartRun(twoCases(), "b-3")
	c.Store().UpdateCaseStatus(1, domain.CaseStatusPass)

	msg, err := c.Stop(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "Stop signal sent" || stopped != "b-3" {
		t.Errorf("unexpected stop: msg=%q batch=%q", msg, stopped)
	}
	snap := c.Store().Snapshot()
	if snap.Running || snap.BatchStatus != domain.BatchStopped {
		t.Errorf("expected stopped state, got running=%v status=%s", snap.Running, snap.BatchStatus)
	}
	if got := j.finished["b-3"]; got != "STOPPED 1/0" {
		t.Errorf("expected STOPPED 1/0, got %q", got)
	}
}

func TestConsole_FollowInBackgroundReplacesFollower(t *testing.T) {
	defer goleak.VerifyNone(t)

	idle := newFakeChannel(false)
	finishing := newFakeChannel(false, `{"type":"done"}`)
	dialer := &fakeDialer{channels: []*fakeChannel{idle, finishing}}
	c := newTestConsole(&ports.MockHelixAPI{}, dialer)

	c.Store().StartRun(twoCases(), "first")
	c.FollowInBackground(context.Background(), "first")

	deadline := time.Now().Add(2 * time.Second)
	for dialer.dialCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	c.Store().StartRun(twoCases(), "second")
	c.FollowInBackground(context.Background(), "second")
	c.Wait()

	if idle.closed.Load() != 1 {
		t.Errorf("expected first channel closed when replaced, got %d", idle.closed.Load())
	}
	if c.Store().Snapshot().Running {
		t.Error("expected second batch finished")
	}
}

func TestConsole_ConcurrentFollowLeavesNoOrphans(t *testing.T) {
	defer goleak.VerifyNone(t)

	const callers = 8
	channels := make([]*fakeChannel, callers)
	for i := range channels {
		channels[i] = newFakeChannel(false)
	}
	dialer := &fakeDialer{channels: append([]*fakeChannel(nil), channels...)}
	c := newTestConsole(&ports.MockHelixAPI{}, dialer)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.FollowInBackground(context.Background(), fmt.Sprintf("batch-%d", i))
		}()
	}
	wg.Wait()

	// Only the last installed follower is reachable; stopping it must drain the rest.
	c.stopFollowing()

	var closed int32
	for _, ch := range channels {
		closed += ch.closed.Load()
	}
	if int(closed) != dialer.dialCount() {
		t.Errorf("expected every dialed channel closed, dialed %d closed %d", dialer.dialCount(), closed)
	}
}

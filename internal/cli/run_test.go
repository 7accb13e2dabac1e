package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/runner"
)

// scriptedFeed appends lines to the store as a follower would, then returns.
type scriptedFeed struct {
	store *runner.Store
	lines []string
	err   error
}

func (f *scriptedFeed) Store() *runner.Store { return f.store }

func (f *scriptedFeed) Follow(_ context.Context, batchID string) error {
	for _, l := range f.lines {
		f.store.AddLog(l, domain.LevelInfo)
	}
	f.store.UpdateCaseStatus(1, domain.CaseStatusPass)
	f.store.UpdateCaseStatus(2, domain.CaseStatusFail)
	f.store.SetBatchStatus(domain.BatchCompleted)
	return f.err
}

func newScriptedFeed(lines ...string) *scriptedFeed {
	store := runner.NewStore()
	store.StartRun([]domain.TestCase{{ID: 1}, {ID: 2}, {ID: 3}}, "B-1")
	store.AddLog("Batch started", domain.LevelInfo)
	return &scriptedFeed{store: store, lines: lines}
}

func TestFollowWithFeed_PrintsEveryLineOnce(t *testing.T) {
	src := newScriptedFeed("Case 1 passed", "Case 2 failed", "Batch completed")

	var buf bytes.Buffer
	if err := followWithFeed(context.Background(), src, "B-1", &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Batch started", "Case 1 passed", "Case 2 failed", "Batch completed"} {
		if n := strings.Count(out, want); n != 1 {
			t.Errorf("expected %q once, got %d times:\n%s", want, n, out)
		}
	}
	if strings.Index(out, "Case 1 passed") > strings.Index(out, "Batch completed") {
		t.Errorf("lines out of order:\n%s", out)
	}
}

func TestFollowWithFeed_ReturnsFollowError(t *testing.T) {
	src := newScriptedFeed("Channel error")
	src.err = errors.New("opening channel for B-1: refused")

	var buf bytes.Buffer
	err := followWithFeed(context.Background(), src, "B-1", &buf)
	if err == nil || !strings.Contains(err.Error(), "refused") {
		t.Errorf("expected follow error, got %v", err)
	}
	if !strings.Contains(buf.String(), "Channel error") {
		t.Errorf("lines logged before the error must still print:\n%s", buf.String())
	}
}

func TestWriteSummary(t *testing.T) {
	src := newScriptedFeed()
	_ = src.Follow(context.Background(), "B-1")

	var buf bytes.Buffer
	if err := writeSummary(&buf, "B-1", src.store.Snapshot()); err != nil {
		t.Fatal(err)
	}
	want := "Batch B-1 COMPLETED: 1 passed, 1 failed, 1 pending"
	if got := strings.TrimSpace(buf.String()); got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestActiveGrid(t *testing.T) {
	g := activeGrid([]domain.ActiveBatch{{BatchID: "B-1", TotalCount: 4, CompletedCount: 1, PassCount: 1}})
	if diff := strings.Join(g.rows[0], "|"); diff != "B-1|-|1/4|1|25%|-" {
		t.Errorf("unexpected row %q", diff)
	}
}

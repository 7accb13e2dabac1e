package domain

import (
	"fmt"
	"testing"
	"time"
)

func TestBatchDerivedFields(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	b := Batch{TotalCount: 8, PassCount: 6, StartTime: NewTimestamp(start), EndTime: NewTimestamp(end)}

	assertEqual(t, "FailCount", 2, b.FailCount())
	assertEqual(t, "PassRate", 0.75, b.PassRate())
	assertEqual(t, "Duration", 90*time.Second, b.Duration())

	empty := Batch{PassCount: 3}
	assertEqual(t, "FailCount never negative", 0, empty.FailCount())
	assertEqual(t, "PassRate of empty batch", 0.0, empty.PassRate())
	assertEqual(t, "Duration while running", time.Duration(0), Batch{StartTime: NewTimestamp(start)}.Duration())
}

func TestBatchStatusIsTerminal(t *testing.T) {
	assertEqual(t, "RUNNING", false, BatchRunning.IsTerminal())
	assertEqual(t, "IN_PROGRESS", false, BatchInProgress.IsTerminal())
	assertEqual(t, "COMPLETED", true, BatchCompleted.IsTerminal())
	assertEqual(t, "STOPPED", true, BatchStopped.IsTerminal())
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{5, -1, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.part, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.part, tt.total, got, tt.want)
		}
	}
}

func TestRunTicketRuntimeCases(t *testing.T) {
	ticket := RunTicket{BatchID: "b-1", Cases: []CaseRef{{ID: 3, Question: "q3"}}}
	cases := ticket.RuntimeCases()
	assertEqual(t, "len", 1, len(cases))
	assertEqual(t, "ID", 3, cases[0].ID)
	assertEqual(t, "Question", "q3", cases[0].Question)
}

func TestClampGenerateCount(t *testing.T) {
	assertEqual(t, "below", 1, ClampGenerateCount(0))
	assertEqual(t, "inside", 4, ClampGenerateCount(4))
	assertEqual(t, "above", 10, ClampGenerateCount(25))
}

func TestSystemConfigMaskedToken(t *testing.T) {
	assertEqual(t, "long", "******cdef", SystemConfig{UserToken: "123456cdef"}.MaskedToken())
	assertEqual(t, "short", "***", SystemConfig{UserToken: "abc"}.MaskedToken())
	assertEqual(t, "empty", "", SystemConfig{}.MaskedToken())
}

func TestConfigUpdateValidate(t *testing.T) {
	zero := 0
	if err := (ConfigUpdate{MaxWorkers: &zero}).Validate(); err == nil {
		t.Error("expected zero workers to be rejected")
	}
	five := 5
	if err := (ConfigUpdate{MaxWorkers: &five}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	assertEqual(t, "IsEmpty", true, ConfigUpdate{}.IsEmpty())
}

func TestDiffSQL(t *testing.T) {
	tokens := DiffSQL("select id from users", "SELECT id FROM accounts WHERE 1")
	changed := make([]bool, len(tokens))
	for i, tok := range tokens {
		changed[i] = tok.Changed
	}
	want := []bool{false, false, false, true, true, true}
	if len(changed) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(changed))
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Errorf("token %d (%s): changed=%v, want %v", i, tokens[i].Word, changed[i], want[i])
		}
	}
	assertEqual(t, "ChangedCount", 3, ChangedCount(tokens))

	for _, tok := range DiffSQL("", "SELECT 1") {
		if tok.Changed {
			t.Errorf("no expected SQL should highlight nothing, got %+v", tok)
		}
	}
}

func TestFilterResults(t *testing.T) {
	results := []RunResult{
		{CaseID: 1, Result: CaseStatusPass},
		{CaseID: 2, Result: CaseStatusFail},
		{CaseID: 3, Result: CaseStatusPass},
	}
	ids := func(rs []RunResult) []int {
		out := []int{}
		for _, r := range rs {
			out = append(out, r.CaseID)
		}
		return out
	}
	tests := []struct {
		filter string
		want   []int
	}{
		{"pass", []int{1, 3}},
		{"fail", []int{2}},
		{"", []int{1, 2, 3}},
		{"bogus", []int{1, 2, 3}},
	}
	for _, tt := range tests {
		got := ids(FilterResults(results, tt.filter))
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("FilterResults(%q) = %v, want %v", tt.filter, got, tt.want)
		}
	}
}

package domain

import (
	"math"
	"time"
)

// BatchStatus is the server-owned lifecycle of a run batch.
type BatchStatus string

const (
	BatchRunning    BatchStatus = "RUNNING"
	BatchInProgress BatchStatus = "IN_PROGRESS"
	BatchCompleted  BatchStatus = "COMPLETED"
	BatchStopped    BatchStatus = "STOPPED"
	BatchFailed     BatchStatus = "FAILED"
)

// IsTerminal reports whether no further results will arrive for the batch.
// FAILED is never sent by the backend; the console sets it on an error frame.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchCompleted || s == BatchStopped || s == BatchFailed
}

// Batch is the summary of one execution run, as listed in reports.
type Batch struct {
	ID         string      `json:"id" yaml:"id"`
	StartTime  *Timestamp  `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime    *Timestamp  `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Status     BatchStatus `json:"status" yaml:"status"`
	TotalCount int         `json:"total_count" yaml:"total_count"`
	PassCount  int         `json:"pass_count" yaml:"pass_count"`
}

// FailCount is derived; the backend only stores passes.
func (b Batch) FailCount() int {
	if f := b.TotalCount - b.PassCount; f > 0 {
		return f
	}
	return 0
}

// PassRate is the share of passing cases in [0,1].
func (b Batch) PassRate() float64 {
	if b.TotalCount == 0 {
		return 0
	}
	return float64(b.PassCount) / float64(b.TotalCount)
}

// Duration is the wall time of a finished batch, zero while running.
func (b Batch) Duration() time.Duration {
	if b.StartTime == nil || b.EndTime == nil {
		return 0
	}
	return b.EndTime.Sub(b.StartTime.Time)
}

// ActiveBatch is a batch still executing on the backend.
type ActiveBatch struct {
	BatchID        string     `json:"batch_id" yaml:"batch_id"`
	StartTime      *Timestamp `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	TotalCount     int        `json:"total_count" yaml:"total_count"`
	CompletedCount int        `json:"completed_count" yaml:"completed_count"`
	PassCount      int        `json:"pass_count" yaml:"pass_count"`
}

// Progress returns completion in percent, rounded.
func (a ActiveBatch) Progress() int {
	return Percent(a.CompletedCount, a.TotalCount)
}

// RunResult is the verdict for one case in a batch.
type RunResult struct {
	CaseID      int        `json:"case_id" yaml:"case_id"`
	Question    string     `json:"question" yaml:"question"`
	ActualSQL   string     `json:"actual_sql" yaml:"actual_sql"`
	ExpectedSQL string     `json:"expected_sql,omitempty" yaml:"expected_sql,omitempty"`
	Result      CaseStatus `json:"result" yaml:"result"`
	Message     string     `json:"message,omitempty" yaml:"message,omitempty"`
	Duration    float64    `json:"duration" yaml:"duration"`
	DiffScore   float64    `json:"diff_score,omitempty" yaml:"diff_score,omitempty"`
}

// Passed reports whether the backend marked the case as passing.
func (r RunResult) Passed() bool {
	return r.Result == CaseStatusPass
}

// CaseRef is the minimal case identity sent when a run starts.
type CaseRef struct {
	ID       int    `json:"id" yaml:"id"`
	Question string `json:"question" yaml:"question"`
}

// RunTicket is the backend answer to a run request.
type RunTicket struct {
	Message string    `json:"message" yaml:"message"`
	BatchID string    `json:"batch_id" yaml:"batch_id"`
	Cases   []CaseRef `json:"cases,omitempty" yaml:"cases,omitempty"`
}

// RuntimeCases turns a ticket's case list into runner rows.
func (t RunTicket) RuntimeCases() []TestCase {
	out := make([]TestCase, len(t.Cases))
	for i, c := range t.Cases {
		out[i] = TestCase{ID: c.ID, Question: c.Question, IsActive: true}
	}
	return out
}

// Percent returns round(part/total*100), or 0 for an empty total.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// FilterResults keeps the "pass" or "fail" verdicts; any other filter keeps
// everything.
func FilterResults(results []RunResult, filter string) []RunResult {
	if filter != "pass" && filter != "fail" {
		return results
	}
	out := make([]RunResult, 0, len(results))
	for _, r := range results {
		if r.Passed() == (filter == "pass") {
			out = append(out, r)
		}
	}
	return out
}

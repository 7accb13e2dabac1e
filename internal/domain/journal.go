package domain

import "time"

// Journal sources tell whether the console started a batch or attached to it.
const (
	JournalStarted  = "started"
	JournalFollowed = "followed"
)

// JournalRun is the console's local record of a batch it watched.
type JournalRun struct {
	ID         string      `json:"id" yaml:"id"`
	BatchID    string      `json:"batch_id" yaml:"batch_id"`
	Source     string      `json:"source" yaml:"source"`
	CaseCount  int         `json:"case_count" yaml:"case_count"`
	Status     BatchStatus `json:"status" yaml:"status"`
	PassCount  int         `json:"pass_count" yaml:"pass_count"`
	FailCount  int         `json:"fail_count" yaml:"fail_count"`
	StartedAt  time.Time   `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Run message tags pushed by the backend on the batch channel.
const (
	MsgInit        = "init"
	MsgRunning     = "running"
	MsgUpdate      = "update"
	MsgBatchStatus = "batch_status"
	MsgLog         = "log"
	MsgDone        = "done"
	MsgError       = "error"
)

// ErrUnknownMessage is returned for a well-formed message with an unknown tag.
var ErrUnknownMessage = errors.New("unknown run message type")

// RunMessageBase carries the tag every run message has.
type RunMessageBase struct {
	Type string `json:"type"`
}

// InitMessage announces the cases of the batch.
type InitMessage struct {
	RunMessageBase
	Cases []CaseRef `json:"cases"`
}

// RunningMessage says a case started executing.
type RunningMessage struct {
	RunMessageBase
	CaseID int `json:"case_id"`
}

// UpdateMessage carries the verdict for a case.
type UpdateMessage struct {
	RunMessageBase
	CaseID int       `json:"case_id"`
	Result RunResult `json:"result"`
}

// Status maps the backend verdict to a runner status.
func (m UpdateMessage) Status() CaseStatus {
	if m.Result.Result == CaseStatusPass {
		return CaseStatusPass
	}
	return CaseStatusFail
}

// BatchStatusMessage reports batch progress. Live progress uses total and
// completed; the snapshot sent on connect uses status, total_count and
// pass_count.
type BatchStatusMessage struct {
	RunMessageBase
	Status     BatchStatus `json:"status,omitempty"`
	Total      int         `json:"total,omitempty"`
	Completed  int         `json:"completed,omitempty"`
	TotalCount int         `json:"total_count,omitempty"`
	PassCount  int         `json:"pass_count,omitempty"`
	StartTime  *Timestamp  `json:"start_time,omitempty"`
}

// LogMessage is a free-form line for the log feed.
type LogMessage struct {
	RunMessageBase
	Message string   `json:"message"`
	Level   LogLevel `json:"level,omitempty"`
}

// DoneMessage ends the batch.
type DoneMessage struct {
	RunMessageBase
}

// ErrorMessage reports a batch-level failure.
type ErrorMessage struct {
	RunMessageBase
	Message string `json:"message"`
}

// ParseRunMessage decodes raw channel data into the typed message for its tag.
func ParseRunMessage(data []byte) (any, error) {
	var base RunMessageBase
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("failed to parse run message: %w", err)
	}

	if base.Type == "" {
		return nil, fmt.Errorf("missing message type")
	}

	switch base.Type {
	case MsgInit:
		var msg InitMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse init message: %w", err)
		}
		return &msg, nil

	case MsgRunning:
		var msg RunningMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse running message: %w", err)
		}
		return &msg, nil

	case MsgUpdate:
		var msg UpdateMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse update message: %w", err)
		}
		if msg.CaseID == 0 {
			msg.CaseID = msg.Result.CaseID
		}
		return &msg, nil

	case MsgBatchStatus:
		var msg BatchStatusMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse batch_status message: %w", err)
		}
		return &msg, nil

	case MsgLog:
		var msg LogMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse log message: %w", err)
		}
		return &msg, nil

	case MsgDone:
		return &DoneMessage{RunMessageBase: base}, nil

	case MsgError:
		var msg ErrorMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse error message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, base.Type)
	}
}

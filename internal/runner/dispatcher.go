package runner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/ports"
)

const (
	msgRunFinished  = "Run finished."
	defaultVerdict  = "Done"
	unknownTypeNote = "ignoring run message"
)

// Dispatcher applies push channel messages to a Store.
type Dispatcher struct {
	store   *Store
	logger  *zap.Logger
	metrics ports.ConsoleMetrics
}

func NewDispatcher(store *Store, logger *zap.Logger, metrics ports.ConsoleMetrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{store: store, logger: logger, metrics: metrics}
}

// Handle applies one raw frame. It reports true when the batch is over
// (done or a batch-level error) and the channel should be closed. Malformed frames are logged and dropped.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) bool {
	msg, err := domain.ParseRunMessage(data)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownMessage) {
			d.logger.Debug(unknownTypeNote, zap.Error(err))
		} else {
			d.logger.Warn("failed to parse run message", zap.Error(err), zap.ByteString("data", truncate(data, 256)))
		}
		return false
	}
	return d.Apply(ctx, msg)
}

// Apply dispatches an already parsed message.
func (d *Dispatcher) Apply(ctx context.Context, msg any) bool {
	switch m := msg.(type) {
	case *domain.InitMessage:
		d.count(ctx, domain.MsgInit)
		d.store.ReplaceCases(refsToCases(m.Cases))

	case *domain.RunningMessage:
		d.count(ctx, domain.MsgRunning)
		d.store.UpdateCaseStatus(m.CaseID, domain.CaseStatusRunning)

	case *domain.UpdateMessage:
		d.count(ctx, domain.MsgUpdate)
		status := m.Status()
		d.store.UpdateCaseStatus(m.CaseID, status)
		d.store.RecordResult(withCaseID(m.Result, m.CaseID))

		text := m.Result.Message
		if text == "" {
			text = defaultVerdict
		}
		level := domain.LevelInfo
		if status == domain.CaseStatusFail {
			level = domain.LevelError
		}
		d.store.AddLog(fmt.Sprintf("[%s] #%d: %s", status, m.CaseID, text), level)

	case *domain.BatchStatusMessage:
		d.count(ctx, domain.MsgBatchStatus)
		if total := m.Total; total > 0 {
			d.store.UpdateProgress(domain.Percent(m.Completed, total))
		}
		if m.Status != "" {
			d.store.SetBatchStatus(m.Status)
			if m.Status.IsTerminal() {
				d.store.StopRun()
			}
		}

	case *domain.LogMessage:
		d.count(ctx, domain.MsgLog)
		d.store.AddLog(m.Message, domain.ParseLogLevel(string(m.Level)))

	case *domain.DoneMessage:
		d.count(ctx, domain.MsgDone)
		d.store.StopRun()
		d.store.AddLog(msgRunFinished, domain.LevelInfo)
		return true

	case *domain.ErrorMessage:
		d.count(ctx, domain.MsgError)
		d.store.AddLog(m.Message, domain.LevelError)
		d.store.SetBatchStatus(domain.BatchFailed)
		d.store.StopRun()
		return true

	default:
		d.logger.Debug(unknownTypeNote, zap.String("type", fmt.Sprintf("%T", msg)))
	}
	return false
}

func (d *Dispatcher) count(ctx context.Context, msgType string) {
	if d.metrics != nil {
		d.metrics.RecordRunMessage(ctx, msgType)
	}
}

func refsToCases(refs []domain.CaseRef) []domain.TestCase {
	return domain.RunTicket{Cases: refs}.RuntimeCases()
}

func withCaseID(r domain.RunResult, id int) domain.RunResult {
	if r.CaseID == 0 {
		r.CaseID = id
	}
	return r
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

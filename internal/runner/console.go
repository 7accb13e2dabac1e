package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/ports"
)

// ErrNoActiveRun is returned by Stop when nothing is being followed.
var ErrNoActiveRun = errors.New("no active run")

// Console drives a run end to end: it asks the backend to start or stop a
// batch, seeds the store, and keeps at most one follower streaming into it.
type Console struct {
	api      ports.RunService
	store    *Store
	follower *Follower
	journal  ports.RunJournal
	metrics  ports.ConsoleMetrics
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type ConsoleOption func(*Console)

func WithConsoleJournal(j ports.RunJournal) ConsoleOption {
	return func(c *Console) { c.journal = j }
}

func WithConsoleMetrics(m ports.ConsoleMetrics) ConsoleOption {
	return func(c *Console) { c.metrics = m }
}

func WithConsoleLogger(l *zap.Logger) ConsoleOption {
	return func(c *Console) { c.logger = l }
}

func NewConsole(api ports.RunService, store *Store, follower *Follower, opts ...ConsoleOption) *Console {
	c := &Console{
		api:      api,
		store:    store,
		follower: follower,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "console"))
	return c
}

// Store exposes the runner state for readers.
func (c *Console) Store() *Store {
	return c.store
}

// Start asks the backend to run caseIDs and resets the store to the new
// batch. cases is used for the runner rows when the backend does not echo
// the case list.
func (c *Console) Start(ctx context.Context, caseIDs []int, cases []domain.TestCase) (*domain.RunTicket, error) {
	ticket, err := c.api.StartRun(ctx, caseIDs)
	if err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}

	runtime := ticket.RuntimeCases()
	if len(runtime) == 0 {
		runtime = cases
	}

	c.stopFollowing()
	c.store.StartRun(runtime, ticket.BatchID)
	if c.metrics != nil {
		c.metrics.RecordRunStarted(ctx, len(runtime))
	}
	c.record(ctx, ticket.BatchID, domain.JournalStarted, len(runtime))

	c.logger.Info("run started", zap.String("batch_id", ticket.BatchID), zap.Int("cases", len(runtime)))
	return ticket, nil
}

// Attach loads an already running batch into the store, restoring the
// verdicts the backend has recorded so far.
func (c *Console) Attach(ctx context.Context, batch domain.ActiveBatch) error {
	history, err := c.api.RunHistory(ctx, batch.BatchID)
	if err != nil {
		return fmt.Errorf("loading history of %s: %w", batch.BatchID, err)
	}

	cases := make([]domain.TestCase, len(history))
	for i, r := range history {
		cases[i] = domain.TestCase{ID: r.CaseID, Question: r.Question, ExpectedSQL: r.ExpectedSQL, IsActive: true}
	}

	c.stopFollowing()
	c.store.StartRun(cases, batch.BatchID)
	for _, r := range history {
		status := domain.CaseStatusFail
		if r.Passed() {
			status = domain.CaseStatusPass
		}
		c.store.UpdateCaseStatus(r.CaseID, status)
		c.store.RecordResult(r)
	}
	c.store.UpdateProgress(batch.Progress())
	c.record(ctx, batch.BatchID, domain.JournalFollowed, batch.TotalCount)

	c.logger.Info("attached to batch", zap.String("batch_id", batch.BatchID), zap.Int("completed", batch.CompletedCount))
	return nil
}

// Restore attaches to the most recent batch the backend still runs. It
// returns nil when there is none.
func (c *Console) Restore(ctx context.Context) (*domain.ActiveBatch, error) {
	batches, err := c.api.ActiveBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active batches: %w", err)
	}
	if len(batches) == 0 {
		return nil, nil
	}
	latest := batches[0]
	if err := c.Attach(ctx, latest); err != nil {
		return nil, err
	}
	return &latest, nil
}

// Stop signals the active batch to stop and returns the backend's answer.
func (c *Console) Stop(ctx context.Context) (string, error) {
	batchID := c.store.ActiveBatchID()
	if batchID == "" {
		return "", ErrNoActiveRun
	}

	msg, err := c.api.StopRun(ctx, batchID)
	if err != nil {
		return "", fmt.Errorf("stopping %s: %w", batchID, err)
	}

	c.store.StopRun()
	c.store.SetBatchStatus(domain.BatchStopped)
	c.store.AddLog(fmt.Sprintf("Stop requested: %s", msg), domain.LevelWarn)

	if c.journal != nil {
		pass, fail, _ := c.store.Snapshot().Counts()
		if err := c.journal.FinishRun(ctx, batchID, domain.BatchStopped, pass, fail); err != nil {
			c.logger.Warn("failed to journal stop", zap.String("batch_id", batchID), zap.Error(err))
		}
	}
	return msg, nil
}

// Follow streams batchID in the calling goroutine.
func (c *Console) Follow(ctx context.Context, batchID string) error {
	return c.follower.Follow(ctx, batchID)
}

// FollowInBackground replaces any running follower with one for batchID.
// It stops when parent is done or the batch ends.
func (c *Console) FollowInBackground(parent context.Context, batchID string) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	c.mu.Lock()
	prevCancel, prevDone := c.cancel, c.done
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		// The previous follower must release the store before this one writes to it.
		if prevCancel != nil {
			prevCancel()
			<-prevDone
		}
		if err := c.follower.Follow(ctx, batchID); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("follower stopped", zap.String("batch_id", batchID), zap.Error(err))
		}
	}()
}

// Wait blocks until the background follower, if any, has returned.
func (c *Console) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Console) stopFollowing() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (c *Console) record(ctx context.Context, batchID, source string, caseCount int) {
	if c.journal == nil {
		return
	}
	run := &domain.JournalRun{
		ID:        uuid.NewString(),
		BatchID:   batchID,
		Source:    source,
		CaseCount: caseCount,
		Status:    domain.BatchRunning,
		StartedAt: c.now().UTC(),
	}
	if err := c.journal.RecordRun(ctx, run); err != nil {
		c.logger.Warn("failed to journal run", zap.String("batch_id", batchID), zap.Error(err))
	}
}

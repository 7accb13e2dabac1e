package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/domain"
	"github.com/emiliopalmerini/helix-console/internal/ports"
)

// DefaultReconnectDelay is the pause before the single redial after a
// channel drops mid-run.
const DefaultReconnectDelay = 3 * time.Second

const msgChannelError = "Push channel connection error"

// Follower streams one batch's push channel into a Store.
type Follower struct {
	dialer         ports.RunChannelDialer
	store          *Store
	dispatcher     *Dispatcher
	journal        ports.RunJournal
	logger         *zap.Logger
	reconnectDelay time.Duration
}

type FollowerOption func(*Follower)

func WithReconnectDelay(d time.Duration) FollowerOption {
	return func(f *Follower) { f.reconnectDelay = d }
}

func WithJournal(j ports.RunJournal) FollowerOption {
	return func(f *Follower) { f.journal = j }
}

func WithLogger(l *zap.Logger) FollowerOption {
	return func(f *Follower) { f.logger = l }
}

func NewFollower(dialer ports.RunChannelDialer, store *Store, dispatcher *Dispatcher, opts ...FollowerOption) *Follower {
	f := &Follower{
		dialer:         dialer,
		store:          store,
		dispatcher:     dispatcher,
		logger:         zap.NewNop(),
		reconnectDelay: DefaultReconnectDelay,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(zap.String("component", "follower"))
	return f
}

// Follow opens the channel for batchID and applies messages until the batch
// is done, ctx is cancelled or the channel is lost for good. When the
// channel drops while the run is still active it waits the reconnect delay
// and dials once more.
func (f *Follower) Follow(ctx context.Context, batchID string) error {
	ch, err := f.open(ctx, batchID)
	if err != nil {
		return err
	}

	for {
		data, err := ch.ReadMessage(ctx)
		if err != nil {
			_ = ch.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}

			f.logger.Warn("channel lost", zap.String("batch_id", batchID), zap.Error(err))
			f.store.AddLog(msgChannelError, domain.LevelError)
			if !f.store.Running() {
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.reconnectDelay):
			}
			if !f.store.Running() {
				return nil
			}

			f.logger.Info("reconnecting", zap.String("batch_id", batchID))
			ch, err = f.open(ctx, batchID)
			if err != nil {
				return err
			}
			continue
		}

		if f.dispatcher.Handle(ctx, data) {
			_ = ch.Close()
			f.finish(ctx, batchID)
			return nil
		}
	}
}

func (f *Follower) open(ctx context.Context, batchID string) (ports.RunChannel, error) {
	ch, err := f.dialer.Dial(ctx, batchID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.store.AddLog(msgChannelError, domain.LevelError)
		return nil, fmt.Errorf("opening channel for %s: %w", batchID, err)
	}
	f.store.AddLog(fmt.Sprintf("Connected to live log stream: %s", batchID), domain.LevelInfo)
	return ch, nil
}

// finish closes the journal record with the verdicts seen on the feed.
func (f *Follower) finish(ctx context.Context, batchID string) {
	if f.journal == nil {
		return
	}
	snap := f.store.Snapshot()
	pass, fail, _ := snap.Counts()
	status := snap.BatchStatus
	if !status.IsTerminal() {
		status = domain.BatchCompleted
	}
	if err := f.journal.FinishRun(ctx, batchID, status, pass, fail); err != nil && !errors.Is(err, context.Canceled) {
		f.logger.Warn("failed to journal run result", zap.String("batch_id", batchID), zap.Error(err))
	}
}

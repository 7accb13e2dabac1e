package app

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

// Server is the HTTP side of serve; it returns once ctx is done.
type Server interface {
	Start(ctx context.Context) error
}

// Monitor keeps the backend health status fresh until ctx is done.
type Monitor interface {
	Run(ctx context.Context) error
}

// Restorer picks up a batch that was already running when serve started.
// *runner.Console implements it.
type Restorer interface {
	Restore(ctx context.Context) (*domain.ActiveBatch, error)
	FollowInBackground(parent context.Context, batchID string)
	Wait()
}

// Runtime runs the long-lived parts of serve under one errgroup: the web
// server, the health poller and the active batch restore.
type Runtime struct {
	Server   Server
	Monitor  Monitor
	Restorer Restorer
	Logger   *zap.Logger
}

// Run blocks until ctx is done or one component fails, then waits for the
// background follower to return.
func (r *Runtime) Run(ctx context.Context) error {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.Server.Start(gctx)
	})
	if r.Monitor != nil {
		g.Go(func() error {
			return r.Monitor.Run(gctx)
		})
	}
	if r.Restorer != nil {
		g.Go(func() error {
			r.restore(gctx, logger)
			return nil
		})
	}

	err := g.Wait()
	if r.Restorer != nil {
		r.Restorer.Wait()
	}
	return err
}

// restore failures are logged; the console stays usable without them.
func (r *Runtime) restore(ctx context.Context, logger *zap.Logger) {
	batch, err := r.Restorer.Restore(ctx)
	if err != nil {
		logger.Warn("could not restore active batch", zap.Error(err))
		return
	}
	if batch == nil {
		logger.Debug("no active batch to restore")
		return
	}
	logger.Info("restored active batch", zap.String("batch_id", batch.BatchID), zap.Int("progress", batch.Progress()))
	r.Restorer.FollowInBackground(ctx, batch.BatchID)
}

package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

type blockingServer struct {
	err error
}

func (s blockingServer) Start(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return nil
}

type countingMonitor struct {
	mu    sync.Mutex
	calls int
}

func (p *countingMonitor) Run(ctx context.Context) error {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	<-ctx.Done()
	return nil
}

type fakeRestorer struct {
	batch *domain.ActiveBatch
	err   error

	mu       sync.Mutex
	followed []string
	waited   bool
	done     chan struct{}
}

func (f *fakeRestorer) Restore(context.Context) (*domain.ActiveBatch, error) {
	return f.batch, f.err
}

func (f *fakeRestorer) FollowInBackground(ctx context.Context, batchID string) {
	f.mu.Lock()
	f.followed = append(f.followed, batchID)
	f.done = make(chan struct{})
	done := f.done
	f.mu.Unlock()
	go func() {
		defer close(done)
		<-ctx.Done()
	}()
}

func (f *fakeRestorer) Wait() {
	f.mu.Lock()
	f.waited = true
	done := f.done
	f.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (f *fakeRestorer) followedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.followed...)
}

func TestRunRestoresAndStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	restorer := &fakeRestorer{batch: &domain.ActiveBatch{BatchID: "B-1", TotalCount: 2, CompletedCount: 1}}
	monitor := &countingMonitor{}
	rt := &Runtime{Server: blockingServer{}, Monitor: monitor, Restorer: restorer}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- rt.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(restorer.followedIDs()) == 0 {
		select {
		case <-deadline:
			t.Fatal("restored batch was not followed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-errCh; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := restorer.followedIDs(); len(got) != 1 || got[0] != "B-1" {
		t.Errorf("followed = %v", got)
	}
	if !restorer.waited {
		t.Error("Run should wait for the follower")
	}
	if monitor.calls != 1 {
		t.Errorf("monitor calls = %d", monitor.calls)
	}
}

func TestRunNothingToRestore(t *testing.T) {
	defer goleak.VerifyNone(t)

	restorer := &fakeRestorer{err: errors.New("backend down")}
	rt := &Runtime{Server: blockingServer{}, Restorer: restorer}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := rt.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := restorer.followedIDs(); len(got) != 0 {
		t.Errorf("followed = %v", got)
	}
}

func TestRunServerFailureStopsEverything(t *testing.T) {
	defer goleak.VerifyNone(t)

	listenErr := errors.New("address already in use")
	rt := &Runtime{Server: blockingServer{err: listenErr}, Monitor: &countingMonitor{}}

	if err := rt.Run(context.Background()); !errors.Is(err, listenErr) {
		t.Fatalf("Run() error = %v, want %v", err, listenErr)
	}
}

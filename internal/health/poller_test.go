package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/emiliopalmerini/helix-console/internal/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPoller_CheckRecordsStatus(t *testing.T) {
	healthy := true
	api := &ports.MockHelixAPI{
		HealthFunc: func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("connection refused")
		},
	}
	p := NewPoller(api, time.Second, nil)

	if p.Status().Connected {
		t.Fatal("expected disconnected before the first check")
	}

	st := p.Check(context.Background())
	if !st.Connected || st.LastChecked.IsZero() {
		t.Errorf("expected connected with a check time, got %+v", st)
	}

	healthy = false
	st = p.Check(context.Background())
	if st.Connected || st.LastError != "connection refused" {
		t.Errorf("expected disconnected with error, got %+v", st)
	}
	if p.Status() != st {
		t.Errorf("Status() = %+v, want %+v", p.Status(), st)
	}
}

func TestPoller_RunTicksUntilCancel(t *testing.T) {
	var calls atomic.Int32
	api := &ports.MockHelixAPI{
		HealthFunc: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	}
	p := NewPoller(api, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	if calls.Load() < 3 {
		t.Errorf("expected at least 3 checks, got %d", calls.Load())
	}
}

func TestNewPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(&ports.MockHelixAPI{}, 0, nil)
	if p.interval != DefaultInterval {
		t.Errorf("expected %s, got %s", DefaultInterval, p.interval)
	}
}

package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/ports"
)

// DefaultInterval is how often the backend health check runs.
const DefaultInterval = 5 * time.Second

// Status is the last known reachability of the backend.
type Status struct {
	Connected   bool
	LastChecked time.Time
	LastError   string
}

// Poller checks the backend on a fixed interval.
type Poller struct {
	checker  ports.HealthChecker
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.RWMutex
	status Status
}

func NewPoller(checker ports.HealthChecker, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		checker:  checker,
		interval: interval,
		logger:   logger.With(zap.String("component", "health")),
		now:      time.Now,
	}
}

// Run checks immediately, then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

// Check runs one health check and records the outcome.
func (p *Poller) Check(ctx context.Context) Status {
	checkCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	err := p.checker.Health(checkCtx)
	st := Status{Connected: err == nil, LastChecked: p.now()}
	if err != nil {
		st.LastError = err.Error()
	}

	p.mu.Lock()
	changed := p.status.Connected != st.Connected || p.status.LastChecked.IsZero()
	p.status = st
	p.mu.Unlock()

	if changed {
		if st.Connected {
			p.logger.Info("backend connected")
		} else {
			p.logger.Warn("backend disconnected", zap.String("error", st.LastError))
		}
	}
	return st
}

// Status returns the last recorded check result.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

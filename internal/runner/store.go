package runner

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/helix-console/internal/domain"
)

// State is the runner view model: the cases of the active batch, their
// statuses and the log feed.
type State struct {
	Running       bool
	Progress      int
	Logs          []domain.LogEntry
	ActiveBatchID string
	BatchStatus   domain.BatchStatus
	Cases         []domain.TestCase
	Results       map[int]domain.RunResult
}

// Counts tallies the verdicts reached so far.
func (s State) Counts() (pass, fail, pending int) {
	for _, c := range s.Cases {
		switch c.Status {
		case domain.CaseStatusPass:
			pass++
		case domain.CaseStatusFail:
			fail++
		default:
			pending++
		}
	}
	return pass, fail, pending
}

// LogSink receives every entry appended to the feed, outside the store lock.
type LogSink func(batchID string, entry domain.LogEntry)

// Store is a single-writer state container. The follower mutates it; web
// handlers and the TUI read snapshots.
type Store struct {
	mu    sync.RWMutex
	state State

	subsMu  sync.Mutex
	subs    map[int]chan struct{}
	nextSub int

	sink  LogSink
	now   func() time.Time
	newID func() string
}

type StoreOption func(*Store)

// WithLogSink forwards feed entries, e.g. to the run journal.
func WithLogSink(sink LogSink) StoreOption {
	return func(s *Store) { s.sink = sink }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		subs:  make(map[int]chan struct{}),
		now:   time.Now,
		newID: func() string { return uuid.NewString()[:8] },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartRun enters the running state for batchID with every case WAITING.
// An empty batchID gets a local BATCH-<unix millis> identifier.
func (s *Store) StartRun(cases []domain.TestCase, batchID string) {
	s.mu.Lock()
	if batchID == "" {
		batchID = fmt.Sprintf("BATCH-%d", s.now().UnixMilli())
	}
	s.state = State{
		Running:       true,
		Progress:      0,
		Logs:          nil,
		ActiveBatchID: batchID,
		BatchStatus:   domain.BatchRunning,
		Cases:         waiting(cases),
		Results:       make(map[int]domain.RunResult),
	}
	s.mu.Unlock()
	s.notify()
}

// StopRun marks the run inactive and keeps everything else for display.
func (s *Store) StopRun() {
	s.mu.Lock()
	s.state.Running = false
	s.mu.Unlock()
	s.notify()
}

// AddLog appends an entry to the feed. An empty level means INFO.
func (s *Store) AddLog(message string, level domain.LogLevel) {
	if level == "" {
		level = domain.LevelInfo
	}
	entry := domain.LogEntry{
		ID:        s.newID(),
		Timestamp: s.now(),
		Level:     level,
		Message:   message,
	}

	s.mu.Lock()
	s.state.Logs = append(s.state.Logs, entry)
	batchID := s.state.ActiveBatchID
	s.mu.Unlock()

	if s.sink != nil {
		s.sink(batchID, entry)
	}
	s.notify()
}

// UpdateCaseStatus sets the status of the case with id. Unknown ids are
// ignored.
func (s *Store) UpdateCaseStatus(id int, status domain.CaseStatus) {
	s.mu.Lock()
	changed := false
	for i := range s.state.Cases {
		if s.state.Cases[i].ID == id {
			s.state.Cases[i].Status = status
			changed = true
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// RecordResult keeps the latest verdict detail of a known case.
func (s *Store) RecordResult(res domain.RunResult) {
	s.mu.Lock()
	known := false
	for _, c := range s.state.Cases {
		if c.ID == res.CaseID {
			known = true
			break
		}
	}
	if known {
		if s.state.Results == nil {
			s.state.Results = make(map[int]domain.RunResult)
		}
		s.state.Results[res.CaseID] = res
	}
	s.mu.Unlock()
}

// ReplaceCases swaps the runtime case list, all WAITING.
func (s *Store) ReplaceCases(cases []domain.TestCase) {
	s.mu.Lock()
	s.state.Cases = waiting(cases)
	s.state.Results = make(map[int]domain.RunResult)
	s.mu.Unlock()
	s.notify()
}

// UpdateProgress sets progress, clamped to 0..100.
func (s *Store) UpdateProgress(p int) {
	switch {
	case p < 0:
		p = 0
	case p > 100:
		p = 100
	}
	s.mu.Lock()
	s.state.Progress = p
	s.mu.Unlock()
	s.notify()
}

// SetBatchStatus records the server-side lifecycle of the batch.
func (s *Store) SetBatchStatus(status domain.BatchStatus) {
	s.mu.Lock()
	s.state.BatchStatus = status
	s.mu.Unlock()
	s.notify()
}

// Reset returns to the idle state.
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy that shares no memory with the store.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.state
	out.Logs = append([]domain.LogEntry(nil), s.state.Logs...)
	out.Cases = append([]domain.TestCase(nil), s.state.Cases...)
	out.Results = make(map[int]domain.RunResult, len(s.state.Results))
	for k, v := range s.state.Results {
		out.Results[k] = v
	}
	return out
}

// Running reports whether a run is active.
func (s *Store) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Running
}

// ActiveBatchID returns the batch being followed, if any.
func (s *Store) ActiveBatchID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActiveBatchID
}

// Subscribe returns a channel that receives a value after each change.
// Notifications coalesce; readers call Snapshot to see the latest state.
// The cancel func closes the channel.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			close(ch)
			s.subsMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func waiting(cases []domain.TestCase) []domain.TestCase {
	out := make([]domain.TestCase, len(cases))
	for i, c := range cases {
		c.Status = domain.CaseStatusWaiting
		out[i] = c
	}
	return out
}

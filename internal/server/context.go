package server

import (
	"context"
	"sync"
	"time"

	"github.com/teemow/meetingsync/internal/reconcile"
)

// RunSnapshot describes the most recent reconciliation run.
type RunSnapshot struct {
	RunID    string         `json:"run_id,omitempty"`
	Started  time.Time      `json:"started"`
	Duration string         `json:"duration"`
	Events   int            `json:"events"`
	Outcomes map[string]int `json:"outcomes,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// RunState tracks the serve loop: its lifetime context and the runs it has
// executed.
type RunState struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	shutdown bool
	running  bool
	runs     int
	failures int
	last     *RunSnapshot
}

// NewRunState creates a RunState whose context is cancelled by Shutdown.
func NewRunState(ctx context.Context) *RunState {
	ctx, cancel := context.WithCancel(ctx)
	return &RunState{ctx: ctx, cancel: cancel}
}

// Context returns the serve loop context.
func (s *RunState) Context() context.Context {
	return s.ctx
}

// Begin marks a run as in flight. It returns false when a run is already
// in flight or the state is shut down.
func (s *RunState) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.shutdown {
		return false
	}
	s.running = true
	return true
}

// End records the outcome of the run started by Begin.
func (s *RunState) End(report *reconcile.RunReport, err error) {
	snap := &RunSnapshot{}
	if report != nil {
		snap.RunID = report.RunID
		snap.Started = report.Started
		snap.Duration = report.Duration.Truncate(time.Millisecond).String()
		snap.Events = report.Events
		snap.Outcomes = make(map[string]int, len(report.Outcomes))
		for k, v := range report.Outcomes {
			snap.Outcomes[k] = v
		}
	}
	if err != nil {
		snap.Error = err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.runs++
	if err != nil {
		s.failures++
	}
	s.last = snap
}

// Running reports whether a run is in flight.
func (s *RunState) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Counts returns the number of completed and failed runs.
func (s *RunState) Counts() (runs, failures int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs, s.failures
}

// Last returns a copy of the last run snapshot, or nil before the first run.
func (s *RunState) Last() *RunSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	cp := *s.last
	return &cp
}

// IsShutdown returns whether Shutdown has been called.
func (s *RunState) IsShutdown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shutdown
}

// Shutdown cancels the serve loop context. It is idempotent.
func (s *RunState) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return
	}
	s.shutdown = true
	s.cancel()
}

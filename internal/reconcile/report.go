package reconcile

import (
	"log/slog"
	"sort"
	"time"

	"github.com/teemow/meetingsync/internal/logging"
)

// RunReport summarizes one reconciliation run.
type RunReport struct {
	RunID    string
	Started  time.Time
	Duration time.Duration

	Users        int
	UserFailures int
	Events       int

	// Outcomes counts processed events by instrumentation outcome.
	Outcomes map[string]int
}

func newRunReport(runID string, started time.Time) *RunReport {
	return &RunReport{RunID: runID, Started: started, Outcomes: make(map[string]int)}
}

func (r *RunReport) add(outcome string) {
	r.Events++
	r.Outcomes[outcome]++
}

// Count returns the number of events that ended with outcome.
func (r RunReport) Count(outcome string) int {
	return r.Outcomes[outcome]
}

// LogAttrs returns the report counters as slog attributes. The run ID is
// left to the run-scoped logger.
func (r RunReport) LogAttrs() []any {
	attrs := []any{
		slog.Duration(logging.KeyDuration, r.Duration),
		slog.Int("users", r.Users),
		slog.Int("user_failures", r.UserFailures),
		slog.Int("events", r.Events),
	}

	outcomes := make([]string, 0, len(r.Outcomes))
	for o := range r.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		attrs = append(attrs, slog.Int(o, r.Outcomes[o]))
	}
	return attrs
}

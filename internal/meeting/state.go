package meeting

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle position of an event.
type State int

const (
	// StateCreated applies to events with no tracking record yet.
	StateCreated State = iota
	// StateAwaitingWindow means the meeting has not ended (plus offset).
	StateAwaitingWindow
	// StateAwaitingTranscript means the transcript may be fetched.
	StateAwaitingTranscript
	// StateFinalized is terminal: a summary was delivered or the transcript
	// was declared not found.
	StateFinalized
)

var stateNames = map[State]string{
	StateCreated:            "created",
	StateAwaitingWindow:     "awaiting_window",
	StateAwaitingTranscript: "awaiting_transcript",
	StateFinalized:          "finalized",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ParseState converts a state name back into a State.
func ParseState(name string) (State, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}

// WindowElapsed reports whether transcript retrieval is unlocked. Once the
// previous value is true it stays true.
func WindowElapsed(previous bool, end, now time.Time, offset time.Duration) bool {
	if previous {
		return true
	}
	return now.Add(-offset).After(end)
}

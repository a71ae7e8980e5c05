package task

import "strings"

// State is the server-side state of a queued task.
// Unknown values reported by the server are kept verbatim.
type State string

// State values reported by the runqy server.
const (
	StatePending     State = "pending"
	StateQueued      State = "queued"
	StateScheduled   State = "scheduled"
	StateActive      State = "active"
	StateRunning     State = "running"
	StateRetry       State = "retry"
	StateAggregating State = "aggregating"
	StateArchived    State = "archived"
	StateCompleted   State = "completed"
	StateSucceeded   State = "succeeded"
	StateFailed      State = "failed"
)

// ParseState normalises a state string reported by the server.
func ParseState(s string) State {
	return State(strings.ToLower(strings.TrimSpace(s)))
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal returns true if the state represents a terminal (final) state.
func (s State) IsTerminal() bool {
	return s == StateCompleted ||
		s == StateSucceeded ||
		s == StateFailed ||
		s == StateArchived
}

// IsSuccessful returns true if the task finished without error.
func (s State) IsSuccessful() bool {
	return s == StateCompleted || s == StateSucceeded
}

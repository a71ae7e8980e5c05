package service

import "fmt"

// Phase is a lifecycle phase of the task runtime.
type Phase int

// Phase values, in lifecycle order.
const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseReady
	PhaseServing
	PhaseTerminated
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseServing:
		return "serving"
	case PhaseTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// IsTerminal reports whether no further transitions are possible.
func (p Phase) IsTerminal() bool {
	return p == PhaseTerminated
}

// CanTransition reports whether the lifecycle allows moving from p to next.
// Loading is optional, Serving repeats once per task, and any started phase
// may terminate.
func (p Phase) CanTransition(next Phase) bool {
	switch p {
	case PhaseUninitialized:
		return next == PhaseLoading || next == PhaseReady
	case PhaseLoading:
		return next == PhaseReady || next == PhaseTerminated
	case PhaseReady:
		return next == PhaseServing || next == PhaseTerminated
	case PhaseServing:
		return next == PhaseServing || next == PhaseTerminated
	default:
		return false
	}
}

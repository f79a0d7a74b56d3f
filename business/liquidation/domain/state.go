package domain

// State is the settlement orchestrator's position in its lifecycle. One
// invocation moves strictly forward; Aborted is terminal and reachable from
// any non-terminal state.
type State string

const (
	StateIdle             State = "idle"
	StateSizing           State = "sizing"
	StateBorrowRequested  State = "borrow_requested"
	StateAwaitingCallback State = "awaiting_callback"
	StateRepaid           State = "repaid"
	StateCompleted        State = "completed"
	StateAborted          State = "aborted"
)

// next lists the forward transition for each non-terminal state.
var next = map[State]State{
	StateIdle:             StateSizing,
	StateSizing:           StateBorrowRequested,
	StateBorrowRequested:  StateAwaitingCallback,
	StateAwaitingCallback: StateRepaid,
	StateRepaid:           StateCompleted,
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateAborted
}

// CanTransition reports whether moving from s to to is legal: the single
// forward step, or aborting from any non-terminal state.
func (s State) CanTransition(to State) bool {
	if s.IsTerminal() {
		return false
	}
	if to == StateAborted {
		return true
	}
	return next[s] == to
}

func (s State) String() string {
	return string(s)
}

package domain

import "testing"

func TestState_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{name: "idle_to_sizing", from: StateIdle, to: StateSizing, want: true},
		{name: "sizing_to_borrow_requested", from: StateSizing, to: StateBorrowRequested, want: true},
		{name: "borrow_requested_to_awaiting", from: StateBorrowRequested, to: StateAwaitingCallback, want: true},
		{name: "awaiting_to_repaid", from: StateAwaitingCallback, to: StateRepaid, want: true},
		{name: "repaid_to_completed", from: StateRepaid, to: StateCompleted, want: true},

		{name: "no_skipping_forward", from: StateIdle, to: StateBorrowRequested, want: false},
		{name: "no_moving_backward", from: StateRepaid, to: StateSizing, want: false},
		{name: "no_self_transition", from: StateSizing, to: StateSizing, want: false},

		{name: "abort_from_idle", from: StateIdle, to: StateAborted, want: true},
		{name: "abort_from_awaiting", from: StateAwaitingCallback, to: StateAborted, want: true},
		{name: "abort_from_repaid", from: StateRepaid, to: StateAborted, want: true},

		{name: "completed_is_terminal", from: StateCompleted, to: StateAborted, want: false},
		{name: "aborted_is_terminal", from: StateAborted, to: StateIdle, want: false},
		{name: "no_reviving_aborted", from: StateAborted, to: StateSizing, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestState_IsTerminal(t *testing.T) {
	for _, s := range []State{StateIdle, StateSizing, StateBorrowRequested, StateAwaitingCallback, StateRepaid} {
		if s.IsTerminal() {
			t.Errorf("IsTerminal(%s) = true, want false", s)
		}
	}
	for _, s := range []State{StateCompleted, StateAborted} {
		if !s.IsTerminal() {
			t.Errorf("IsTerminal(%s) = false, want true", s)
		}
	}
}

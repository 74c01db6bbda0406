package uthread

import (
	"testing"
)

func TestThreadState_String(t *testing.T) {
	tests := []struct {
		state    ThreadState
		expected string
	}{
		{StateRunning, "RUNNING"},
		{StateReady, "READY"},
		{StateBlocked, "BLOCKED"},
		{StateReadySleeping, "READY_SLEEPING"},
		{StateBlockedSleeping, "BLOCKED_SLEEPING"},
		{ThreadState(0), "UNKNOWN"},
		{ThreadState(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("ThreadState(%d).String() = %q, want %q", tt.state, got, tt.expected)
		}
	}
}

func TestThreadState_Predicates(t *testing.T) {
	tests := []struct {
		state    ThreadState
		sleeping bool
		blocked  bool
	}{
		{StateRunning, false, false},
		{StateReady, false, false},
		{StateBlocked, false, true},
		{StateReadySleeping, true, false},
		{StateBlockedSleeping, true, true},
	}

	for _, tt := range tests {
		if got := tt.state.Sleeping(); got != tt.sleeping {
			t.Errorf("%v.Sleeping() = %v, want %v", tt.state, got, tt.sleeping)
		}
		if got := tt.state.Blocked(); got != tt.blocked {
			t.Errorf("%v.Blocked() = %v, want %v", tt.state, got, tt.blocked)
		}
	}
}

package session

import "testing"

func TestRefreshStateTransitions(t *testing.T) {
	tests := []struct {
		name        string
		start       refreshState
		wantState   refreshState
		wantProceed bool
	}{
		{"idle starts a fetch", refreshIdle, refreshRunning, true},
		{"running absorbs into pending", refreshRunning, refreshRunningPending, false},
		{"pending stays pending", refreshRunningPending, refreshRunningPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, proceed := tt.start.request()
			if next != tt.wantState || proceed != tt.wantProceed {
				t.Fatalf("request() = (%v, %v), want (%v, %v)", next, proceed, tt.wantState, tt.wantProceed)
			}
		})
	}
}

func TestRefreshStateFinish(t *testing.T) {
	next, rerun := refreshRunning.finish()
	if next != refreshIdle || rerun {
		t.Fatalf("finish from running = (%v, %v), want (idle, false)", next, rerun)
	}

	next, rerun = refreshRunningPending.finish()
	if next != refreshRunning || !rerun {
		t.Fatalf("finish from pending = (%v, %v), want (running, true)", next, rerun)
	}
}

// A burst of N requests against the pure state machine yields exactly one
// in-flight fetch plus one trailing re-run, independent of N.
func TestRefreshStateBurstCoalesces(t *testing.T) {
	state := refreshIdle
	fetches := 0

	for i := 0; i < 5; i++ {
		next, proceed := state.request()
		state = next
		if proceed {
			fetches++
		}
	}
	for {
		next, rerun := state.finish()
		state = next
		if !rerun {
			break
		}
		fetches++
	}

	if fetches != 2 {
		t.Fatalf("expected 2 fetches for a burst, got %d", fetches)
	}
	if state != refreshIdle {
		t.Fatalf("expected idle after drain, got %v", state)
	}
}

func TestRefreshStateString(t *testing.T) {
	if refreshIdle.String() != "idle" || refreshRunning.String() != "running" {
		t.Fatal("unexpected state names")
	}
	if refreshState(99).String() != "invalid" {
		t.Fatal("expected invalid for out-of-range state")
	}
}

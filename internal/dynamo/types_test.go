package dynamo

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Clone(t *testing.T) {
	a := State{1, 2, 3}
	clone := a.Clone()
	clone[0] = 99
	if a[0] == 99 {
		t.Error("Clone shares storage with the source")
	}
	if len(clone) != len(a) || clone[1] != 2 || clone[2] != 3 {
		t.Errorf("Clone = %v", clone)
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		dir       Direction
		g0, g1    float64
		crossed   bool
		satisfied bool
	}{
		{Falling, 1, -1, true, false},
		{Falling, 1, 0, true, false},
		{Falling, -1, 1, false, true},
		{Falling, 1, 0.5, false, false},
		{Rising, -1, 1, true, false},
		{Rising, 1, -1, false, true},
		{Rising, -1, 0, true, false},
		{Any, 1, -1, true, false},
		{Any, -1, 1, true, false},
		{Any, 0, 0, false, true},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s %g->%g", tt.dir, tt.g0, tt.g1)
		t.Run(name, func(t *testing.T) {
			if got := tt.dir.Crossed(tt.g0, tt.g1); got != tt.crossed {
				t.Errorf("Crossed = %v, want %v", got, tt.crossed)
			}
			if got := tt.dir.Satisfied(tt.g0); got != tt.satisfied {
				t.Errorf("Satisfied(%g) = %v, want %v", tt.g0, got, tt.satisfied)
			}
		})
	}
}

func TestReasonString(t *testing.T) {
	if EventTriggered.String() != "event_triggered" {
		t.Errorf("unexpected %q", EventTriggered.String())
	}
	if HorizonReached.String() != "horizon_reached" {
		t.Errorf("unexpected %q", HorizonReached.String())
	}
	if NonConvergence.String() != "non_convergence" {
		t.Errorf("unexpected %q", NonConvergence.String())
	}
}

func TestParseReason(t *testing.T) {
	for _, r := range []Reason{HorizonReached, EventTriggered, NonConvergence} {
		got, err := ParseReason(r.String())
		if err != nil || got != r {
			t.Errorf("ParseReason(%q) = %v, %v", r.String(), got, err)
		}
	}
	if _, err := ParseReason("timeout"); err == nil {
		t.Error("expected error for unknown reason")
	}
}

func TestTrajectory(t *testing.T) {
	var tr Trajectory
	if _, x := tr.Final(); x != nil {
		t.Error("empty trajectory should have no final state")
	}

	x := State{1, 2}
	tr.Append(0, x)
	x[0] = 5
	tr.Append(0.5, x)

	if tr.Len() != 2 {
		t.Fatalf("expected 2 samples, got %d", tr.Len())
	}
	if tr.States[0][0] != 1 {
		t.Error("Append must copy the state")
	}
	col := tr.Column(0)
	if col[0] != 1 || col[1] != 5 {
		t.Errorf("Column(0) = %v", col)
	}
	tEnd, last := tr.Final()
	if tEnd != 0.5 || last[1] != 2 {
		t.Errorf("Final = %g, %v", tEnd, last)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.InitialDt <= 0 {
		t.Error("DefaultConfig has invalid InitialDt")
	}
	if cfg.Duration <= 0 {
		t.Error("DefaultConfig has invalid Duration")
	}
	if cfg.Tolerance <= 0 {
		t.Error("DefaultConfig has invalid Tolerance")
	}
	if cfg.EventTolerance >= cfg.Tolerance {
		t.Error("event tolerance should be tighter than step tolerance")
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Step: 150, Time: 1.5, Wrapped: fmt.Errorf("%w: budget", ErrNonConvergence)}

	if !errors.Is(err, ErrNonConvergence) {
		t.Error("SimulationError should unwrap to its cause")
	}
	if r, ok := ReasonOf(err); !ok || r != NonConvergence {
		t.Errorf("ReasonOf = %v, %v", r, ok)
	}
	if _, ok := ReasonOf(ErrDomain); ok {
		t.Error("domain errors carry no termination reason")
	}
}

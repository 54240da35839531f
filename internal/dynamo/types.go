package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a first-order ODE x' = f(x, t). Derive must be pure: the
// integrator calls it at trial points that may later be rejected.
type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) (State, error)
}

// AdaptiveIntegrator proposes a step of size dt together with an embedded
// error estimate. accepted reports whether the scaled error is within tol;
// dtNew is the suggested size for the next attempt either way.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt, tol float64) (xNew State, dtNew float64, accepted bool, err error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Direction selects which zero crossings of an event function count.
type Direction int

const (
	Any     Direction = 0
	Falling Direction = -1
	Rising  Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Falling:
		return "falling"
	case Rising:
		return "rising"
	default:
		return "any"
	}
}

// Crossed reports whether moving from g0 to g1 is a crossing in direction d.
func (d Direction) Crossed(g0, g1 float64) bool {
	switch d {
	case Falling:
		return g0 > 0 && g1 <= 0
	case Rising:
		return g0 < 0 && g1 >= 0
	default:
		return (g0 > 0 && g1 <= 0) || (g0 < 0 && g1 >= 0)
	}
}

// Satisfied reports whether g already sits on the far side of a crossing
// in direction d, which is how a terminal event is checked at t=0.
func (d Direction) Satisfied(g float64) bool {
	switch d {
	case Falling:
		return g <= 0
	case Rising:
		return g >= 0
	default:
		return g == 0
	}
}

// Event is a scalar function of the state whose zero crossing is detected
// after every accepted step. Terminal events stop the run.
type Event struct {
	Name      string
	Fn        func(t float64, x State) float64
	Terminal  bool
	Direction Direction
}

type Config struct {
	Duration       float64
	InitialDt      float64
	MinDt          float64
	MaxDt          float64
	Tolerance      float64
	EventTolerance float64
	MaxSteps       int
	MaxRejects     int
	ValidateState  bool
}

func DefaultConfig() Config {
	return Config{
		Duration:       10.0,
		InitialDt:      1e-3,
		MinDt:          1e-12,
		MaxDt:          0.1,
		Tolerance:      1e-8,
		EventTolerance: 1e-10,
		MaxSteps:       100000,
		MaxRejects:     50,
		ValidateState:  true,
	}
}

// Reason tells why a run stopped.
type Reason int

const (
	HorizonReached Reason = iota
	EventTriggered
	NonConvergence
)

func (r Reason) String() string {
	switch r {
	case HorizonReached:
		return "horizon_reached"
	case EventTriggered:
		return "event_triggered"
	case NonConvergence:
		return "non_convergence"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// ParseReason is the inverse of Reason.String.
func ParseReason(s string) (Reason, error) {
	for _, r := range []Reason{HorizonReached, EventTriggered, NonConvergence} {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown reason: %q", s)
}

// Crossing is a localized zero of a non-terminal event.
type Crossing struct {
	Event string
	Time  float64
	State State
}

type Stats struct {
	Accepted    int
	Rejected    int
	Evaluations int
	LastDt      float64
}

// Trajectory holds the samples of one run. Times are strictly increasing
// and States[i] is the state at Times[i].
type Trajectory struct {
	Times     []float64
	States    []State
	Reason    Reason
	Event     string
	Crossings []Crossing
	Metrics   map[string]float64
	Stats     Stats
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

// Final returns the last sample.
func (tr *Trajectory) Final() (float64, State) {
	n := len(tr.Times)
	if n == 0 {
		return 0, nil
	}
	return tr.Times[n-1], tr.States[n-1]
}

// Column extracts state component idx across all samples.
func (tr *Trajectory) Column(idx int) []float64 {
	out := make([]float64, len(tr.States))
	for i, s := range tr.States {
		if idx < len(s) {
			out[i] = s[idx]
		}
	}
	return out
}

// Append adds a sample. Only the run that owns the trajectory calls it.
func (tr *Trajectory) Append(t float64, x State) {
	tr.Times = append(tr.Times, t)
	tr.States = append(tr.States, x.Clone())
}

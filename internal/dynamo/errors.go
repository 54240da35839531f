package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDomain indicates the state left the region where the model is defined.
	ErrDomain = errors.New("dynamo: state outside model domain")

	// ErrInvalidInitialState indicates a terminal event is already satisfied at t=0.
	ErrInvalidInitialState = errors.New("dynamo: terminal event satisfied by initial state")

	// ErrNonConvergence indicates the step or retry budget ran out before
	// the horizon or a terminal event was reached.
	ErrNonConvergence = errors.New("dynamo: integration did not converge")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrDimensionMismatch indicates mismatched state dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// ReasonOf reports the termination reason carried by a run error. Only
// budget exhaustion maps to a Reason; other errors return ok=false.
func ReasonOf(err error) (Reason, bool) {
	if errors.Is(err, ErrNonConvergence) {
		return NonConvergence, true
	}
	return 0, false
}

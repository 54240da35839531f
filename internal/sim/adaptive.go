package sim

import (
	"math"

	"github.com/san-kum/yoyosim/internal/dynamo"
)

const (
	doublingSafety   = 0.9
	doublingMinScale = 0.2
	doublingMaxScale = 5.0
)

// stepDoubling estimates the local error of a fixed-step integrator by
// comparing one step of dt with two steps of dt/2. The two-half-step
// result is returned.
func stepDoubling(integ dynamo.Integrator, dyn dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64, bool, error) {
	x1, err := integ.Step(dyn, x, t, dt)
	if err != nil {
		return nil, dt, false, err
	}
	xHalf, err := integ.Step(dyn, x, t, dt/2)
	if err != nil {
		return nil, dt, false, err
	}
	x2, err := integ.Step(dyn, xHalf, t+dt/2, dt/2)
	if err != nil {
		return nil, dt, false, err
	}

	errRatio := 0.0
	for i := range x2 {
		scale := tol * (1 + math.Max(math.Abs(x[i]), math.Abs(x2[i])))
		errRatio = math.Max(errRatio, math.Abs(x1[i]-x2[i])/scale)
	}

	var dtNew float64
	switch {
	case math.IsNaN(errRatio):
		dtNew = dt * doublingMinScale
		return x2, dtNew, false, nil
	case errRatio == 0:
		dtNew = dt * doublingMaxScale
	default:
		// Local error of an order-4 method scales as dt^5.
		scale := doublingSafety * math.Pow(errRatio, -0.2)
		dtNew = dt * math.Min(doublingMaxScale, math.Max(doublingMinScale, scale))
	}

	return x2, dtNew, errRatio <= 1, nil
}

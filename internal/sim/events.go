package sim

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/yoyosim/internal/dynamo"
)

// maxLocateIter bounds the root search; Illinois converges superlinearly so
// this is only reached when the bracket collapses to rounding level.
const maxLocateIter = 100

// domainShrink scales a step whose trial stages left the model's domain.
const domainShrink = 0.5

type eventHit struct {
	name  string
	time  float64
	state dynamo.State
}

// checkEvents evaluates every event at the end of an accepted step
// (t0,x0) -> (t1,x1). Non-terminal crossings are recorded on traj; the
// earliest terminal crossing, if any, is returned. gPrev is updated in place.
func (s *Simulator) checkEvents(dyn dynamo.System, traj *dynamo.Trajectory, gPrev []float64,
	t0 float64, x0 dynamo.State, t1 float64, x1 dynamo.State, cfg dynamo.Config) (*eventHit, error) {

	var first *eventHit
	for i, ev := range s.events {
		g1 := ev.Fn(t1, x1)
		g0 := gPrev[i]
		gPrev[i] = g1
		if !ev.Direction.Crossed(g0, g1) {
			continue
		}

		tc, xc, err := s.locate(dyn, ev, t0, x0, g0, t1, x1, g1, cfg)
		if err != nil {
			return nil, err
		}
		s.log.Debug("event localized",
			zap.String("event", ev.Name),
			zap.Float64("t", tc),
			zap.Float64("g", ev.Fn(tc, xc)),
		)

		if !ev.Terminal {
			traj.Crossings = append(traj.Crossings, dynamo.Crossing{Event: ev.Name, Time: tc, State: xc})
			continue
		}
		if first == nil || tc < first.time {
			first = &eventHit{name: ev.Name, time: tc, state: xc}
		}
	}
	return first, nil
}

// locate finds the crossing of ev inside (t0, t1] with the Illinois variant
// of false position. Each trial state is a single integrator step from the
// accepted sample (t0, x0), which is at least as accurate as the step that
// produced x1. The returned point always lies on the crossed side of the
// bracket, so it is strictly later than t0.
func (s *Simulator) locate(dyn dynamo.System, ev dynamo.Event,
	t0 float64, x0 dynamo.State, g0 float64,
	t1 float64, x1 dynamo.State, g1 float64, cfg dynamo.Config) (float64, dynamo.State, error) {

	a, ga := t0, g0
	b, gb, xb := t1, g1, x1
	side := 0
	var domainErr error

	for i := 0; i < maxLocateIter; i++ {
		if xb != nil && math.Abs(gb) <= cfg.EventTolerance {
			return b, xb, nil
		}
		if b-a <= 4*eps(b) {
			if xb == nil {
				return 0, nil, domainErr
			}
			return b, xb, nil
		}

		c := (a*gb - b*ga) / (gb - ga)
		if !(c > a && c < b) {
			c = a + 0.5*(b-a)
		}

		xc, err := s.integrator.Step(dyn, x0, t0, c-t0)
		if errors.Is(err, dynamo.ErrDomain) {
			// The models' domains end beyond their event surfaces, so a
			// trial that leaves the domain is on the crossed side. Its g
			// is unknown; keep the old sign at half weight.
			domainErr = err
			b, gb, xb = c, gb/2, nil
			side = 1
			continue
		}
		if err != nil {
			return 0, nil, err
		}
		gc := ev.Fn(c, xc)

		if sameSide(gc, ga) {
			a, ga = c, gc
			if side == -1 {
				gb /= 2
			}
			side = -1
		} else {
			b, gb, xb = c, gc, xc
			if side == 1 {
				ga /= 2
			}
			side = 1
		}
	}
	if xb == nil {
		return 0, nil, domainErr
	}
	return b, xb, nil
}

// settled returns the first terminal event whose function is within the
// event tolerance at (t, x).
func (s *Simulator) settled(t float64, x dynamo.State, cfg dynamo.Config) *eventHit {
	for _, ev := range s.events {
		if ev.Terminal && math.Abs(ev.Fn(t, x)) <= cfg.EventTolerance {
			return &eventHit{name: ev.Name, time: t, state: x}
		}
	}
	return nil
}

// sameSide reports whether g has not yet crossed relative to the reference
// value ref, which is strictly non-zero at the open end of the bracket.
func sameSide(g, ref float64) bool {
	if ref > 0 {
		return g > 0
	}
	return g < 0
}

func eps(x float64) float64 {
	return math.Nextafter(math.Abs(x), math.Inf(1)) - math.Abs(x)
}

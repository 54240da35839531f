package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/yoyosim/internal/dynamo"
)

type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	events     []dynamo.Event
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	log        *zap.Logger
}

func New(dyn dynamo.System, integrator dynamo.Integrator, events ...dynamo.Event) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		events:     events,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		log:        zap.NewNop(),
	}
}

func (s *Simulator) AddEvent(e dynamo.Event)       { s.events = append(s.events, e) }
func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.log = l
}

// Run integrates from x0 at t=0 until a terminal event fires or
// cfg.Duration is reached. Budget exhaustion returns an error wrapping
// dynamo.ErrNonConvergence and no trajectory.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Trajectory, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("%w: state has %d components, system expects %d",
			dynamo.ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}

	gPrev := make([]float64, len(s.events))
	for i, ev := range s.events {
		gPrev[i] = ev.Fn(0, x0)
		if ev.Terminal && ev.Direction.Satisfied(gPrev[i]) {
			return nil, fmt.Errorf("%w: event %q is %g at t=0",
				dynamo.ErrInvalidInitialState, ev.Name, gPrev[i])
		}
	}

	traj := &dynamo.Trajectory{
		Times:   make([]float64, 0, 64),
		States:  make([]dynamo.State, 0, 64),
		Reason:  dynamo.HorizonReached,
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	dyn := &countingSystem{System: s.dyn}
	x := x0.Clone()
	t := 0.0
	dt := math.Min(cfg.InitialDt, cfg.MaxDt)
	rejects := 0
	attempts := 0

	s.record(traj, t, x)

	for t < cfg.Duration {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		if attempts >= cfg.MaxSteps {
			return nil, s.fail(attempts, t, x, fmt.Errorf("%w: step budget %d exhausted at t=%g",
				dynamo.ErrNonConvergence, cfg.MaxSteps, t))
		}
		attempts++

		h := dt
		last := false
		if remaining := cfg.Duration - t; h >= remaining {
			h = remaining
			last = true
		}

		xNew, dtNext, accepted, err := s.step(dyn, x, t, h, cfg)
		var domainErr error
		if errors.Is(err, dynamo.ErrDomain) {
			// A trial stage left the model's domain. When the current
			// sample already sits on a terminal event surface, the run
			// ends there; otherwise the step is retried shorter.
			if hit := s.settled(t, x, cfg); hit != nil {
				traj.Reason = dynamo.EventTriggered
				traj.Event = hit.name
				s.log.Debug("terminal event at domain boundary", zap.String("event", hit.name), zap.Float64("t", t))
				break
			}
			domainErr = err
			dtNext, accepted, err = h*domainShrink, false, nil
		}
		if err != nil {
			return nil, s.fail(attempts, t, x, err)
		}
		if !accepted {
			traj.Stats.Rejected++
			rejects++
			dt = dtNext
			if rejects > cfg.MaxRejects {
				return nil, s.fail(attempts, t, x, joinCause(fmt.Errorf("%w: %d consecutive rejections at t=%g",
					dynamo.ErrNonConvergence, rejects, t), domainErr))
			}
			if dt < cfg.MinDt {
				return nil, s.fail(attempts, t, x, joinCause(fmt.Errorf("%w: %w (dt=%g)",
					dynamo.ErrNonConvergence, dynamo.ErrStepTooSmall, dt), domainErr))
			}
			s.log.Debug("step rejected", zap.Float64("t", t), zap.Float64("dt", h), zap.Float64("next_dt", dt),
				zap.Bool("domain", domainErr != nil))
			continue
		}
		rejects = 0

		tNew := t + h
		if last {
			tNew = cfg.Duration
		}
		if tNew <= t {
			return nil, s.fail(attempts, t, x, fmt.Errorf("%w: %w (time did not advance)",
				dynamo.ErrNonConvergence, dynamo.ErrStepTooSmall))
		}

		if cfg.ValidateState && !xNew.IsValid() {
			return nil, s.fail(attempts, tNew, xNew, dynamo.ErrInvalidState)
		}

		hit, err := s.checkEvents(dyn, traj, gPrev, t, x, tNew, xNew, cfg)
		if err != nil {
			return nil, s.fail(attempts, t, x, err)
		}

		traj.Stats.Accepted++
		traj.Stats.LastDt = h

		if hit != nil {
			s.record(traj, hit.time, hit.state)
			traj.Reason = dynamo.EventTriggered
			traj.Event = hit.name
			s.log.Debug("terminal event", zap.String("event", hit.name), zap.Float64("t", hit.time))
			break
		}

		s.record(traj, tNew, xNew)
		t, x = tNew, xNew
		dt = math.Min(dtNext, cfg.MaxDt)
	}

	traj.Stats.Evaluations = dyn.calls
	for _, m := range s.metrics {
		traj.Metrics[m.Name()] = m.Value()
	}

	tEnd, _ := traj.Final()
	s.log.Info("run finished",
		zap.Stringer("reason", traj.Reason),
		zap.Float64("t", tEnd),
		zap.Int("accepted", traj.Stats.Accepted),
		zap.Int("rejected", traj.Stats.Rejected),
	)

	return traj, nil
}

func (s *Simulator) record(traj *dynamo.Trajectory, t float64, x dynamo.State) {
	traj.Append(t, x)
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

func (s *Simulator) fail(step int, t float64, x dynamo.State, err error) error {
	return &dynamo.SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: err}
}

func (s *Simulator) validateConfig(cfg dynamo.Config) error {
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.InitialDt <= 0 {
		return fmt.Errorf("initial dt must be positive, got %f", cfg.InitialDt)
	}
	if cfg.MaxDt <= 0 {
		return fmt.Errorf("max dt must be positive, got %f", cfg.MaxDt)
	}
	if cfg.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	if cfg.EventTolerance <= 0 {
		return fmt.Errorf("event tolerance must be positive, got %g", cfg.EventTolerance)
	}
	if cfg.MaxSteps <= 0 {
		return fmt.Errorf("max steps must be positive, got %d", cfg.MaxSteps)
	}
	if cfg.MaxRejects <= 0 {
		return fmt.Errorf("max rejects must be positive, got %d", cfg.MaxRejects)
	}
	if cfg.MinDt <= 0 {
		return fmt.Errorf("min dt must be positive, got %g", cfg.MinDt)
	}
	if cfg.MinDt > cfg.MaxDt {
		return fmt.Errorf("min dt %g exceeds max dt %g", cfg.MinDt, cfg.MaxDt)
	}
	return nil
}

// joinCause attaches the domain error that drove the rejections, if any.
func joinCause(err, cause error) error {
	if cause == nil {
		return err
	}
	return fmt.Errorf("%w: %w", err, cause)
}

// step attempts one step of size dt. Integrators without their own error
// estimate are driven by step doubling.
func (s *Simulator) step(dyn dynamo.System, x dynamo.State, t, dt float64, cfg dynamo.Config) (dynamo.State, float64, bool, error) {
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(dyn, x, t, dt, cfg.Tolerance)
	}
	return stepDoubling(s.integrator, dyn, x, t, dt, cfg.Tolerance)
}

// countingSystem counts right-hand-side evaluations for Stats.
type countingSystem struct {
	dynamo.System
	calls int
}

func (c *countingSystem) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	c.calls++
	return c.System.Derive(x, t)
}

package physics

import (
	"context"

	"go.uber.org/zap"

	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/integrators"
	"github.com/san-kum/yoyosim/internal/sim"
)

type options struct {
	integrator dynamo.Integrator
	cfg        dynamo.Config
	events     []dynamo.Event
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	log        *zap.Logger
}

type Option func(*options)

// WithIntegrator replaces the default Dormand-Prince stepper. Integrators
// may keep scratch space, so one instance must not be shared across
// concurrent runs.
func WithIntegrator(integ dynamo.Integrator) Option {
	return func(o *options) { o.integrator = integ }
}

// WithSolver overrides the step-control settings. Duration and Tolerance
// always come from the Simulate arguments.
func WithSolver(cfg dynamo.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

func WithMaxSteps(n int) Option {
	return func(o *options) { o.cfg.MaxSteps = n }
}

func WithEventTolerance(tol float64) Option {
	return func(o *options) { o.cfg.EventTolerance = tol }
}

// WithEvents adds events next to the terminal unwound event.
func WithEvents(events ...dynamo.Event) Option {
	return func(o *options) { o.events = append(o.events, events...) }
}

func WithMetrics(metrics ...dynamo.Metric) Option {
	return func(o *options) { o.metrics = append(o.metrics, metrics...) }
}

func WithObservers(observers ...dynamo.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, observers...) }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// Prepare builds the simulator and run configuration that Simulate uses,
// for callers that schedule runs themselves.
func Prepare(p Params, d Derived, tEnd, tol float64, opts ...Option) (*sim.Simulator, dynamo.Config, error) {
	yo, err := NewWithDerived(p, d)
	if err != nil {
		return nil, dynamo.Config{}, err
	}

	o := options{cfg: dynamo.DefaultConfig(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.integrator == nil {
		o.integrator = integrators.NewRK45()
	}

	cfg := o.cfg
	cfg.Duration = tEnd
	cfg.Tolerance = tol

	s := sim.New(yo, o.integrator, UnwoundEvent())
	for _, ev := range o.events {
		s.AddEvent(ev)
	}
	for _, m := range o.metrics {
		s.AddMetric(m)
	}
	for _, obs := range o.observers {
		s.AddObserver(obs)
	}
	s.SetLogger(o.log.With(zap.String("model", "yoyo")))

	return s, cfg, nil
}

// Simulate runs the yo-yo from x0 until the string is fully unwound or
// tEnd is reached. The trajectory's Reason tells the two apart; running out
// of steps is an error wrapping dynamo.ErrNonConvergence.
func Simulate(p Params, d Derived, x0 dynamo.State, tEnd, tol float64, opts ...Option) (*dynamo.Trajectory, error) {
	return SimulateContext(context.Background(), p, d, x0, tEnd, tol, opts...)
}

func SimulateContext(ctx context.Context, p Params, d Derived, x0 dynamo.State, tEnd, tol float64, opts ...Option) (*dynamo.Trajectory, error) {
	s, cfg, err := Prepare(p, d, tEnd, tol, opts...)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, x0, cfg)
}

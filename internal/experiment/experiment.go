package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/yoyosim/internal/config"
	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/physics"
	"github.com/san-kum/yoyosim/internal/sim"
)

// UnwindTime is the objective name for the time at which the string runs
// out. It is not a metric: it is read from the trajectory itself.
const UnwindTime = "unwind_time"

// Experiment turns a config into a runnable simulation.
type Experiment struct {
	cfg       *config.Config
	reg       *Registry
	observers []dynamo.Observer
	log       *zap.Logger
}

func New(cfg *config.Config, reg *Registry, log *zap.Logger) *Experiment {
	if log == nil {
		log = zap.NewNop()
	}
	return &Experiment{cfg: cfg, reg: reg, log: log}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) AddObserver(o dynamo.Observer) { e.observers = append(e.observers, o) }

// Build validates the config and assembles a simulator with fresh
// integrator and metric instances.
func (e *Experiment) Build() (*sim.Simulator, dynamo.State, dynamo.Config, error) {
	c := e.cfg
	if err := c.Validate(); err != nil {
		return nil, nil, dynamo.Config{}, err
	}

	yo, err := physics.New(c.Params)
	if err != nil {
		return nil, nil, dynamo.Config{}, err
	}
	integ, err := e.reg.GetIntegrator(c.Integrator)
	if err != nil {
		return nil, nil, dynamo.Config{}, err
	}
	ms, err := e.reg.GetMetrics(c.Metrics, yo)
	if err != nil {
		return nil, nil, dynamo.Config{}, err
	}

	events := make([]dynamo.Event, 0, len(c.Checkpoints))
	for _, frac := range c.Checkpoints {
		events = append(events, physics.FractionEvent(CheckpointName(frac), c.Params, frac))
	}

	s, runCfg, err := physics.Prepare(c.Params, yo.Derived(), c.Params.Duration, c.Solver.Tolerance,
		physics.WithIntegrator(integ),
		physics.WithSolver(c.SolverConfig()),
		physics.WithEvents(events...),
		physics.WithMetrics(ms...),
		physics.WithObservers(e.observers...),
		physics.WithLogger(e.log.With(zap.String("integrator", c.Integrator))),
	)
	if err != nil {
		return nil, nil, dynamo.Config{}, err
	}
	return s, yo.InitialState(), runCfg, nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Trajectory, error) {
	s, x0, cfg, err := e.Build()
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, x0, cfg)
}

// CheckpointName names the crossing recorded when the rolled length drops
// to frac of the string.
func CheckpointName(frac float64) string {
	return fmt.Sprintf("rolled_%g", frac)
}

// Objective reads a scalar from a finished run: the unwind time, or the
// final value of a metric. ok is false when the run has no such value,
// e.g. the string never fully unwound.
func Objective(name string, traj *dynamo.Trajectory) (float64, bool) {
	if traj == nil {
		return 0, false
	}
	if name == UnwindTime {
		if traj.Reason != dynamo.EventTriggered {
			return 0, false
		}
		t, _ := traj.Final()
		return t, true
	}
	v, ok := traj.Metrics[name]
	return v, ok
}

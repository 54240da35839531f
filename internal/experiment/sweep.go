package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/yoyosim/internal/config"
	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/sim"
)

// RunBatch runs every config on a bounded worker pool. Outcomes are in the
// order of cfgs; a failing config is reported in its Outcome only.
func RunBatch(ctx context.Context, cfgs []*config.Config, reg *Registry, workers int, log *zap.Logger) ([]sim.Outcome, error) {
	jobs := make([]sim.Job, len(cfgs))
	for i, c := range cfgs {
		exp := New(c, reg, log)
		jobs[i] = sim.Job{
			Build: func() (*sim.Simulator, dynamo.State, error) {
				s, x0, _, err := exp.Build()
				return s, x0, err
			},
			Cfg: c.SolverConfig(),
		}
	}
	return sim.NewEnsemble(workers).Run(ctx, jobs)
}

type SweepPoint struct {
	Value      float64
	Trajectory *dynamo.Trajectory
	Err        error
}

// Sweep runs base once per value of param, in parallel.
func Sweep(ctx context.Context, base *config.Config, reg *Registry, param string, values []float64, workers int, log *zap.Logger) ([]SweepPoint, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfgs := make([]*config.Config, len(values))
	for i, v := range values {
		c := base.Clone()
		if err := c.Params.Set(param, v); err != nil {
			return nil, err
		}
		cfgs[i] = c
	}

	log.Debug("sweep started", zap.String("param", param), zap.Int("points", len(values)), zap.Int("workers", workers))

	outcomes, err := RunBatch(ctx, cfgs, reg, workers, log)
	if err != nil {
		return nil, fmt.Errorf("sweep %s: %w", param, err)
	}

	points := make([]SweepPoint, len(values))
	for i, o := range outcomes {
		points[i] = SweepPoint{Value: values[i], Trajectory: o.Trajectory, Err: o.Err}
	}
	return points, nil
}

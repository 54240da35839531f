package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/yoyosim/internal/config"
	"github.com/san-kum/yoyosim/internal/experiment"
	"github.com/san-kum/yoyosim/internal/physics"
)

// DefaultPerturbed are the manufactured dimensions varied by default.
var DefaultPerturbed = []string{"axle_radius", "roll_radius", "body_radius", "mass", "string_length"}

// MonteCarloConfig scatters each named parameter uniformly within
// ±Perturbation of its base value (relative).
type MonteCarloConfig struct {
	Trials       int
	Perturbation float64
	Params       []string
	Seed         int64
}

type Trial struct {
	Index      int
	Params     physics.Params
	UnwindTime float64
	Unwound    bool
	Err        error
}

type Summary struct {
	Trials  int
	Unwound int
	Failed  int
	Mean    float64
	Std     float64
	Min     float64
	Max     float64
}

// RunMonteCarlo samples the parameters for every trial from one seeded
// source before running, so results depend only on the seed.
func RunMonteCarlo(ctx context.Context, base *config.Config, mc MonteCarloConfig, reg *experiment.Registry, workers int, log *zap.Logger) ([]Trial, error) {
	if mc.Trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", mc.Trials)
	}
	if mc.Perturbation < 0 || mc.Perturbation >= 1 {
		return nil, fmt.Errorf("perturbation must be in [0,1), got %g", mc.Perturbation)
	}
	if log == nil {
		log = zap.NewNop()
	}
	names := mc.Params
	if len(names) == 0 {
		names = DefaultPerturbed
	}

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	cfgs := make([]*config.Config, mc.Trials)
	for i := range cfgs {
		c := base.Clone()
		for _, name := range names {
			v, err := c.Params.Get(name)
			if err != nil {
				return nil, err
			}
			scale := 1 + (rng.Float64()*2-1)*mc.Perturbation
			if err := c.Params.Set(name, v*scale); err != nil {
				return nil, err
			}
		}
		cfgs[i] = c
	}

	log.Info("monte carlo started", zap.Int("trials", mc.Trials), zap.Float64("perturbation", mc.Perturbation), zap.Int64("seed", seed))

	outcomes, err := experiment.RunBatch(ctx, cfgs, reg, workers, log)
	if err != nil {
		return nil, fmt.Errorf("monte carlo: %w", err)
	}

	trials := make([]Trial, len(outcomes))
	for i, o := range outcomes {
		tr := Trial{Index: i, Params: cfgs[i].Params, Err: o.Err}
		tr.UnwindTime, tr.Unwound = experiment.Objective(experiment.UnwindTime, o.Trajectory)
		trials[i] = tr
	}
	return trials, nil
}

// Summarize reports unwind-time statistics over the trials that unwound.
func Summarize(trials []Trial) Summary {
	s := Summary{Trials: len(trials), Min: math.Inf(1), Max: math.Inf(-1)}
	var sum, sumSq float64
	for _, tr := range trials {
		if tr.Err != nil {
			s.Failed++
			continue
		}
		if !tr.Unwound {
			continue
		}
		s.Unwound++
		sum += tr.UnwindTime
		sumSq += tr.UnwindTime * tr.UnwindTime
		s.Min = math.Min(s.Min, tr.UnwindTime)
		s.Max = math.Max(s.Max, tr.UnwindTime)
	}

	if s.Unwound == 0 {
		s.Min, s.Max = 0, 0
		return s
	}
	n := float64(s.Unwound)
	s.Mean = sum / n
	if s.Unwound > 1 {
		s.Std = math.Sqrt(math.Max(0, (sumSq-n*s.Mean*s.Mean)/(n-1)))
	}
	return s
}

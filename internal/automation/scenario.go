// Package automation runs scripted batches of yo-yo simulations: YAML
// scenarios and Monte Carlo tolerance studies.
package automation

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/yoyosim/internal/config"
	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/experiment"
)

// Scenario is a named list of runs read from YAML.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults) and overrides the
// fields it sets.
type ScenarioStep struct {
	Name        string             `yaml:"name"`
	Preset      string             `yaml:"preset"`
	Integrator  string             `yaml:"integrator"`
	Tolerance   float64            `yaml:"tolerance"`
	Params      map[string]float64 `yaml:"params"`
	Checkpoints []float64          `yaml:"checkpoints"`
	Save        bool               `yaml:"save"`
}

type StepResult struct {
	Step       ScenarioStep
	Config     *config.Config
	Trajectory *dynamo.Trajectory
	Err        error
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	return &sc, nil
}

// Config resolves the step into a full configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Tolerance > 0 {
		cfg.Solver.Tolerance = s.Tolerance
	}
	for name, v := range s.Params {
		if err := cfg.Params.Set(name, v); err != nil {
			return nil, err
		}
	}
	if s.Checkpoints != nil {
		cfg.Checkpoints = append([]float64(nil), s.Checkpoints...)
	}
	return cfg, nil
}

// Label is the step's name, or its position when unnamed.
func (s ScenarioStep) Label(i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("step_%d", i+1)
}

// RunScenario resolves every step up front, then runs them in parallel.
// A step that fails to run is reported in its result; a step that cannot
// be resolved fails the whole scenario.
func RunScenario(ctx context.Context, sc *Scenario, reg *experiment.Registry, workers int, log *zap.Logger) ([]StepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}

	cfgs := make([]*config.Config, len(sc.Steps))
	for i, step := range sc.Steps {
		c, err := step.Config()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Label(i), err)
		}
		cfgs[i] = c
	}

	log.Info("scenario started", zap.String("name", sc.Name), zap.Int("steps", len(cfgs)))

	outcomes, err := experiment.RunBatch(ctx, cfgs, reg, workers, log)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	results := make([]StepResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = StepResult{Step: sc.Steps[i], Config: cfgs[i], Trajectory: o.Trajectory, Err: o.Err}
		if o.Err != nil {
			log.Warn("step failed", zap.String("step", sc.Steps[i].Label(i)), zap.Error(o.Err))
		}
	}
	return results, nil
}

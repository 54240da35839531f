package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/physics"
)

const (
	DefaultModel      = "yoyo"
	DefaultIntegrator = "rk45"
)

type Config struct {
	Model       string         `yaml:"model"`
	Integrator  string         `yaml:"integrator"`
	Params      physics.Params `yaml:"params"`
	Solver      SolverConfig   `yaml:"solver"`
	Metrics     []string       `yaml:"metrics"`
	Checkpoints []float64      `yaml:"checkpoints"`
}

// SolverConfig holds the step-control settings. Duration lives in Params.
type SolverConfig struct {
	Tolerance      float64 `yaml:"tolerance"`
	EventTolerance float64 `yaml:"event_tolerance"`
	InitialDt      float64 `yaml:"initial_dt"`
	MinDt          float64 `yaml:"min_dt"`
	MaxDt          float64 `yaml:"max_dt"`
	MaxSteps       int     `yaml:"max_steps"`
	MaxRejects     int     `yaml:"max_rejects"`
}

func DefaultConfig() *Config {
	d := dynamo.DefaultConfig()
	return &Config{
		Model:      DefaultModel,
		Integrator: DefaultIntegrator,
		Params:     physics.DefaultParams(),
		Solver: SolverConfig{
			Tolerance:      d.Tolerance,
			EventTolerance: d.EventTolerance,
			InitialDt:      d.InitialDt,
			MinDt:          d.MinDt,
			MaxDt:          d.MaxDt,
			MaxSteps:       d.MaxSteps,
			MaxRejects:     d.MaxRejects,
		},
		Metrics: []string{"mean_tension", "peak_spin", "peak_speed"},
	}
}

// Load decodes a YAML file over the defaults, so a file only needs the
// fields it changes.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto decodes a YAML file over cfg, e.g. a preset.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Model != DefaultModel {
		return fmt.Errorf("unknown model: %s", c.Model)
	}
	if err := c.Params.Validate(); err != nil {
		return err
	}
	s := c.Solver
	switch {
	case s.Tolerance <= 0:
		return fmt.Errorf("tolerance must be positive, got %g", s.Tolerance)
	case s.EventTolerance <= 0:
		return fmt.Errorf("event tolerance must be positive, got %g", s.EventTolerance)
	case s.InitialDt <= 0:
		return fmt.Errorf("initial dt must be positive, got %g", s.InitialDt)
	case s.MinDt <= 0 || s.MinDt > s.MaxDt:
		return fmt.Errorf("min dt %g must be positive and at most max dt %g", s.MinDt, s.MaxDt)
	case s.MaxSteps <= 0:
		return fmt.Errorf("max steps must be positive, got %d", s.MaxSteps)
	case s.MaxRejects <= 0:
		return fmt.Errorf("max rejects must be positive, got %d", s.MaxRejects)
	}
	for _, frac := range c.Checkpoints {
		if frac <= 0 || frac >= 1 {
			return fmt.Errorf("checkpoint %g must lie strictly between 0 and 1", frac)
		}
	}
	return nil
}

// SolverConfig converts the file settings into a run configuration.
func (c *Config) SolverConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Duration = c.Params.Duration
	cfg.Tolerance = c.Solver.Tolerance
	cfg.EventTolerance = c.Solver.EventTolerance
	cfg.InitialDt = c.Solver.InitialDt
	cfg.MinDt = c.Solver.MinDt
	cfg.MaxDt = c.Solver.MaxDt
	cfg.MaxSteps = c.Solver.MaxSteps
	cfg.MaxRejects = c.Solver.MaxRejects
	return cfg
}

// Clone returns a deep copy, so presets can be handed out and modified.
func (c *Config) Clone() *Config {
	out := *c
	out.Metrics = append([]string(nil), c.Metrics...)
	out.Checkpoints = append([]float64(nil), c.Checkpoints...)
	return &out
}

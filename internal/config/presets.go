package config

import (
	"sort"

	"github.com/san-kum/yoyosim/internal/physics"
)

func preset(mutate func(p *physics.Params, c *Config)) *Config {
	c := DefaultConfig()
	mutate(&c.Params, c)
	return c
}

var Presets = map[string]*Config{
	"classic": DefaultConfig(),
	"long_string": preset(func(p *physics.Params, c *Config) {
		p.StringLength = 2.5
		c.Checkpoints = []float64{0.25, 0.5, 0.75}
	}),
	"heavy": preset(func(p *physics.Params, c *Config) {
		p.Mass = 0.2
		p.BodyRadius = 0.05
	}),
	"butterfly": preset(func(p *physics.Params, c *Config) {
		p.AxleRadius = 0.004
		p.RollRadius = 0.012
		p.BodyRadius = 0.03
	}),
	"bare_axle": preset(func(p *physics.Params, c *Config) {
		p.AxleRadius = 0
		p.RollRadius = 0.01
	}),
	"moon": preset(func(p *physics.Params, c *Config) {
		p.Gravity = 1.62
		p.Duration = 30
	}),
	"quick_check": preset(func(p *physics.Params, c *Config) {
		p.Duration = 0.5
		c.Integrator = "rk4"
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

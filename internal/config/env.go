package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds process settings read from the environment. The CLI uses them
// as flag defaults.
type Env struct {
	DataDir  string `env:"YOYOSIM_DATA" envDefault:".yoyosim"`
	LogLevel string `env:"YOYOSIM_LOG_LEVEL" envDefault:"warn"`
	Config   string `env:"YOYOSIM_CONFIG"`
	Workers  int    `env:"YOYOSIM_WORKERS" envDefault:"4"`
}

func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse environment: %w", err)
	}
	if e.Workers <= 0 {
		return Env{}, fmt.Errorf("YOYOSIM_WORKERS must be positive, got %d", e.Workers)
	}
	return e, nil
}

package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/integrators"
	"github.com/san-kum/yoyosim/internal/metrics"
	"github.com/san-kum/yoyosim/internal/physics"
)

// MetricFactory builds a fresh metric for one run of yo.
type MetricFactory func(yo *physics.YoYo) dynamo.Metric

// Registry maps names used in configs and flags to constructors. Every
// lookup returns a new instance, so runs never share integrator scratch
// space or metric accumulators.
type Registry struct {
	integrators map[string]func() dynamo.Integrator
	metrics     map[string]MetricFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		metrics:     make(map[string]MetricFactory),
	}

	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	r.metrics["mean_tension"] = func(yo *physics.YoYo) dynamo.Metric { return metrics.NewTension(yo) }
	r.metrics["peak_spin"] = func(*physics.YoYo) dynamo.Metric { return metrics.NewPeak("peak_spin", physics.IdxOmega) }
	r.metrics["peak_speed"] = func(*physics.YoYo) dynamo.Metric { return metrics.NewPeak("peak_speed", physics.IdxV) }
	r.metrics["energy_drift"] = func(yo *physics.YoYo) dynamo.Metric { return metrics.NewEnergyDrift(yo) }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetMetrics(names []string, yo *physics.YoYo) ([]dynamo.Metric, error) {
	out := make([]dynamo.Metric, 0, len(names))
	for _, name := range names {
		fn, ok := r.metrics[name]
		if !ok {
			return nil, fmt.Errorf("unknown metric: %s", name)
		}
		out = append(out, fn(yo))
	}
	return out, nil
}

func (r *Registry) HasMetric(name string) bool {
	_, ok := r.metrics[name]
	return ok
}

func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListMetrics() []string     { return sortedKeys(r.metrics) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

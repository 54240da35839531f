package optim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/yoyosim/internal/config"
	"github.com/san-kum/yoyosim/internal/experiment"
)

// GridSearch evaluates every combination of parameter values and keeps the
// one with the best objective.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	objective  string
	maximize   bool
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64, objective string, maximize bool, workers int) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("need one range per parameter, got %d params and %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, objective: objective, maximize: maximize, workers: workers}, nil
}

type Result struct {
	Params    map[string]float64
	Value     float64
	Evaluated int
	Failed    int
}

// Search runs the grid on top of base. Points whose config is invalid or
// whose run fails or lacks the objective count as Failed.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, reg *experiment.Registry, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	base = base.Clone()
	if g.objective != experiment.UnwindTime {
		if !reg.HasMetric(g.objective) {
			return nil, fmt.Errorf("unknown objective: %s", g.objective)
		}
		if !contains(base.Metrics, g.objective) {
			base.Metrics = append(base.Metrics, g.objective)
		}
	}

	var points []map[string]float64
	g.enumerate(0, make(map[string]float64), &points)

	cfgs := make([]*config.Config, len(points))
	for i, p := range points {
		c := base.Clone()
		for name, v := range p {
			if err := c.Params.Set(name, v); err != nil {
				return nil, err
			}
		}
		cfgs[i] = c
	}

	outcomes, err := experiment.RunBatch(ctx, cfgs, reg, g.workers, log)
	if err != nil {
		return nil, fmt.Errorf("grid search: %w", err)
	}

	res := &Result{Evaluated: len(points), Value: math.Inf(1)}
	if g.maximize {
		res.Value = math.Inf(-1)
	}
	for i, o := range outcomes {
		if o.Err != nil {
			res.Failed++
			log.Debug("grid point failed", zap.Any("params", points[i]), zap.Error(o.Err))
			continue
		}
		val, ok := experiment.Objective(g.objective, o.Trajectory)
		if !ok {
			res.Failed++
			continue
		}
		if g.better(val, res.Value) {
			res.Value = val
			res.Params = points[i]
		}
	}

	if res.Params == nil {
		return res, fmt.Errorf("no grid point produced %s (%d evaluated)", g.objective, res.Evaluated)
	}
	return res, nil
}

func (g *GridSearch) better(val, best float64) bool {
	if g.maximize {
		return val > best
	}
	return val < best
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val
		g.enumerate(depth+1, newParams, out)
	}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

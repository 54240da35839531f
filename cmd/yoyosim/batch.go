package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/yoyosim/internal/experiment"
	"github.com/san-kum/yoyosim/internal/optim"
)

func runSweep(cmd *cobra.Command, args []string) error {
	param := args[0]
	values := make([]float64, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("value %q: %w", a, err)
		}
		values = append(values, v)
	}

	base, err := resolveConfig(cmd, presetName)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	points, err := experiment.Sweep(ctx, base, experiment.NewRegistry(), param, values, workers, logger)
	if err != nil {
		return err
	}

	metricNames := append([]string(nil), base.Metrics...)
	sort.Strings(metricNames)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tREASON\tT_END\tSTEPS", strings.ToUpper(param))
	for _, name := range metricNames {
		fmt.Fprintf(w, "\t%s", strings.ToUpper(name))
	}
	fmt.Fprintln(w)

	for _, p := range points {
		if p.Err != nil {
			fmt.Fprintf(w, "%g\terror: %v\n", p.Value, p.Err)
			logger.Debug("sweep point failed", zap.Float64(param, p.Value), zap.Error(p.Err))
			continue
		}
		tEnd, _ := p.Trajectory.Final()
		fmt.Fprintf(w, "%g\t%s\t%.6f\t%d", p.Value, p.Trajectory.Reason, tEnd, p.Trajectory.Stats.Accepted)
		for _, name := range metricNames {
			fmt.Fprintf(w, "\t%.6g", p.Trajectory.Metrics[name])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// parseGrid reads name=lo:hi:n.
func parseGrid(spec string) (string, []float64, error) {
	name, rng, ok := strings.Cut(spec, "=")
	if !ok {
		return "", nil, fmt.Errorf("grid %q: want name=lo:hi:n", spec)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("grid %q: want name=lo:hi:n", spec)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %q: %w", spec, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %q: %w", spec, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n <= 0 {
		return "", nil, fmt.Errorf("grid %q: point count must be a positive integer", spec)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	names := make([]string, 0, len(gridParams))
	ranges := make([][]float64, 0, len(gridParams))
	for _, spec := range gridParams {
		name, values, err := parseGrid(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	base, err := resolveConfig(cmd, presetName)
	if err != nil {
		return err
	}

	g, err := optim.NewGridSearch(names, ranges, objective, maximize, workers)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := g.Search(ctx, base, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	goal := "min"
	if maximize {
		goal = "max"
	}
	fmt.Printf("%s %s = %.6g (%d points, %d failed)\n", goal, objective, res.Value, res.Evaluated, res.Failed)
	for _, name := range names {
		fmt.Printf("  %s: %g\n", name, res.Params[name])
	}
	return nil
}

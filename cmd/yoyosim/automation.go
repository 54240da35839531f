package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/yoyosim/internal/analysis"
	"github.com/san-kum/yoyosim/internal/automation"
	"github.com/san-kum/yoyosim/internal/experiment"
	"github.com/san-kum/yoyosim/internal/export"
	"github.com/san-kum/yoyosim/internal/storage"
)

func phasePortrait(cmd *cobra.Command, args []string) error {
	xIdx, err := export.VarIndex(phaseX)
	if err != nil {
		return err
	}
	yIdx, err := export.VarIndex(phaseY)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	meta, traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	pp, err := analysis.NewPhasePortrait(traj, xIdx, yIdx)
	if err != nil {
		return err
	}

	minX, maxX, minY, maxY := pp.Bounds()
	fmt.Printf("phase portrait: %s vs %s (%s)\n", phaseY, phaseX, meta.ID)
	fmt.Printf("%s: [%.4g, %.4g]  %s: [%.4g, %.4g]\n\n", phaseX, minX, maxX, phaseY, minY, maxY)
	fmt.Print(pp.ASCII(70, 24))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), workers, logger)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(sc.Name))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tREASON\tT_END\tSTEPS\tRUN")
	for i, r := range results {
		label := r.Step.Label(i)
		if r.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", label, r.Err)
			continue
		}

		runID := "-"
		if r.Step.Save {
			runID, err = st.Save(storage.RunMetadata{
				Preset:     r.Step.Preset,
				Integrator: r.Config.Integrator,
				Params:     r.Config.Params.Map(),
				Tolerance:  r.Config.Solver.Tolerance,
			}, r.Trajectory)
			if err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}
			logger.Debug("scenario step saved", zap.String("step", label), zap.String("run", runID))
		}

		tEnd, _ := r.Trajectory.Final()
		fmt.Fprintf(w, "%s\t%s\t%.6f\t%d\t%s\n", label, r.Trajectory.Reason, tEnd, r.Trajectory.Stats.Accepted, runID)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, presetName)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	trials, err := automation.RunMonteCarlo(ctx, base, automation.MonteCarloConfig{
		Trials:       mcTrials,
		Perturbation: mcPerturbation,
		Params:       mcParams,
		Seed:         mcSeed,
	}, experiment.NewRegistry(), workers, logger)
	if err != nil {
		return err
	}

	for _, tr := range trials {
		if tr.Err != nil {
			logger.Debug("trial failed", zap.Int("trial", tr.Index), zap.Error(tr.Err))
		}
	}

	s := automation.Summarize(trials)
	row := func(k, v string) {
		fmt.Println(keyStyle.Render(k) + valStyle.Render(v))
	}
	fmt.Println(titleStyle.Render("unwind time under manufacturing scatter"))
	row("trials", fmt.Sprintf("%d (%d unwound, %d failed)", s.Trials, s.Unwound, s.Failed))
	row("scatter", fmt.Sprintf("±%g%%", mcPerturbation*100))
	if s.Unwound == 0 {
		fmt.Println(warnStyle.Render("no trial unwound before the horizon"))
		return nil
	}
	row("mean", fmt.Sprintf("%.6f s", s.Mean))
	row("std dev", fmt.Sprintf("%.6f s", s.Std))
	row("range", fmt.Sprintf("%.6f .. %.6f s", s.Min, s.Max))
	return nil
}

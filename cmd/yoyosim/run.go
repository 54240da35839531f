package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/yoyosim/internal/config"
	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/experiment"
	"github.com/san-kum/yoyosim/internal/physics"
	"github.com/san-kum/yoyosim/internal/storage"
	"github.com/san-kum/yoyosim/internal/viz"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// resolveConfig layers defaults, the preset, the config file and finally
// any flags the user set explicitly.
func resolveConfig(cmd *cobra.Command, preset string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	for _, name := range physics.ParamNames() {
		if !flags.Changed(flagName(name)) {
			continue
		}
		v, err := flags.GetFloat64(flagName(name))
		if err != nil {
			return nil, err
		}
		if err := cfg.Params.Set(name, v); err != nil {
			return nil, err
		}
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("tol") {
		cfg.Solver.Tolerance = tolerance
	}
	if flags.Changed("event-tol") {
		cfg.Solver.EventTolerance = eventTol
	}
	if flags.Changed("max-steps") {
		cfg.Solver.MaxSteps = maxSteps
	}
	if flags.Changed("metrics") {
		cfg.Metrics = metricList
	}
	if flags.Changed("checkpoints") {
		cfg.Checkpoints = checkpts
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	preset := ""
	if len(args) > 0 {
		preset = args[0]
	}
	cfg, err := resolveConfig(cmd, preset)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	exp := experiment.New(cfg, experiment.NewRegistry(), logger)
	start := time.Now()
	traj, err := exp.Run(ctx)
	if err != nil {
		if reason, ok := dynamo.ReasonOf(err); ok {
			return fmt.Errorf("%s: %w", reason, err)
		}
		return err
	}
	elapsed := time.Since(start)
	logger.Debug("simulation complete", zap.Duration("elapsed", elapsed))

	runID := ""
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err = st.Save(storage.RunMetadata{
			Preset:     preset,
			Integrator: cfg.Integrator,
			Params:     cfg.Params.Map(),
			Tolerance:  cfg.Solver.Tolerance,
		}, traj)
		if err != nil {
			return err
		}
	}

	printSummary(runID, cfg, traj, elapsed)

	if watchAfter {
		title := runID
		if title == "" {
			title = "yoyo"
		}
		return viz.Run(title, cfg.Params, traj)
	}
	return nil
}

func printSummary(runID string, cfg *config.Config, traj *dynamo.Trajectory, elapsed time.Duration) {
	row := func(k, v string) {
		fmt.Println(keyStyle.Render(k) + valStyle.Render(v))
	}

	fmt.Println(titleStyle.Render("yo-yo simulation"))
	if runID != "" {
		row("run id", runID)
	}
	row("integrator", cfg.Integrator)
	row("completed in", elapsed.Round(time.Microsecond).String())

	tEnd, x := traj.Final()
	switch traj.Reason {
	case dynamo.EventTriggered:
		row("unwound at", fmt.Sprintf("%.6f s", tEnd))
	default:
		row("stopped at", fmt.Sprintf("%.6f s", tEnd))
		fmt.Println(warnStyle.Render(fmt.Sprintf("string not unwound: %.6f m still rolled", x[physics.IdxY])))
	}
	row("reason", traj.Reason.String())
	row("final speed", fmt.Sprintf("%.6f m/s", x[physics.IdxV]))
	row("final spin", fmt.Sprintf("%.4f rad/s", x[physics.IdxOmega]))
	row("steps", fmt.Sprintf("%d accepted, %d rejected", traj.Stats.Accepted, traj.Stats.Rejected))
	row("evaluations", fmt.Sprintf("%d", traj.Stats.Evaluations))

	for _, c := range traj.Crossings {
		row(c.Event, fmt.Sprintf("%.6f s", c.Time))
	}

	if len(traj.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		names := make([]string, 0, len(traj.Metrics))
		for name := range traj.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %.6f\n", name, traj.Metrics[name])
		}
	}
}

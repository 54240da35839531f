package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/yoyosim/internal/automation"
	"github.com/san-kum/yoyosim/internal/config"
	"github.com/san-kum/yoyosim/internal/physics"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	workers    int
	integrator string
	tolerance  float64
	eventTol   float64
	maxSteps   int
	metricList []string
	checkpts   []float64
	noSave     bool
	watchAfter bool
	presetName string
	plotVar    string
	outPath    string
	gridParams []string
	objective  string
	maximize   bool
	phaseX     string
	phaseY     string

	mcTrials       int
	mcPerturbation float64
	mcParams       []string
	mcSeed         int64

	logger = zap.NewNop()
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "yoyosim",
		Short:         "falling yo-yo simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", env.DataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", env.LogLevel, "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addModelFlags(runCmd, env)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&watchAfter, "watch", false, "replay the run when it finishes")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a state component as a PNG/SVG/PDF plot",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPlot,
	}
	exportCmd.Flags().StringVar(&plotVar, "var", "y", "state component: "+strings.Join(physics.StateNames, ", "))
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>_<var>.png)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}
	presetsCmd.AddCommand(&cobra.Command{
		Use:   "show [preset]",
		Short: "print a preset as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  showPreset,
	})

	sweepCmd := &cobra.Command{
		Use:   "sweep [param] [value...]",
		Short: "run one simulation per parameter value in parallel",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runSweep,
	}
	addModelFlags(sweepCmd, env)
	sweepCmd.Flags().StringVar(&presetName, "preset", "", "base preset")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search over parameters",
		Args:  cobra.NoArgs,
		RunE:  runSearch,
	}
	addModelFlags(searchCmd, env)
	searchCmd.Flags().StringArrayVar(&gridParams, "grid", nil, "parameter range name=lo:hi:n (repeatable)")
	searchCmd.Flags().StringVar(&objective, "objective", "unwind_time", "unwind_time or a metric name")
	searchCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize instead of minimize")
	searchCmd.Flags().StringVar(&presetName, "preset", "", "base preset")
	_ = searchCmd.MarkFlagRequired("grid")

	watchCmd := &cobra.Command{
		Use:   "watch [run_id]",
		Short: "replay a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  watchRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "draw the phase portrait of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePortrait,
	}
	phaseCmd.Flags().StringVar(&phaseX, "x-axis", "y", "horizontal state component")
	phaseCmd.Flags().StringVar(&phaseY, "y-axis", "v", "vertical state component")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a YAML scenario in parallel",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().IntVar(&workers, "workers", env.Workers, "parallel runs")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "unwind-time statistics under random parameter scatter",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addModelFlags(mcCmd, env)
	mcCmd.Flags().StringVar(&presetName, "preset", "", "base preset")
	mcCmd.Flags().IntVar(&mcTrials, "trials", 100, "number of trials")
	mcCmd.Flags().Float64Var(&mcPerturbation, "scatter", 0.02, "relative half-width of the uniform scatter")
	mcCmd.Flags().StringSliceVar(&mcParams, "vary", automation.DefaultPerturbed, "parameters to scatter")
	mcCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (0 picks one from the clock)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, presetsCmd, sweepCmd, searchCmd, watchCmd,
		phaseCmd, scenarioCmd, mcCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// addModelFlags registers the flags that shape a simulation: one per
// physical parameter plus the solver settings.
func addModelFlags(cmd *cobra.Command, env config.Env) {
	defaults := physics.DefaultParams()
	for _, name := range physics.ParamNames() {
		v, _ := defaults.Get(name)
		cmd.Flags().Float64(flagName(name), v, strings.ReplaceAll(name, "_", " "))
	}

	d := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", env.Config, "config file path (yaml)")
	cmd.Flags().StringVar(&integrator, "integrator", d.Integrator, "integrator (rk45, rk4)")
	cmd.Flags().Float64Var(&tolerance, "tol", d.Solver.Tolerance, "local error tolerance")
	cmd.Flags().Float64Var(&eventTol, "event-tol", d.Solver.EventTolerance, "event localization tolerance")
	cmd.Flags().IntVar(&maxSteps, "max-steps", d.Solver.MaxSteps, "attempted step budget")
	cmd.Flags().StringSliceVar(&metricList, "metrics", d.Metrics, "metrics to record")
	cmd.Flags().Float64SliceVar(&checkpts, "checkpoints", nil, "record when the rolled fraction drops to these values")
	cmd.Flags().IntVar(&workers, "workers", env.Workers, "parallel runs for sweep and search")
}

func flagName(param string) string {
	return strings.ReplaceAll(param, "_", "-")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	return cfg.Build()
}

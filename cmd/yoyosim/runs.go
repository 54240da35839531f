package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/yoyosim/internal/config"
	"github.com/san-kum/yoyosim/internal/export"
	"github.com/san-kum/yoyosim/internal/physics"
	"github.com/san-kum/yoyosim/internal/storage"
	"github.com/san-kum/yoyosim/internal/viz"
)

var captions = []string{
	"theta: spin angle (rad)",
	"omega: spin rate (rad/s)",
	"y: string still rolled (m)",
	"v: rate of change of y (m/s)",
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tPRESET\tINTEG\tTOL\tREASON\tT_END\tSTEPS")

	for _, run := range runs {
		preset := run.Preset
		if preset == "" {
			preset = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0e\t%s\t%.4fs\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			preset,
			run.Integrator,
			run.Tolerance,
			run.Reason,
			run.FinalTime,
			run.Steps,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if traj.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("reason: %s\n", meta.Reason)
	fmt.Printf("samples: %d\n\n", traj.Len())

	for i := range physics.StateNames {
		graph := asciigraph.Plot(traj.Column(i),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(captions[i]),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportPlot(cmd *cobra.Command, args []string) error {
	runID := args[0]
	idx, err := export.VarIndex(plotVar)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	_, traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	p, err := export.StatePlot(traj, idx, fmt.Sprintf("%s: %s", runID, captions[idx]))
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = fmt.Sprintf("%s_%s.png", runID, plotVar)
	}
	if err := export.SaveFile(path, p); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outPath == "" {
		return st.ExportJSON(os.Stdout, args[0])
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := st.ExportJSON(f, args[0]); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func watchRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	p := physics.DefaultParams()
	for name, v := range meta.Params {
		if err := p.Set(name, v); err != nil {
			return fmt.Errorf("run %s: %w", meta.ID, err)
		}
	}
	return viz.Run(meta.ID, p, traj)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tINTEG\tLENGTH\tAXLE\tROLL\tBODY\tMASS\tGRAVITY")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		p := c.Params
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%g\t%g\t%g\n",
			name, c.Integrator, p.StringLength, p.AxleRadius, p.RollRadius, p.BodyRadius, p.Mass, p.Gravity)
	}
	return w.Flush()
}

func showPreset(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

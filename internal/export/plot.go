package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/physics"
)

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

var units = map[string]string{
	"theta": "rad",
	"omega": "rad/s",
	"y":     "m",
	"v":     "m/s",
}

// VarIndex maps a state component name to its index.
func VarIndex(name string) (int, error) {
	for i, n := range physics.StateNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown variable %q (want one of %s)", name, strings.Join(physics.StateNames, ", "))
}

// StatePlot draws one state component against time, with the recorded
// crossings marked on the curve.
func StatePlot(traj *dynamo.Trajectory, idx int, title string) (*plot.Plot, error) {
	if traj.Len() == 0 {
		return nil, fmt.Errorf("trajectory is empty")
	}
	if idx < 0 || idx >= len(physics.StateNames) {
		return nil, fmt.Errorf("state index %d out of range", idx)
	}
	name := physics.StateNames[idx]

	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = vg.Points(8)
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = fmt.Sprintf("%s (%s)", name, units[name])
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, traj.Len())
	for i, t := range traj.Times {
		pts[i].X = t
		pts[i].Y = traj.States[i][idx]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)

	marks := make(plotter.XYs, 0, len(traj.Crossings))
	for _, c := range traj.Crossings {
		if idx < len(c.State) {
			marks = append(marks, plotter.XY{X: c.Time, Y: c.State[idx]})
		}
	}
	if len(marks) > 0 {
		scatter, err := plotter.NewScatter(marks)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("crossings", scatter)
	}

	return p, nil
}

// Write renders p in the given format ("png", "svg", "pdf", ...).
func Write(w io.Writer, p *plot.Plot, format string) error {
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveFile renders p to path, picking the format from the extension.
func SaveFile(path string, p *plot.Plot) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		return fmt.Errorf("%s: missing file extension", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, p, format); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

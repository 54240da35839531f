package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/yoyosim/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D pairs two state components sample by sample.
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

func NewPhasePortrait(traj *dynamo.Trajectory, xIdx, yIdx int) (*PhasePortrait2D, error) {
	if traj == nil || traj.Len() == 0 {
		return nil, fmt.Errorf("trajectory is empty")
	}
	dim := len(traj.States[0])
	if xIdx < 0 || yIdx < 0 || xIdx >= dim || yIdx >= dim {
		return nil, fmt.Errorf("axes %d,%d out of range for %d components", xIdx, yIdx, dim)
	}

	p := &PhasePortrait2D{XIndex: xIdx, YIndex: yIdx, Points: make([]Point, traj.Len())}
	for i, x := range traj.States {
		p.Points[i] = Point{X: x[xIdx], Y: x[yIdx]}
	}
	return p, nil
}

// Bounds returns the extent of the points.
func (p *PhasePortrait2D) Bounds() (minX, maxX, minY, maxY float64) {
	minX, maxX = p.Points[0].X, p.Points[0].X
	minY, maxY = p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX = min(minX, pt.X)
		maxX = max(maxX, pt.X)
		minY = min(minY, pt.Y)
		maxY = max(maxY, pt.Y)
	}
	return
}

// ASCII renders the portrait on a width x height character grid with 10%
// padding, drawing the axes where they fall inside the view.
func (p *PhasePortrait2D) ASCII(width, height int) string {
	if len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := p.Bounds()
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := range canvas {
			canvas[r][c] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := range canvas[r] {
			if canvas[r][c] == '│' {
				canvas[r][c] = '┼'
			} else {
				canvas[r][c] = '─'
			}
		}
	}

	for _, pt := range p.Points {
		canvas[row(pt.Y)][col(pt.X)] = '•'
	}

	var sb strings.Builder
	for _, r := range canvas {
		sb.WriteString(string(r))
		sb.WriteRune('\n')
	}
	return sb.String()
}

package analysis

import (
	"strings"
	"testing"

	"github.com/san-kum/yoyosim/internal/dynamo"
)

func line() *dynamo.Trajectory {
	traj := &dynamo.Trajectory{}
	for i := 0; i <= 4; i++ {
		f := float64(i)
		traj.Append(f, dynamo.State{f, -f, 2 * f})
	}
	return traj
}

func TestNewPhasePortrait(t *testing.T) {
	p, err := NewPhasePortrait(line(), 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(p.Points))
	}
	if p.Points[3] != (Point{X: 3, Y: 6}) {
		t.Errorf("unexpected point %+v", p.Points[3])
	}

	minX, maxX, minY, maxY := p.Bounds()
	if minX != 0 || maxX != 4 || minY != 0 || maxY != 8 {
		t.Errorf("bounds %g %g %g %g", minX, maxX, minY, maxY)
	}
}

func TestNewPhasePortraitErrors(t *testing.T) {
	if _, err := NewPhasePortrait(&dynamo.Trajectory{}, 0, 1); err == nil {
		t.Error("expected error for empty trajectory")
	}
	if _, err := NewPhasePortrait(line(), 0, 3); err == nil {
		t.Error("expected error for out of range axis")
	}
	if _, err := NewPhasePortrait(line(), -1, 0); err == nil {
		t.Error("expected error for negative axis")
	}
}

func TestPhasePortraitASCII(t *testing.T) {
	p, err := NewPhasePortrait(line(), 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	out := p.ASCII(20, 10)
	rows := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if n := len([]rune(r)); n != 20 {
			t.Fatalf("row width %d", n)
		}
	}
	if got := strings.Count(out, "•"); got != 5 {
		t.Errorf("expected 5 points, got %d", got)
	}
	// The origin is a sample, so the axes meet under a point.
	if !strings.Contains(out, "│") || !strings.Contains(out, "─") {
		t.Error("axes should be drawn")
	}

	if p.ASCII(1, 1) != "" {
		t.Error("degenerate canvas should render nothing")
	}
}

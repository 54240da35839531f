package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/physics"
)

func replayFixture(t *testing.T) Replay {
	t.Helper()
	p := physics.DefaultParams()
	traj := &dynamo.Trajectory{
		Reason:    dynamo.EventTriggered,
		Event:     "unwound",
		Metrics:   map[string]float64{"peak_spin": 90},
		Crossings: []dynamo.Crossing{{Event: "half", Time: 0.06}},
	}
	for i := 0; i <= 10; i++ {
		ti := float64(i) * 0.01
		traj.Append(ti, dynamo.State{ti * 10, ti * 100, p.StringLength * (1 - ti*10), -ti})
	}
	m, err := NewReplay("classic", p, traj)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func press(m Replay, key string) (Replay, tea.Cmd) {
	var msg tea.KeyMsg
	if key == " " {
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	} else {
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Replay), cmd
}

func tickN(m Replay, n int) Replay {
	for i := 0; i < n; i++ {
		next, _ := m.Update(TickMsg(time.Now()))
		m = next.(Replay)
	}
	return m
}

func TestNewReplayEmpty(t *testing.T) {
	if _, err := NewReplay("x", physics.DefaultParams(), &dynamo.Trajectory{}); err == nil {
		t.Error("expected error for empty trajectory")
	}
	if _, err := NewReplay("x", physics.DefaultParams(), nil); err == nil {
		t.Error("expected error for nil trajectory")
	}
}

func TestReplayTickAdvances(t *testing.T) {
	m := replayFixture(t)
	next, cmd := m.Update(TickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}
	m = next.(Replay)
	if m.SimTime() <= 0 {
		t.Errorf("simulation time did not advance: %g", m.SimTime())
	}

	m = tickN(m, 5)
	if m.Frame() == 0 {
		t.Error("frame should move after enough ticks")
	}
	if m.SimTime() < m.traj.Times[m.Frame()] {
		t.Errorf("frame %d is ahead of time %g", m.Frame(), m.SimTime())
	}
}

func TestReplayRunsToEnd(t *testing.T) {
	m := tickN(replayFixture(t), 100)
	if m.Playing() {
		t.Error("playback should stop at the last sample")
	}
	if m.Frame() != m.traj.Len()-1 {
		t.Errorf("expected last frame, got %d", m.Frame())
	}

	view := m.View()
	for _, want := range []string{"FINISHED", "event_triggered: unwound", "half @", "peak_spin"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = press(m, " ")
	if !m.Playing() || m.Frame() != 0 {
		t.Error("space at the end should restart")
	}
}

func TestReplayPause(t *testing.T) {
	m, _ := press(replayFixture(t), " ")
	if m.Playing() {
		t.Fatal("space should pause")
	}
	m = tickN(m, 10)
	if m.SimTime() != 0 || m.Frame() != 0 {
		t.Error("paused replay must not advance")
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view should show PAUSED")
	}
}

func TestReplayStepAndSpeed(t *testing.T) {
	m, _ := press(replayFixture(t), "]")
	m, _ = press(m, "]")
	if m.Frame() != 2 || m.Playing() {
		t.Errorf("frame %d playing %v", m.Frame(), m.Playing())
	}
	if m.SimTime() != m.traj.Times[2] {
		t.Errorf("time %g should match sample", m.SimTime())
	}

	for i := 0; i < 5; i++ {
		m, _ = press(m, "[")
	}
	if m.Frame() != 0 {
		t.Errorf("stepping back should stop at 0, got %d", m.Frame())
	}

	for i := 0; i < 10; i++ {
		m, _ = press(m, "+")
	}
	if m.Speed() != maxSpeed {
		t.Errorf("speed %g, want %g", m.Speed(), maxSpeed)
	}
	m, _ = press(m, "-")
	if m.Speed() != maxSpeed/2 {
		t.Errorf("speed %g, want %g", m.Speed(), maxSpeed/2)
	}

	m, _ = press(m, "r")
	if m.Frame() != 0 || !m.Playing() {
		t.Error("r should restart playback")
	}
}

func TestReplayQuit(t *testing.T) {
	_, cmd := press(replayFixture(t), "q")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestCanvas(t *testing.T) {
	c := NewCanvas(4, 2)
	if c.DotsWide() != 8 || c.DotsHigh() != 8 {
		t.Fatalf("dots %dx%d", c.DotsWide(), c.DotsHigh())
	}

	c.Set(3, 5)
	if !c.IsSet(3, 5) || c.IsSet(2, 5) {
		t.Error("Set lit the wrong dot")
	}
	c.Set(-1, 0)
	c.Set(100, 100)

	rows := strings.Split(c.String(), "\n")
	if len(rows) != 2 || len([]rune(rows[0])) != 4 {
		t.Errorf("unexpected layout %q", c.String())
	}

	c.Clear()
	c.DrawLine(0, 0, 7, 7)
	for i := 0; i < 8; i++ {
		if !c.IsSet(i, i) {
			t.Errorf("diagonal dot %d missing", i)
		}
	}

	c.Clear()
	c.DrawCircle(4, 4, 3)
	for _, p := range [][2]int{{7, 4}, {1, 4}, {4, 7}, {4, 1}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("circle missing %v", p)
		}
	}
	if c.IsSet(4, 4) {
		t.Error("circle should not fill its center")
	}

	c.Clear()
	c.DrawSpoke(4, 4, 3, 0)
	if !c.IsSet(4, 1) {
		t.Error("spoke at zero angle should point up")
	}
}

func TestSparklineAndProgress(t *testing.T) {
	if got := Sparkline(nil, 5); got != "─────" {
		t.Errorf("empty sparkline %q", got)
	}
	if !strings.Contains(Sparkline([]float64{0, 1, 2, 3}, 4), "█") {
		t.Error("sparkline should reach the top block")
	}
	if !strings.Contains(ProgressBar(2, 4), "████") {
		t.Error("progress bar should clamp to full")
	}
}

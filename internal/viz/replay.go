package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/physics"
)

const (
	canvasWidth  = 36
	canvasHeight = 22
	frameRate    = 30
	bodyDots     = 7
	handDots     = 2
	sparkWidth   = 30
	maxSpeed     = 16.0
	minSpeed     = 1.0 / 16
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Replay plays back a stored trajectory at simulation time times speed.
type Replay struct {
	title   string
	params  physics.Params
	yo      *physics.YoYo
	traj    *dynamo.Trajectory
	canvas  *Canvas
	simTime float64
	frame   int
	playing bool
	speed   float64
}

func NewReplay(title string, p physics.Params, traj *dynamo.Trajectory) (Replay, error) {
	if traj == nil || traj.Len() == 0 {
		return Replay{}, fmt.Errorf("nothing to replay: trajectory is empty")
	}
	yo, err := physics.New(p)
	if err != nil {
		return Replay{}, err
	}
	return Replay{
		title:   title,
		params:  p,
		yo:      yo,
		traj:    traj,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		simTime: traj.Times[0],
		playing: true,
		speed:   1,
	}, nil
}

// Run replays traj full screen until the user quits.
func Run(title string, p physics.Params, traj *dynamo.Trajectory) error {
	m, err := NewReplay(title, p, traj)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Replay) Init() tea.Cmd { return tick() }

func (m Replay) Frame() int       { return m.frame }
func (m Replay) Playing() bool    { return m.playing }
func (m Replay) Speed() float64   { return m.speed }
func (m Replay) SimTime() float64 { return m.simTime }

func (m Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			if !m.playing && m.atEnd() {
				m.restart()
			} else {
				m.playing = !m.playing
			}
		case "r":
			m.restart()
		case "[", "left", "h":
			m.step(-1)
		case "]", "right", "l":
			m.step(1)
		case "+", "=":
			m.speed = math.Min(m.speed*2, maxSpeed)
		case "-", "_":
			m.speed = math.Max(m.speed/2, minSpeed)
		}
	case TickMsg:
		if m.playing {
			m.advance(m.speed / frameRate)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Replay) restart() {
	m.frame = 0
	m.simTime = m.traj.Times[0]
	m.playing = true
}

func (m *Replay) atEnd() bool { return m.frame == m.traj.Len()-1 }

func (m *Replay) advance(dt float64) {
	tEnd, _ := m.traj.Final()
	m.simTime += dt
	if m.simTime >= tEnd {
		m.simTime = tEnd
		m.playing = false
	}
	m.frame = m.frameAt(m.simTime)
}

// frameAt returns the last sample at or before t.
func (m *Replay) frameAt(t float64) int {
	i := sort.Search(m.traj.Len(), func(i int) bool { return m.traj.Times[i] > t }) - 1
	return max(i, 0)
}

func (m *Replay) step(dir int) {
	m.playing = false
	m.frame = min(max(m.frame+dir, 0), m.traj.Len()-1)
	m.simTime = m.traj.Times[m.frame]
}

func (m Replay) draw() {
	c := m.canvas
	c.Clear()
	x := m.traj.States[m.frame]

	cx := c.DotsWide() / 2
	span := float64(c.DotsHigh() - handDots - 2*bodyDots - 1)
	drop := (m.params.StringLength - x[physics.IdxY]) / m.params.StringLength
	cy := handDots + bodyDots + int(math.Round(drop*span))

	roll := 1
	if r, err := m.yo.Radius(math.Max(x[physics.IdxY], 0)); err == nil {
		roll = max(int(math.Round(bodyDots*r/m.params.BodyRadius)), 1)
	}

	// Hand, string from hand to where it leaves the roll, body and roll.
	c.DrawLine(cx-3, handDots-1, cx+3, handDots-1)
	c.DrawLine(cx+roll, handDots, cx+roll, cy)
	c.DrawCircle(cx, cy, bodyDots)
	c.DrawCircle(cx, cy, roll)
	c.DrawSpoke(cx, cy, bodyDots, x[physics.IdxTheta])
}

func (m Replay) status() string {
	switch {
	case m.playing:
		return "PLAYING"
	case m.atEnd():
		return "FINISHED"
	default:
		return "PAUSED"
	}
}

func (m Replay) View() string {
	m.draw()
	x := m.traj.States[m.frame]
	tEnd, _ := m.traj.Final()

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(fmt.Sprintf("%s  x%g\n\n", m.status(), m.speed))

	frac := 1.0
	if tEnd > 0 {
		frac = m.simTime / tEnd
	}
	s.WriteString(ProgressBar(frac, sparkWidth) + "\n\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("time", fmt.Sprintf("%.4f / %.4f s", m.simTime, tEnd))
	row("sample", fmt.Sprintf("%d / %d", m.frame+1, m.traj.Len()))
	row("rolled", fmt.Sprintf("%.4f m", x[physics.IdxY]))
	row("speed", fmt.Sprintf("%.4f m/s", x[physics.IdxV]))
	row("spin", fmt.Sprintf("%.2f rad/s", x[physics.IdxOmega]))
	row("angle", fmt.Sprintf("%.2f rad", x[physics.IdxTheta]))
	if tension, err := m.yo.Tension(x); err == nil {
		row("tension", fmt.Sprintf("%.4f N", tension))
	}

	s.WriteString("\n" + Sparkline(m.traj.Column(physics.IdxV)[:m.frame+1], sparkWidth) + "\n")

	s.WriteString("\n")
	for _, c := range m.traj.Crossings {
		if c.Time <= m.simTime {
			s.WriteString(eventStyle.Render(fmt.Sprintf("%s @ %.4fs", c.Event, c.Time)) + "\n")
		}
	}
	if m.atEnd() {
		end := m.traj.Reason.String()
		if m.traj.Event != "" {
			end += ": " + m.traj.Event
		}
		s.WriteString(eventStyle.Render(end) + "\n")
	}

	if len(m.traj.Metrics) > 0 {
		names := make([]string, 0, len(m.traj.Metrics))
		for name := range m.traj.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		s.WriteString("\n")
		for _, name := range names {
			row(name, fmt.Sprintf("%.6g", m.traj.Metrics[name]))
		}
	}

	s.WriteString(helpStyle.Render("SP:Pause R:Restart Q:Quit\n[ ]:Step  + -:Speed"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		statsStyle.Render(s.String()))
}

package metrics

import "github.com/san-kum/yoyosim/internal/dynamo"

// Tensioner is a system that can report the tension in its string.
type Tensioner interface {
	Tension(x dynamo.State) (float64, error)
}

// Tension averages string tension over the accepted samples. Samples where
// the tension is undefined are skipped.
type Tension struct {
	name    string
	src     Tensioner
	sum     float64
	samples int
}

func NewTension(src Tensioner) *Tension {
	return &Tension{
		name: "mean_tension",
		src:  src,
	}
}

func (m *Tension) Name() string {
	return m.name
}

func (m *Tension) Observe(x dynamo.State, t float64) {
	v, err := m.src.Tension(x)
	if err != nil {
		return
	}
	m.sum += v
	m.samples++
}

func (m *Tension) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Tension) Reset() {
	m.sum = 0
	m.samples = 0
}

package metrics

import (
	"math"

	"github.com/san-kum/yoyosim/internal/dynamo"
)

// Peak records the largest magnitude reached by one state component.
type Peak struct {
	name  string
	index int
	peak  float64
}

func NewPeak(name string, index int) *Peak {
	return &Peak{
		name:  name,
		index: index,
	}
}

func (p *Peak) Name() string {
	return p.name
}

func (p *Peak) Observe(x dynamo.State, t float64) {
	if p.index >= len(x) {
		return
	}
	p.peak = math.Max(p.peak, math.Abs(x[p.index]))
}

func (p *Peak) Value() float64 {
	return p.peak
}

func (p *Peak) Reset() {
	p.peak = 0
}

package integrators

import (
	"testing"

	"github.com/san-kum/yoyosim/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int { return 2 }
func (b *benchDynamics) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _ = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _ = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK45Adaptive(b *testing.B) {
	integrator := NewRK45()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _, _, _ = integrator.StepAdaptive(dyn, x, 0, 0.01, 1e-8)
	}
}

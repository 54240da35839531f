// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types shared by the
// integrators and the run loop:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator], [AdaptiveIntegrator]: numerical steppers
//   - [Event]: zero-crossing condition checked after each accepted step
//   - [Trajectory]: samples and termination [Reason] of one run
//
// # Example
//
//	yo, _ := physics.New(physics.DefaultParams())
//	s := sim.New(yo, integrators.NewRK45(), physics.UnwoundEvent())
//	traj, err := s.Run(ctx, yo.InitialState(), dynamo.DefaultConfig())
//	if r, ok := dynamo.ReasonOf(err); ok && r == dynamo.NonConvergence {
//	    // step budget exhausted
//	}
//
// # Thread Safety
//
// A Trajectory is owned by the run that produced it. Runs share nothing, so
// independent runs may execute in parallel.
package dynamo

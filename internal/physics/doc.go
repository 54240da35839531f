// Package physics provides the falling yo-yo model and its simulation
// entry points.
//
// [YoYo] implements [dynamo.System] over the state (theta, omega, y, v)
// where y is the string still rolled on the axle. The effective radius
// grows with y as r(y) = sqrt(2*k*y + Rmin^2), with k from [MakeDerived].
// [YoYo] also implements [dynamo.Configurable] for parameter sweeps.
//
// # Simulation
//
// [Simulate] integrates until [UnwoundEvent] fires or the horizon is hit:
//
//	p := physics.DefaultParams()
//	traj, err := physics.Simulate(p, physics.MakeDerived(p), x0, p.Duration, 1e-8)
//	if err == nil && traj.Reason == dynamo.EventTriggered {
//	    tEnd, _ := traj.Final()
//	}
package physics

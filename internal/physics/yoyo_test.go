package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/yoyosim/internal/dynamo"
	"github.com/san-kum/yoyosim/internal/integrators"
	"github.com/san-kum/yoyosim/internal/metrics"
	"github.com/san-kum/yoyosim/internal/physics"
)

// accel is |dv/dt| at constant radius r, used to bracket the unwind time.
func accel(p physics.Params, d physics.Derived, r float64) float64 {
	return p.Mass * p.Gravity * r * r / (d.Inertia + p.Mass*r*r)
}

var _ = Describe("YoYo", func() {
	var p physics.Params

	BeforeEach(func() {
		p = physics.DefaultParams()
	})

	Describe("MakeDerived", func() {
		It("computes inertia and growth for the reference yo-yo", func() {
			d := physics.MakeDerived(p)
			Expect(d.Inertia).To(BeNumerically("~", 3.0625e-5, 1e-15))
			Expect(d.Growth).To(BeNumerically("~", 9.6e-5, 1e-15))
		})
	})

	DescribeTable("radius matches the roll at both ends of the string",
		func(axle, roll, body, length float64) {
			p.AxleRadius, p.RollRadius, p.BodyRadius, p.StringLength = axle, roll, body, length
			yo, err := physics.New(p)
			Expect(err).NotTo(HaveOccurred())

			r0, err := yo.Radius(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(r0).To(BeNumerically("~", axle, 1e-15))

			rL, err := yo.Radius(length)
			Expect(err).NotTo(HaveOccurred())
			Expect(rL).To(BeNumerically("~", roll, 1e-12))
		},
		Entry("reference", 0.008, 0.016, 0.035, 1.0),
		Entry("long string", 0.004, 0.02, 0.03, 2.5),
		Entry("bare axle", 0.0, 0.01, 0.01, 0.3),
		Entry("roll to the rim", 0.005, 0.05, 0.05, 1.2),
	)

	Describe("Radius", func() {
		It("rejects rolled lengths below the physical range", func() {
			yo, _ := physics.New(p)
			_, err := yo.Radius(-1.0)
			Expect(err).To(MatchError(dynamo.ErrDomain))
		})
	})

	DescribeTable("Validate",
		func(mutate func(*physics.Params), ok bool) {
			mutate(&p)
			err := p.Validate()
			if ok {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(dynamo.ErrParameterBounds))
			}
		},
		Entry("defaults", func(*physics.Params) {}, true),
		Entry("axle equals roll", func(p *physics.Params) { p.AxleRadius = p.RollRadius }, false),
		Entry("negative axle", func(p *physics.Params) { p.AxleRadius = -0.001 }, false),
		Entry("roll beyond body", func(p *physics.Params) { p.RollRadius = 0.04 }, false),
		Entry("roll equals body", func(p *physics.Params) { p.RollRadius = p.BodyRadius }, true),
		Entry("zero string", func(p *physics.Params) { p.StringLength = 0 }, false),
		Entry("zero mass", func(p *physics.Params) { p.Mass = 0 }, false),
		Entry("zero gravity", func(p *physics.Params) { p.Gravity = 0 }, false),
		Entry("zero duration", func(p *physics.Params) { p.Duration = 0 }, false),
	)

	Describe("Derive", func() {
		It("keeps the descent slower than free fall and couples spin to descent", func() {
			yo, _ := physics.New(p)
			for _, y := range []float64{0, 0.1, 0.25, 0.5, 0.75, 1.0} {
				x := dynamo.State{0.3, 4, y, -0.5}
				dx, err := yo.Derive(x, 0)
				Expect(err).NotTo(HaveOccurred())

				Expect(dx[physics.IdxTheta]).To(Equal(x[physics.IdxOmega]))
				Expect(dx[physics.IdxY]).To(Equal(x[physics.IdxV]))
				Expect(dx[physics.IdxV]).To(BeNumerically("<", 0))
				Expect(math.Abs(dx[physics.IdxV])).To(BeNumerically("<", p.Gravity))

				r, _ := yo.Radius(y)
				Expect(dx[physics.IdxV]).To(BeNumerically("~", -r*dx[physics.IdxOmega], 1e-12))
			}
		})

		It("fails outside the radius domain", func() {
			yo, _ := physics.New(p)
			_, err := yo.Derive(dynamo.State{0, 0, -10, 0}, 0)
			Expect(err).To(MatchError(dynamo.ErrDomain))
		})

		It("reports tension between zero and the weight", func() {
			yo, _ := physics.New(p)
			tension, err := yo.Tension(yo.InitialState())
			Expect(err).NotTo(HaveOccurred())
			Expect(tension).To(BeNumerically(">", 0))
			Expect(tension).To(BeNumerically("<", p.Mass*p.Gravity))
		})
	})

	Describe("SetParam", func() {
		It("re-derives constants and rejects invalid values", func() {
			yo, _ := physics.New(p)
			Expect(yo.SetParam("string_length", 2.0)).To(Succeed())
			Expect(yo.Derived().Growth).To(BeNumerically("~", 4.8e-5, 1e-15))
			Expect(yo.GetParams()).To(HaveKeyWithValue("string_length", 2.0))

			Expect(yo.SetParam("mass", -1)).To(MatchError(dynamo.ErrParameterBounds))
			Expect(yo.Params().Mass).To(Equal(p.Mass))
			Expect(yo.SetParam("colour", 1)).NotTo(Succeed())
		})
	})
})

var _ = Describe("Simulate", func() {
	var (
		p   physics.Params
		d   physics.Derived
		yo  *physics.YoYo
		tol = 1e-8
	)

	BeforeEach(func() {
		p = physics.DefaultParams()
		d = physics.MakeDerived(p)
		var err error
		yo, err = physics.New(p)
		Expect(err).NotTo(HaveOccurred())
	})

	It("unwinds the reference yo-yo before the horizon", func() {
		traj, err := physics.Simulate(p, d, yo.InitialState(), p.Duration, tol)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.Reason).To(Equal(dynamo.EventTriggered))
		Expect(traj.Event).To(Equal("unwound"))

		tEnd, x := traj.Final()
		Expect(math.Abs(x[physics.IdxY])).To(BeNumerically("<", 1e-4))
		Expect(tEnd).To(BeNumerically(">", 0))
		Expect(tEnd).To(BeNumerically("<", p.Duration))

		// Descent is bracketed by constant accelerations at the two extreme radii.
		fastest := math.Sqrt(2 * p.StringLength / accel(p, d, p.RollRadius))
		slowest := math.Sqrt(2 * p.StringLength / accel(p, d, p.AxleRadius))
		Expect(tEnd).To(BeNumerically(">", fastest))
		Expect(tEnd).To(BeNumerically("<", slowest))
	})

	It("produces a monotone descent and spin-up", func() {
		traj, err := physics.Simulate(p, d, yo.InitialState(), p.Duration, tol)
		Expect(err).NotTo(HaveOccurred())

		for i := 1; i < traj.Len(); i++ {
			Expect(traj.Times[i]).To(BeNumerically(">", traj.Times[i-1]))
			Expect(traj.States[i][physics.IdxY]).To(BeNumerically("<=", traj.States[i-1][physics.IdxY]))
			Expect(traj.States[i][physics.IdxTheta]).To(BeNumerically(">=", traj.States[i-1][physics.IdxTheta]))
		}
	})

	It("is deterministic", func() {
		a, errA := physics.Simulate(p, d, yo.InitialState(), p.Duration, tol)
		b, errB := physics.Simulate(p, d, yo.InitialState(), p.Duration, tol)
		Expect(errA).NotTo(HaveOccurred())
		Expect(errB).NotTo(HaveOccurred())

		Expect(a.Reason).To(Equal(b.Reason))
		ta, _ := a.Final()
		tb, _ := b.Final()
		Expect(ta).To(Equal(tb))
	})

	It("agrees between the embedded and step-doubling integrators", func() {
		a, err := physics.Simulate(p, d, yo.InitialState(), p.Duration, tol)
		Expect(err).NotTo(HaveOccurred())
		b, err := physics.Simulate(p, d, yo.InitialState(), p.Duration, tol,
			physics.WithIntegrator(integrators.NewRK4()))
		Expect(err).NotTo(HaveOccurred())

		ta, _ := a.Final()
		tb, _ := b.Final()
		Expect(tb).To(BeNumerically("~", ta, 1e-6))
	})

	It("stops at the horizon when the string is long enough", func() {
		traj, err := physics.Simulate(p, d, yo.InitialState(), 0.5, tol)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.Reason).To(Equal(dynamo.HorizonReached))

		tEnd, x := traj.Final()
		Expect(tEnd).To(Equal(0.5))
		Expect(x[physics.IdxY]).To(BeNumerically(">", 0))
	})

	It("accelerates more slowly than gravity over a short interval", func() {
		traj, err := physics.Simulate(p, d, yo.InitialState(), 0.05, 1e-10)
		Expect(err).NotTo(HaveOccurred())

		for i := 1; i < traj.Len(); i++ {
			dv := traj.States[i][physics.IdxV] - traj.States[i-1][physics.IdxV]
			dt := traj.Times[i] - traj.Times[i-1]
			Expect(math.Abs(dv / dt)).To(BeNumerically("<", p.Gravity))
		}
	})

	It("records checkpoint crossings without stopping", func() {
		traj, err := physics.Simulate(p, d, yo.InitialState(), p.Duration, tol,
			physics.WithEvents(physics.FractionEvent("half", p, 0.5)))
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.Reason).To(Equal(dynamo.EventTriggered))
		Expect(traj.Crossings).To(HaveLen(1))

		half := traj.Crossings[0]
		Expect(half.Event).To(Equal("half"))
		Expect(half.State[physics.IdxY]).To(BeNumerically("~", 0.5*p.StringLength, 1e-8))
		tEnd, _ := traj.Final()
		Expect(half.Time).To(BeNumerically("<", tEnd))
	})

	It("rejects an already unwound string", func() {
		for _, y := range []float64{0, -0.1} {
			x0 := yo.InitialState()
			x0[physics.IdxY] = y
			traj, err := physics.Simulate(p, d, x0, p.Duration, tol)
			Expect(err).To(MatchError(dynamo.ErrInvalidInitialState))
			Expect(traj).To(BeNil())
		}
	})

	It("fails with non-convergence when the step budget is too small", func() {
		traj, err := physics.Simulate(p, d, yo.InitialState(), p.Duration, tol, physics.WithMaxSteps(1))
		Expect(err).To(MatchError(dynamo.ErrNonConvergence))
		Expect(traj).To(BeNil())

		reason, ok := dynamo.ReasonOf(err)
		Expect(ok).To(BeTrue())
		Expect(reason).To(Equal(dynamo.NonConvergence))
	})

	DescribeTable("unwinds small-axle yo-yos whose last step leaves the radius domain",
		func(axle, roll, length float64, integ func() dynamo.Integrator) {
			p.AxleRadius, p.RollRadius, p.StringLength = axle, roll, length
			d = physics.MakeDerived(p)
			yo, err := physics.New(p)
			Expect(err).NotTo(HaveOccurred())

			traj, err := physics.Simulate(p, d, yo.InitialState(), p.Duration, tol,
				physics.WithIntegrator(integ()))
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Reason).To(Equal(dynamo.EventTriggered))
			Expect(traj.Event).To(Equal("unwound"))

			tEnd, x := traj.Final()
			Expect(math.Abs(x[physics.IdxY])).To(BeNumerically("<=", dynamo.DefaultConfig().EventTolerance))
			Expect(tEnd).To(BeNumerically(">", math.Sqrt(2*length/accel(p, d, roll))))
			Expect(tEnd).To(BeNumerically("<", p.Duration))
		},
		Entry("bare axle", 0.0, 0.016, 1.0, func() dynamo.Integrator { return integrators.NewRK45() }),
		Entry("bare axle, step doubling", 0.0, 0.016, 1.0, func() dynamo.Integrator { return integrators.NewRK4() }),
		Entry("thin axle, short string", 0.001, 0.03, 0.1, func() dynamo.Integrator { return integrators.NewRK45() }),
		Entry("thin axle, short string, step doubling", 0.001, 0.03, 0.1, func() dynamo.Integrator { return integrators.NewRK4() }),
	)

	It("reports energy drift from the string's work rather than from the tolerance", func() {
		drift := func(tol float64) float64 {
			m := metrics.NewEnergyDrift(yo)
			traj, err := physics.Simulate(p, d, yo.InitialState(), p.Duration, tol, physics.WithMetrics(m))
			Expect(err).NotTo(HaveOccurred())
			return traj.Metrics["energy_drift"]
		}

		coarse, fine := drift(1e-6), drift(1e-10)
		Expect(fine).To(BeNumerically(">", 1e-3))
		Expect(coarse).To(BeNumerically("~", fine, 1e-4))
	})

	It("rejects invalid parameters before running", func() {
		p.Mass = 0
		_, err := physics.Simulate(p, d, yo.InitialState(), p.Duration, tol)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})
})

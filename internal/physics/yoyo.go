package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/yoyosim/internal/dynamo"
)

// State layout.
const (
	IdxTheta = iota // spin angle (rad)
	IdxOmega        // spin rate (rad/s)
	IdxY            // string still rolled on the axle (m)
	IdxV            // rate of change of IdxY (m/s), negative while falling
	StateDim
)

// StateNames labels the state components in exports and plots.
var StateNames = []string{"theta", "omega", "y", "v"}

// Params are the physical constants of a yo-yo. Units are SI throughout.
type Params struct {
	AxleRadius   float64 `yaml:"axle_radius" json:"axle_radius"`
	RollRadius   float64 `yaml:"roll_radius" json:"roll_radius"`
	BodyRadius   float64 `yaml:"body_radius" json:"body_radius"`
	Mass         float64 `yaml:"mass" json:"mass"`
	StringLength float64 `yaml:"string_length" json:"string_length"`
	Gravity      float64 `yaml:"gravity" json:"gravity"`
	Duration     float64 `yaml:"duration" json:"duration"`
}

func DefaultParams() Params {
	return Params{
		AxleRadius:   0.008,
		RollRadius:   0.016,
		BodyRadius:   0.035,
		Mass:         0.050,
		StringLength: 1.0,
		Gravity:      9.8,
		Duration:     10.0,
	}
}

func (p Params) Validate() error {
	switch {
	case p.AxleRadius < 0:
		return fmt.Errorf("%w: axle radius %g is negative", dynamo.ErrParameterBounds, p.AxleRadius)
	case p.AxleRadius >= p.RollRadius:
		return fmt.Errorf("%w: axle radius %g must be below roll radius %g", dynamo.ErrParameterBounds, p.AxleRadius, p.RollRadius)
	case p.RollRadius > p.BodyRadius:
		return fmt.Errorf("%w: roll radius %g exceeds body radius %g", dynamo.ErrParameterBounds, p.RollRadius, p.BodyRadius)
	case p.StringLength <= 0:
		return fmt.Errorf("%w: string length %g must be positive", dynamo.ErrParameterBounds, p.StringLength)
	case p.Mass <= 0:
		return fmt.Errorf("%w: mass %g must be positive", dynamo.ErrParameterBounds, p.Mass)
	case p.Gravity <= 0:
		return fmt.Errorf("%w: gravity %g must be positive", dynamo.ErrParameterBounds, p.Gravity)
	case p.Duration <= 0:
		return fmt.Errorf("%w: duration %g must be positive", dynamo.ErrParameterBounds, p.Duration)
	}
	return nil
}

var paramNames = []string{"axle_radius", "roll_radius", "body_radius", "mass", "string_length", "gravity", "duration"}

// ParamNames lists the names accepted by Get and Set.
func ParamNames() []string {
	out := make([]string, len(paramNames))
	copy(out, paramNames)
	return out
}

func (p *Params) field(name string) (*float64, error) {
	switch name {
	case "axle_radius":
		return &p.AxleRadius, nil
	case "roll_radius":
		return &p.RollRadius, nil
	case "body_radius":
		return &p.BodyRadius, nil
	case "mass":
		return &p.Mass, nil
	case "string_length":
		return &p.StringLength, nil
	case "gravity":
		return &p.Gravity, nil
	case "duration":
		return &p.Duration, nil
	}
	return nil, fmt.Errorf("unknown param: %s", name)
}

func (p Params) Get(name string) (float64, error) {
	f, err := p.field(name)
	if err != nil {
		return 0, err
	}
	return *f, nil
}

func (p *Params) Set(name string, value float64) error {
	f, err := p.field(name)
	if err != nil {
		return err
	}
	*f = value
	return nil
}

func (p Params) Map() map[string]float64 {
	m := make(map[string]float64, len(paramNames))
	for _, name := range paramNames {
		m[name], _ = p.Get(name)
	}
	return m
}

// Derived holds the constants computed once from Params.
type Derived struct {
	// Inertia is the body's moment of inertia as a solid cylinder, m*Rout^2/2.
	Inertia float64
	// Growth is k in r(y) = sqrt(2*k*y + Rmin^2).
	Growth float64
}

func MakeDerived(p Params) Derived {
	return Derived{
		Inertia: p.Mass * p.BodyRadius * p.BodyRadius / 2,
		Growth:  (p.RollRadius*p.RollRadius - p.AxleRadius*p.AxleRadius) / (2 * p.StringLength),
	}
}

// YoYo is the falling yo-yo as a dynamo.System.
type YoYo struct {
	params  Params
	derived Derived
}

// New validates p and derives its constants.
func New(p Params) (*YoYo, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &YoYo{params: p, derived: MakeDerived(p)}, nil
}

// NewWithDerived uses precomputed constants instead of deriving them.
func NewWithDerived(p Params, d Derived) (*YoYo, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if d.Inertia <= 0 || d.Growth < 0 {
		return nil, fmt.Errorf("%w: derived constants I=%g k=%g", dynamo.ErrParameterBounds, d.Inertia, d.Growth)
	}
	return &YoYo{params: p, derived: d}, nil
}

func (y *YoYo) Params() Params   { return y.params }
func (y *YoYo) Derived() Derived { return y.derived }

func (y *YoYo) StateDim() int { return StateDim }

func (y *YoYo) InitialState() dynamo.State {
	x := make(dynamo.State, StateDim)
	x[IdxY] = y.params.StringLength
	return x
}

// Radius is the effective radius with rolled string length ys. A negative
// radicand means ys is below its physical range.
func (y *YoYo) Radius(ys float64) (float64, error) {
	r2 := 2*y.derived.Growth*ys + y.params.AxleRadius*y.params.AxleRadius
	if r2 < 0 {
		return 0, fmt.Errorf("%w: radius undefined at y=%g (radicand %g)", dynamo.ErrDomain, ys, r2)
	}
	return math.Sqrt(r2), nil
}

// accelerations returns the linear and angular accelerations at radius r.
func (y *YoYo) accelerations(r float64) (a, alpha float64) {
	m, g := y.params.Mass, y.params.Gravity
	iStar := y.derived.Inertia + m*r*r
	return -m * g * r * r / iStar, m * g * r / iStar
}

func (y *YoYo) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	r, err := y.Radius(x[IdxY])
	if err != nil {
		return nil, err
	}
	a, alpha := y.accelerations(r)

	dx := make(dynamo.State, StateDim)
	dx[IdxTheta] = x[IdxOmega]
	dx[IdxOmega] = alpha
	dx[IdxY] = x[IdxV]
	dx[IdxV] = a
	return dx, nil
}

// Tension is the string tension m*(g+a) = m*g*I/I*.
func (y *YoYo) Tension(x dynamo.State) (float64, error) {
	r, err := y.Radius(x[IdxY])
	if err != nil {
		return 0, err
	}
	a, _ := y.accelerations(r)
	return y.params.Mass * (y.params.Gravity + a), nil
}

// Energy is translational plus rotational kinetic energy plus potential
// energy, with the fully unwound position as the zero of height. The model
// neglects the change of radius in the rolling constraint, so this is only
// approximately conserved.
func (y *YoYo) Energy(x dynamo.State) float64 {
	m := y.params.Mass
	v, omega := x[IdxV], x[IdxOmega]
	return 0.5*m*v*v + 0.5*y.derived.Inertia*omega*omega + m*y.params.Gravity*x[IdxY]
}

func (y *YoYo) GetParams() map[string]float64 {
	return y.params.Map()
}

func (y *YoYo) SetParam(name string, value float64) error {
	next := y.params
	if err := next.Set(name, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	y.params = next
	y.derived = MakeDerived(next)
	return nil
}

// UnwoundEvent fires when the rolled string length falls to zero.
func UnwoundEvent() dynamo.Event {
	return dynamo.Event{
		Name:      "unwound",
		Fn:        func(t float64, x dynamo.State) float64 { return x[IdxY] },
		Terminal:  true,
		Direction: dynamo.Falling,
	}
}

// FractionEvent records, without stopping, the moment the rolled length
// drops to frac of the full string.
func FractionEvent(name string, p Params, frac float64) dynamo.Event {
	level := frac * p.StringLength
	return dynamo.Event{
		Name:      name,
		Fn:        func(t float64, x dynamo.State) float64 { return x[IdxY] - level },
		Direction: dynamo.Falling,
	}
}

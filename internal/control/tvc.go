package control

import (
	"math"

	"github.com/san-kum/tvcsim/internal/sim"
	"github.com/san-kum/tvcsim/internal/spatial"
)

// ThrustCurve is the motor data a TVC needs.
type ThrustCurve interface {
	Thrust(t float64) float64
	BurnTime() float64
}

const (
	DefaultSlewRate    = 10.0 // rad/s
	DefaultGimbalLimit = 0.14 // rad, about 8°
)

// TVC mounts a motor on a two-axis gimbal. Thrust acts along the deflected
// body z axis at the motor offset, so the moment about the CG is
// (offset − cg) × F.
type TVC struct {
	motor  ThrustCurve
	offset spatial.Vector3

	target sim.ServoAngles
	actual sim.ServoAngles

	slewRate float64
	limit    float64
}

type TVCOption func(*TVC)

// WithSlewRate caps how fast each servo moves toward its target.
func WithSlewRate(rate float64) TVCOption {
	return func(c *TVC) { c.slewRate = rate }
}

// WithGimbalLimit clamps setpoints to ±limit on each axis.
func WithGimbalLimit(limit float64) TVCOption {
	return func(c *TVC) { c.limit = limit }
}

func NewTVC(motor ThrustCurve, opts ...TVCOption) *TVC {
	c := &TVC{
		motor:    motor,
		slewRate: DefaultSlewRate,
		limit:    DefaultGimbalLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MoveToMotor sets the thrust application point to the motor's placement
// offset in the design frame.
func (c *TVC) MoveToMotor(offset spatial.Vector3) {
	c.offset = offset
}

func (c *TVC) Offset() spatial.Vector3 { return c.offset }

func (c *TVC) BurnTime() float64 { return c.motor.BurnTime() }

// UpdateSetpoint sets new target angles, clamped to the gimbal limit.
// Non-finite targets are ignored.
func (c *TVC) UpdateSetpoint(x, y float64) {
	if !finite(x) || !finite(y) {
		return
	}
	c.target = sim.ServoAngles{X: clamp(x, c.limit), Y: clamp(y, c.limit)}
}

// ForceToTarget snaps both servos onto their targets.
func (c *TVC) ForceToTarget() {
	c.actual = c.target
}

func (c *TVC) Servo() (target, actual sim.ServoAngles) {
	return c.target, c.actual
}

// Attitude is the gimbal deflection: about body x first, then body y.
func (c *TVC) Attitude() spatial.Quaternion {
	qx := spatial.FromAxisAngle(spatial.UnitX, c.actual.X)
	qy := spatial.FromAxisAngle(spatial.UnitY, c.actual.Y)
	return spatial.HamiltonProduct(qy, qx).Normalize()
}

func (c *TVC) ThrustVector(t float64, cg spatial.Vector3) (spatial.Vector3, spatial.Vector3) {
	thrust := c.motor.Thrust(t)
	if thrust == 0 {
		return spatial.Vector3{}, spatial.Vector3{}
	}
	force := spatial.RotateVector(c.Attitude(), spatial.UnitZ).Scale(thrust)
	moment := c.offset.Sub(cg).Cross(force)
	return force, moment
}

// Step slews each servo toward its target by at most slewRate·dt.
func (c *TVC) Step(dt float64) {
	maxMove := c.slewRate * dt
	c.actual.X = approach(c.actual.X, c.target.X, maxMove)
	c.actual.Y = approach(c.actual.Y, c.target.Y, maxMove)
}

func approach(from, to, maxMove float64) float64 {
	delta := to - from
	if math.Abs(delta) <= maxMove {
		return to
	}
	return from + math.Copysign(maxMove, delta)
}

func clamp(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

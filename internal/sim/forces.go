package sim

import (
	"math"

	"github.com/san-kum/tvcsim/internal/design"
	"github.com/san-kum/tvcsim/internal/spatial"
)

// Drag is the quadratic drag force −½·ρ·Cd·A·|v|·v.
type Drag struct {
	AirDensity float64
	Cd         float64
	Area       float64
}

// DefaultDrag matches a 74 mm airframe.
func DefaultDrag() Drag {
	return Drag{AirDensity: 0.99, Cd: 0.2, Area: math.Pi * 0.037 * 0.037}
}

func (d Drag) Name() string { return "drag" }

func (d Drag) Force(_ float64, s design.State, _ float64) spatial.Vector3 {
	k := 0.5 * d.AirDensity * d.Cd * d.Area
	return s.V.Scale(-k * s.V.Norm())
}

// ConstantForce applies a fixed world-frame force, such as a steady wind load.
type ConstantForce struct {
	Label string
	F     spatial.Vector3
}

func (c ConstantForce) Name() string { return c.Label }

func (c ConstantForce) Force(float64, design.State, float64) spatial.Vector3 {
	return c.F
}

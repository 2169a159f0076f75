package elements

import (
	"fmt"
	"math"

	"github.com/san-kum/tvcsim/internal/spatial"
)

type Kind int

const (
	KindCylinder Kind = iota
	KindTube
	KindCone
	KindHollowCone
)

func (k Kind) String() string {
	switch k {
	case KindCylinder:
		return "cylinder"
	case KindTube:
		return "tube"
	case KindCone:
		return "cone"
	case KindHollowCone:
		return "hollow_cone"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a configuration name onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "cylinder":
		return KindCylinder, nil
	case "tube":
		return KindTube, nil
	case "cone":
		return KindCone, nil
	case "hollow_cone", "hollowcone":
		return KindHollowCone, nil
	}
	return 0, fmt.Errorf("%w: unknown shape %q", ErrConstruction, s)
}

// Shape supplies the principal inertia of a solid of revolution about its own
// centroid for a given mass.
type Shape interface {
	Kind() Kind
	Inertia(mass float64) spatial.Tensor
	Validate() error
}

type Cylinder struct {
	Radius float64
	Height float64
}

func (Cylinder) Kind() Kind { return KindCylinder }

func (c Cylinder) Inertia(m float64) spatial.Tensor {
	ixx := m*c.Height*c.Height/12 + m*c.Radius*c.Radius/4
	return spatial.Diagonal(ixx, ixx, m*c.Radius*c.Radius/2)
}

func (c Cylinder) Validate() error {
	if err := positive("cylinder radius", c.Radius); err != nil {
		return err
	}
	return positive("cylinder height", c.Height)
}

// Tube is a cylindrical shell with a strictly smaller inner radius.
type Tube struct {
	InnerRadius float64
	OuterRadius float64
	Height      float64
}

func (Tube) Kind() Kind { return KindTube }

func (t Tube) Inertia(m float64) spatial.Tensor {
	r2 := t.InnerRadius*t.InnerRadius + t.OuterRadius*t.OuterRadius
	ixx := m / 12 * (3*r2 + t.Height*t.Height)
	return spatial.Diagonal(ixx, ixx, m/2*r2)
}

func (t Tube) Validate() error {
	if err := positive("tube height", t.Height); err != nil {
		return err
	}
	if t.InnerRadius < 0 {
		return fmt.Errorf("%w: tube inner radius must be non-negative, got %g", ErrConstruction, t.InnerRadius)
	}
	if t.OuterRadius <= t.InnerRadius {
		return fmt.Errorf("%w: tube outer radius %g must exceed inner radius %g", ErrConstruction, t.OuterRadius, t.InnerRadius)
	}
	return nil
}

type Cone struct {
	Radius float64
	Height float64
}

func (Cone) Kind() Kind { return KindCone }

func (c Cone) Inertia(m float64) spatial.Tensor {
	ixx := m*c.Height*c.Height/10 + 3*m*c.Radius*c.Radius/20
	return spatial.Diagonal(ixx, ixx, 3*m*c.Radius*c.Radius/10)
}

func (c Cone) Validate() error {
	if err := positive("cone radius", c.Radius); err != nil {
		return err
	}
	return positive("cone height", c.Height)
}

func (c Cone) volume() float64 {
	return math.Pi * c.Radius * c.Radius * c.Height / 3
}

// HollowCone is a solid cone with a smaller coaxial cone removed. Mass is
// shared between the two solids in proportion to their volumes at uniform
// density, and the inner tensor is subtracted from the outer.
type HollowCone struct {
	Inner Cone
	Outer Cone
}

func (HollowCone) Kind() Kind { return KindHollowCone }

func (h HollowCone) Inertia(m float64) spatial.Tensor {
	vo, vi := h.Outer.volume(), h.Inner.volume()
	rho := m / (vo - vi)
	return h.Outer.Inertia(rho * vo).Sub(h.Inner.Inertia(rho * vi))
}

func (h HollowCone) Validate() error {
	if err := h.Outer.Validate(); err != nil {
		return err
	}
	if h.Inner.Radius < 0 || h.Inner.Height < 0 {
		return fmt.Errorf("%w: hollow cone inner dimensions must be non-negative", ErrConstruction)
	}
	if h.Outer.Radius <= h.Inner.Radius {
		return fmt.Errorf("%w: hollow cone outer radius %g must exceed inner radius %g", ErrConstruction, h.Outer.Radius, h.Inner.Radius)
	}
	if h.Outer.Height <= h.Inner.Height {
		return fmt.Errorf("%w: hollow cone outer height %g must exceed inner height %g", ErrConstruction, h.Outer.Height, h.Inner.Height)
	}
	return nil
}

func positive(what string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be positive, got %g", ErrConstruction, what, v)
	}
	return nil
}

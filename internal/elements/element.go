package elements

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/san-kum/tvcsim/internal/spatial"
)

// ID identifies an element. IDs are assigned by a Factory in creation order
// and never reused.
type ID uint64

// Spec is the validated construction record for one element.
type Spec struct {
	Name    string
	Shape   Shape
	Mass    float64
	Dynamic bool

	// Required when Dynamic.
	FloorMass    float64
	BurnDuration float64
}

func (s Spec) Validate() error {
	if s.Shape == nil {
		return fmt.Errorf("%w: %q has no shape", ErrConstruction, s.Name)
	}
	if err := s.Shape.Validate(); err != nil {
		return fmt.Errorf("element %q: %w", s.Name, err)
	}
	if !(s.Mass > 0) || math.IsInf(s.Mass, 0) {
		return fmt.Errorf("%w: %q mass must be positive, got %g", ErrConstruction, s.Name, s.Mass)
	}
	if !s.Dynamic {
		return nil
	}
	if !(s.BurnDuration > 0) {
		return fmt.Errorf("%w: %q burn duration %g", ErrMissingDepletion, s.Name, s.BurnDuration)
	}
	if !(s.FloorMass > 0) {
		return fmt.Errorf("%w: %q floor mass %g", ErrMissingDepletion, s.Name, s.FloorMass)
	}
	if s.FloorMass > s.Mass {
		return fmt.Errorf("%w: %q floor mass %g exceeds initial mass %g", ErrConstruction, s.Name, s.FloorMass, s.Mass)
	}
	return nil
}

// Factory hands out element IDs. Independent factories let concurrent runs
// build their own vehicles without sharing a counter.
type Factory struct {
	next atomic.Uint64
}

func NewFactory() *Factory {
	return &Factory{}
}

// New validates spec and creates an element with the next ID.
func (f *Factory) New(spec Spec) (*Element, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	e := &Element{
		id:      ID(f.next.Add(1) - 1),
		name:    spec.Name,
		shape:   spec.Shape,
		mass:    spec.Mass,
		initial: spec.Mass,
		dynamic: spec.Dynamic,
	}
	if spec.Dynamic {
		e.floor = spec.FloorMass
		e.duration = spec.BurnDuration
		e.rate = (spec.Mass - spec.FloorMass) / spec.BurnDuration
	}
	return e, nil
}

// Element is a rigid mass primitive. Only dynamic elements change, and only
// through Step.
type Element struct {
	id       ID
	name     string
	shape    Shape
	mass     float64
	initial  float64
	dynamic  bool
	floor    float64
	duration float64
	rate     float64
}

func (e *Element) ID() ID                { return e.id }
func (e *Element) Name() string          { return e.name }
func (e *Element) Shape() Shape          { return e.shape }
func (e *Element) IsDynamic() bool       { return e.dynamic }
func (e *Element) Mass() float64         { return e.mass }
func (e *Element) InitialMass() float64  { return e.initial }
func (e *Element) FloorMass() float64    { return e.floor }
func (e *Element) BurnDuration() float64 { return e.duration }

// Rate is the constant depletion rate in kg/s, zero for static elements.
func (e *Element) Rate() float64 { return e.rate }

// Inertia is the body-frame tensor about the centroid at the current mass.
func (e *Element) Inertia() spatial.Tensor {
	return e.shape.Inertia(e.mass)
}

// Depleted reports whether a dynamic element has reached its floor mass.
func (e *Element) Depleted() bool {
	return e.dynamic && e.mass <= e.floor
}

// Step removes rate·dt of mass, never going below the floor. Static and
// depleted elements are left unchanged.
func (e *Element) Step(dt float64) {
	if !e.dynamic || e.mass <= e.floor || dt <= 0 {
		return
	}
	e.mass = math.Max(e.floor, e.mass-e.rate*dt)
}

func (e *Element) String() string {
	state := "static"
	if e.dynamic {
		state = "dynamic"
	}
	return fmt.Sprintf("#%d %s (%s, %s, %.3f kg)", e.id, e.name, e.shape.Kind(), state, e.mass)
}

package design

import (
	"fmt"

	"github.com/san-kum/tvcsim/internal/spatial"
)

// State is the vehicle's world-frame kinematic state.
type State struct {
	R     spatial.Vector3
	V     spatial.Vector3
	Q     spatial.Quaternion
	Omega spatial.Vector3
}

func InitialState() State {
	return State{Q: spatial.Identity()}
}

func (s State) IsValid() bool {
	return s.R.IsValid() && s.V.IsValid() && s.Q.IsValid() && s.Omega.IsValid()
}

// Update is one tick's result. Position and velocity are increments; attitude
// and angular velocity replace the current values.
type Update struct {
	DeltaR spatial.Vector3
	DeltaV spatial.Vector3
	Q      spatial.Quaternion
	Omega  spatial.Vector3
}

func (u Update) IsValid() bool {
	return u.DeltaR.IsValid() && u.DeltaV.IsValid() && u.Q.IsValid() && u.Omega.IsValid()
}

func (d *Design) State() State { return d.state }

// SetState replaces the kinematic state wholesale, for initial conditions.
func (d *Design) SetState(s State) error {
	if !s.IsValid() {
		return ErrInvalidState
	}
	s.Q = s.Q.Normalize()
	d.state = s
	return nil
}

// Merge commits a tick: r += ΔR, v += ΔV, q and ω replaced. A non-finite
// update is rejected and leaves the state untouched.
func (d *Design) Merge(u Update) error {
	if !u.IsValid() {
		return fmt.Errorf("%w: merge rejected", ErrInvalidState)
	}
	next := State{
		R:     d.state.R.Add(u.DeltaR),
		V:     d.state.V.Add(u.DeltaV),
		Q:     u.Q.Normalize(),
		Omega: u.Omega,
	}
	if !next.IsValid() {
		return fmt.Errorf("%w: merge overflow", ErrInvalidState)
	}
	d.state = next
	return nil
}

// BodyAxes returns the body x, y and z unit vectors in the world frame.
func (s State) BodyAxes() (x, y, z spatial.Vector3) {
	return spatial.RotateVector(s.Q, spatial.UnitX),
		spatial.RotateVector(s.Q, spatial.UnitY),
		spatial.RotateVector(s.Q, spatial.UnitZ)
}

package design

import "github.com/san-kum/tvcsim/internal/spatial"

// Placement locates an element relative to the design reference point.
type Placement struct {
	Attitude spatial.Quaternion
	Offset   spatial.Vector3
}

func DefaultPlacement() Placement {
	return Placement{Attitude: spatial.Identity()}
}

// PlaceOption adjusts a placement.
type PlaceOption func(*Placement)

// Translate shifts the offset by delta.
func Translate(delta spatial.Vector3) PlaceOption {
	return func(p *Placement) { p.Offset = p.Offset.Add(delta) }
}

// MoveTo sets the offset outright.
func MoveTo(offset spatial.Vector3) PlaceOption {
	return func(p *Placement) { p.Offset = offset }
}

// Orient replaces the relative attitude.
func Orient(q spatial.Quaternion) PlaceOption {
	return func(p *Placement) { p.Attitude = q.Normalize() }
}

// Rotate composes dq onto the current attitude from the left.
func Rotate(dq spatial.Quaternion) PlaceOption {
	return func(p *Placement) { p.Attitude = spatial.HamiltonProduct(dq, p.Attitude).Normalize() }
}

package integrators

import "github.com/san-kum/tvcsim/internal/spatial"

// Euler advances translation with semi-implicit ordering: the position
// increment uses the start-of-step velocity and is computed before the
// velocity increment.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Translate(v, a spatial.Vector3, dt float64) (dr, dv spatial.Vector3) {
	dr = v.Scale(dt)
	dv = a.Scale(dt)
	return dr, dv
}

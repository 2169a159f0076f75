package integrators

import "github.com/san-kum/tvcsim/internal/spatial"

// EpsilonFactor scales dt into the small-angle cutoff of the exponential map.
const EpsilonFactor = 1e-3

// ExpMap integrates angular velocity with explicit Euler and attitude with
// the quaternion exponential map. ω and q are world-frame quantities, so the
// increment is composed on the left.
type ExpMap struct{}

func NewExpMap() *ExpMap {
	return &ExpMap{}
}

func (e *ExpMap) Name() string { return "expmap" }

func (e *ExpMap) Advance(omega, alpha spatial.Vector3, q spatial.Quaternion, dt float64) (spatial.Quaternion, spatial.Vector3) {
	next := omega.Add(alpha.Scale(dt))
	// (0, ω·dt/2) exponentiates to a rotation of |ω|·dt about ω.
	dq := spatial.Exponentiate(next.Scale(dt/2).Pure(), dt*EpsilonFactor)
	return spatial.HamiltonProduct(dq, q).Normalize(), next
}

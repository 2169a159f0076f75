package integrators

import "github.com/san-kum/tvcsim/internal/spatial"

// RK4 integrates the quaternion kinematics q̇ = ½·(0, ω)⊗q with classic
// fourth-order Runge-Kutta, taking ω to vary linearly across the step.
type RK4 struct {
	k1, k2, k3, k4 spatial.Quaternion
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func qdot(omega spatial.Vector3, q spatial.Quaternion) spatial.Quaternion {
	return spatial.HamiltonProduct(omega.Pure(), q).Scale(0.5)
}

func addScaled(q, k spatial.Quaternion, h float64) spatial.Quaternion {
	return spatial.Quaternion{W: q.W + h*k.W, V: q.V.Add(k.V.Scale(h))}
}

func (r *RK4) Advance(omega, alpha spatial.Vector3, q spatial.Quaternion, dt float64) (spatial.Quaternion, spatial.Vector3) {
	mid := omega.Add(alpha.Scale(dt * 0.5))
	end := omega.Add(alpha.Scale(dt))

	r.k1 = qdot(omega, q)
	r.k2 = qdot(mid, addScaled(q, r.k1, dt*0.5))
	r.k3 = qdot(mid, addScaled(q, r.k2, dt*0.5))
	r.k4 = qdot(end, addScaled(q, r.k3, dt))

	dt6 := dt / 6.0
	out := q
	out = addScaled(out, r.k1, dt6)
	out = addScaled(out, r.k2, 2*dt6)
	out = addScaled(out, r.k3, 2*dt6)
	out = addScaled(out, r.k4, dt6)
	return out.Normalize(), end
}

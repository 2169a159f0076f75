package integrators

import (
	"testing"

	"github.com/san-kum/tvcsim/internal/spatial"
)

func BenchmarkExpMap(b *testing.B) {
	integrator := NewExpMap()
	q := spatial.Identity()
	omega := spatial.Vec(0.1, 0.2, 0.3)
	alpha := spatial.Vec(0.01, 0, -0.01)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q, omega = integrator.Advance(omega, alpha, q, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	q := spatial.Identity()
	omega := spatial.Vec(0.1, 0.2, 0.3)
	alpha := spatial.Vec(0.01, 0, -0.01)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q, omega = integrator.Advance(omega, alpha, q, 0.01)
	}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	r := spatial.Vector3{}
	v := spatial.Vec(0, 0, 30)
	a := spatial.Vec(0, 0, -9.8)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dr, dv := integrator.Translate(v, a, 0.01)
		r = r.Add(dr)
		v = v.Add(dv)
	}
	_ = r
}

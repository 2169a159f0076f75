package spatial

import (
	"fmt"
	"math"
)

// Quaternion is a Hamilton-convention quaternion W + V.X i + V.Y j + V.Z k.
type Quaternion struct {
	W float64
	V Vector3
}

func Identity() Quaternion {
	return Quaternion{W: 1}
}

// NewQuaternion returns the normalized quaternion (w, x, y, z).
func NewQuaternion(w, x, y, z float64) Quaternion {
	return Quaternion{W: w, V: Vector3{x, y, z}}.Normalize()
}

// QuaternionFromSlice builds a normalized quaternion from exactly four components (w, x, y, z).
func QuaternionFromSlice(s []float64) (Quaternion, error) {
	if len(s) != 4 {
		return Quaternion{}, fmt.Errorf("%w: quaternion needs 4 components, got %d", ErrInvalidLength, len(s))
	}
	return NewQuaternion(s[0], s[1], s[2], s[3]), nil
}

// FromAxisAngle returns the rotation of angle radians about axis. A
// degenerate axis yields the identity.
func FromAxisAngle(axis Vector3, angle float64) Quaternion {
	n := axis.Norm()
	if n < 1e-12 {
		return Identity()
	}
	s, c := math.Sincos(angle / 2)
	return Quaternion{W: c, V: axis.Scale(s / n)}.Normalize()
}

func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.V.Dot(q.V))
}

// Normalize returns q scaled to unit norm. The zero quaternion maps to the identity.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n == 0 {
		return Identity()
	}
	return Quaternion{W: q.W / n, V: q.V.Scale(1 / n)}
}

func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{W: q.W, V: q.V.Scale(-1)}
}

func (q Quaternion) Scale(f float64) Quaternion {
	return Quaternion{W: q.W * f, V: q.V.Scale(f)}
}

func (q Quaternion) IsValid() bool {
	return !math.IsNaN(q.W) && !math.IsInf(q.W, 0) && q.V.IsValid()
}

// ApproxEqual reports whether q and o agree component-wise within tol.
func (q Quaternion) ApproxEqual(o Quaternion, tol float64) bool {
	return math.Abs(q.W-o.W) <= tol &&
		math.Abs(q.V.X-o.V.X) <= tol &&
		math.Abs(q.V.Y-o.V.Y) <= tol &&
		math.Abs(q.V.Z-o.V.Z) <= tol
}

func (q Quaternion) Slice() []float64 {
	return []float64{q.W, q.V.X, q.V.Y, q.V.Z}
}

func (q Quaternion) String() string {
	return fmt.Sprintf("(%.4f, %.4fi, %.4fj, %.4fk)", q.W, q.V.X, q.V.Y, q.V.Z)
}

// HamiltonProduct composes q1 ⊗ q2 with q1 applied from the left.
func HamiltonProduct(q1, q2 Quaternion) Quaternion {
	return Quaternion{
		W: q1.W*q2.W - q1.V.Dot(q2.V),
		V: q2.V.Scale(q1.W).Add(q1.V.Scale(q2.W)).Add(q1.V.Cross(q2.V)),
	}
}

// RotateVector applies the sandwich product q ⊗ (0,v) ⊗ q*. q is
// renormalized before use.
func RotateVector(q Quaternion, v Vector3) Vector3 {
	q = q.Normalize()
	return HamiltonProduct(HamiltonProduct(q, v.Pure()), q.Conjugate()).V
}

// Exponentiate maps q = (a, v) to exp(a)·(cos θ, sin θ·v/θ) with θ = |v|.
// When θ ≤ eps the rotation part is the identity, which avoids dividing by
// a vanishing angle.
func Exponentiate(q Quaternion, eps float64) Quaternion {
	scale := math.Exp(q.W)
	theta := q.V.Norm()
	if theta <= eps {
		return Quaternion{W: scale}
	}
	s, c := math.Sincos(theta)
	return Quaternion{W: c * scale, V: q.V.Scale(s / theta * scale)}
}

// RotationMatrix returns I + 2w·S + 2S² where S is the skew matrix of the
// vector part of the normalized q.
func RotationMatrix(q Quaternion) Tensor {
	q = q.Normalize()
	s := Skew(q.V)
	return IdentityTensor().Add(s.Scale(2 * q.W)).Add(s.Mul(s).Scale(2))
}

package spatial

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// singularTol is the relative determinant threshold below which a tensor is
// treated as non-invertible.
const singularTol = 1e-12

// Tensor is a 3×3 matrix. Inertia tensors and rotation matrices share this type.
type Tensor mgl64.Mat3

func IdentityTensor() Tensor {
	return Tensor(mgl64.Ident3())
}

func Diagonal(xx, yy, zz float64) Tensor {
	return Tensor(mgl64.Diag3(mgl64.Vec3{xx, yy, zz}))
}

// TensorFromRows builds a tensor from three rows.
func TensorFromRows(r0, r1, r2 Vector3) Tensor {
	return Tensor(mgl64.Mat3FromRows(r0.mgl(), r1.mgl(), r2.mgl()))
}

// Skew returns the cross-product matrix [v]× so that Skew(v)·u = v × u.
func Skew(v Vector3) Tensor {
	return TensorFromRows(
		Vector3{0, -v.Z, v.Y},
		Vector3{v.Z, 0, -v.X},
		Vector3{-v.Y, v.X, 0},
	)
}

// ParallelAxis returns the inertia contribution of a point mass m at offset
// r from the reference point:
//
//	m·[[y²+z², −xy, −xz], [−xy, x²+z², −yz], [−xz, −yz, x²+y²]]
func ParallelAxis(m float64, r Vector3) Tensor {
	x, y, z := r.X, r.Y, r.Z
	return TensorFromRows(
		Vector3{y*y + z*z, -x * y, -x * z},
		Vector3{-x * y, x*x + z*z, -y * z},
		Vector3{-x * z, -y * z, x*x + y*y},
	).Scale(m)
}

func (t Tensor) m() mgl64.Mat3 { return mgl64.Mat3(t) }

func (t Tensor) At(row, col int) float64 {
	return t.m().At(row, col)
}

func (t Tensor) Row(i int) Vector3 {
	return fromMgl(t.m().Row(i))
}

func (t Tensor) Add(o Tensor) Tensor {
	return Tensor(t.m().Add(o.m()))
}

func (t Tensor) Sub(o Tensor) Tensor {
	return Tensor(t.m().Sub(o.m()))
}

func (t Tensor) Scale(f float64) Tensor {
	return Tensor(t.m().Mul(f))
}

func (t Tensor) Mul(o Tensor) Tensor {
	return Tensor(t.m().Mul3(o.m()))
}

func (t Tensor) MulVec(v Vector3) Vector3 {
	return fromMgl(t.m().Mul3x1(v.mgl()))
}

func (t Tensor) Transpose() Tensor {
	return Tensor(t.m().Transpose())
}

func (t Tensor) Det() float64 {
	return t.m().Det()
}

// Rotate returns R·t·Rᵗ, the tensor expressed in the frame rotated by R.
func (t Tensor) Rotate(r Tensor) Tensor {
	return r.Mul(t).Mul(r.Transpose())
}

// Frobenius returns the Frobenius norm.
func (t Tensor) Frobenius() float64 {
	sum := 0.0
	for _, c := range t {
		sum += c * c
	}
	return math.Sqrt(sum)
}

// Inverse returns the inverse and true, or false when the tensor is singular
// relative to its own scale.
func (t Tensor) Inverse() (Tensor, bool) {
	f := t.Frobenius()
	det := t.Det()
	if f == 0 || math.IsNaN(det) || math.Abs(det) <= singularTol*f*f*f {
		return Tensor{}, false
	}
	return Tensor(t.m().Inv()), true
}

func (t Tensor) IsSymmetric(tol float64) bool {
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if math.Abs(t.At(i, j)-t.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

func (t Tensor) ApproxEqual(o Tensor, tol float64) bool {
	return t.m().ApproxEqualThreshold(o.m(), tol)
}

func (t Tensor) IsValid() bool {
	for _, c := range t {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// PrincipalMoments returns the eigenvalues of the symmetric part of t in
// ascending order.
func (t Tensor) PrincipalMoments() (Vector3, error) {
	data := make([]float64, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			data[i*3+j] = 0.5 * (t.At(i, j) + t.At(j, i))
		}
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(mat.NewSymDense(3, data), false); !ok {
		return Vector3{}, ErrNoConvergence
	}
	vals := eig.Values(nil)
	return Vector3{vals[0], vals[1], vals[2]}, nil
}

func (t Tensor) String() string {
	return fmt.Sprintf("[%v %v %v]", t.Row(0), t.Row(1), t.Row(2))
}

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVectorArithmetic(t *testing.T) {
	a := Vec(1, 2, 3)
	b := Vec(4, 5, 6)

	require.Equal(t, Vec(5, 7, 9), a.Add(b))
	require.Equal(t, Vec(3, 3, 3), b.Sub(a))
	require.Equal(t, Vec(2, 4, 6), a.Scale(2))
	require.Equal(t, 32.0, a.Dot(b))
	require.Equal(t, Vec(-3, 6, -3), a.Cross(b))
	require.InDelta(t, 5.0, Vec(3, 4, 0).Norm(), 1e-12)
	require.InDelta(t, 1.0, a.Unit().Norm(), 1e-12)
	require.Equal(t, Vector3{}, Vector3{}.Unit())
}

func TestSkewMatchesCross(t *testing.T) {
	v := Vec(0.3, -1.2, 2)
	u := Vec(4, 0.5, -0.7)
	got := Skew(v).MulVec(u)
	want := v.Cross(u)
	require.InDelta(t, want.X, got.X, 1e-12)
	require.InDelta(t, want.Y, got.Y, 1e-12)
	require.InDelta(t, want.Z, got.Z, 1e-12)
}

func TestParallelAxis(t *testing.T) {
	m := 2.0
	r := Vec(1, 2, 3)
	got := ParallelAxis(m, r)

	want := TensorFromRows(
		Vec(2*(4+9), -2*2, -2*3),
		Vec(-2*2, 2*(1+9), -2*6),
		Vec(-2*3, -2*6, 2*(1+4)),
	)
	require.True(t, got.ApproxEqual(want, 1e-12), "got %v want %v", got, want)
	require.True(t, got.IsSymmetric(1e-12))
}

func TestTensorRowsAndAt(t *testing.T) {
	tt := TensorFromRows(Vec(1, 2, 3), Vec(4, 5, 6), Vec(7, 8, 9))
	require.Equal(t, 2.0, tt.At(0, 1))
	require.Equal(t, 4.0, tt.At(1, 0))
	require.Equal(t, Vec(7, 8, 9), tt.Row(2))
	require.Equal(t, Vec(1+4+9, 4+10+18, 7+16+27), tt.MulVec(Vec(1, 2, 3)))
}

func TestInverse(t *testing.T) {
	inertia := Diagonal(0.02, 0.02, 0.0004).Add(ParallelAxis(0.1, Vec(0, 0.01, 0.3)))
	inv, ok := inertia.Inverse()
	require.True(t, ok)
	require.True(t, inertia.Mul(inv).ApproxEqual(IdentityTensor(), 1e-9))
}

func TestInverse_Singular(t *testing.T) {
	_, ok := Diagonal(1, 1, 0).Inverse()
	require.False(t, ok)

	_, ok = Tensor{}.Inverse()
	require.False(t, ok)

	// a point mass on the z axis has no inertia about z
	_, ok = ParallelAxis(1, Vec(0, 0, 2)).Inverse()
	require.False(t, ok)
}

func TestRotatePreservesTrace(t *testing.T) {
	inertia := Diagonal(3, 2, 1)
	r := RotationMatrix(FromAxisAngle(Vec(1, 1, 0), 0.9))
	rotated := inertia.Rotate(r)

	trace := rotated.At(0, 0) + rotated.At(1, 1) + rotated.At(2, 2)
	require.InDelta(t, 6.0, trace, 1e-12)
	require.True(t, rotated.IsSymmetric(1e-12))
}

func TestPrincipalMoments(t *testing.T) {
	inertia := Diagonal(3, 1, 2).Rotate(RotationMatrix(FromAxisAngle(Vec(0.2, 1, -0.4), 1.1)))
	moments, err := inertia.PrincipalMoments()
	require.NoError(t, err)
	require.InDelta(t, 1.0, moments.X, 1e-9)
	require.InDelta(t, 2.0, moments.Y, 1e-9)
	require.InDelta(t, 3.0, moments.Z, 1e-9)
}

func TestIsValid(t *testing.T) {
	require.True(t, Vec(1, 2, 3).IsValid())
	require.False(t, Vec(math.NaN(), 0, 0).IsValid())
	require.False(t, Diagonal(math.Inf(1), 1, 1).IsValid())
	require.False(t, Quaternion{W: math.NaN()}.IsValid())
}

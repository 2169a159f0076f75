// Package spatial provides the vector and quaternion kernel used by the
// rigid-body engine.
//
//   - [Vector3]: three real components with the usual linear algebra
//   - [Quaternion]: Hamilton-convention rotation quaternion (scalar W, vector V)
//   - [Tensor]: 3×3 matrix used for inertia tensors and rotation matrices
//
// # Conventions
//
// Quaternions compose left to right as operators: HamiltonProduct(q1, q2)
// applies q1 from the left. RotateVector(q, v) computes q ⊗ (0,v) ⊗ q*, which
// equals RotationMatrix(q)·v. Every constructor that yields an attitude
// quaternion renormalizes explicitly; the raw HamiltonProduct does not, so that
// it can also be used on pure (vector) quaternions.
//
// # Example
//
//	q := spatial.FromAxisAngle(spatial.Vec(0, 0, 1), math.Pi/2)
//	v := spatial.RotateVector(q, spatial.Vec(1, 0, 0)) // ≈ (0, 1, 0)
package spatial

// Package design assembles mass elements into a single rigid vehicle.
//
// A Design holds two partitions of placed elements. Static elements never
// change once the design is locked, so LockStatics folds them into one cached
// mass, center of gravity and inertia triple and drops the per-element
// records. Dynamic elements (motors) are consolidated afresh on every call.
//
// Frames:
//
//   - Placements and centers of gravity are expressed in the design frame,
//     which is the vehicle body frame with its origin at the design reference
//     point.
//   - Sub-aggregate inertias are taken about that reference point.
//   - The kinematic State (position, velocity, attitude, angular velocity) is
//     always the world-frame truth.
//
// The lifecycle is Open -> Locked with no way back. Placement changes to
// static elements are rejected with ErrIllegalState once locked; dynamic
// elements stay adjustable.
package design

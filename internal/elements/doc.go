// Package elements models the mass elements a vehicle is assembled from.
//
// Every element has a Shape that supplies a closed-form inertia tensor about
// its own centroid in its own body frame. The shape's axis of revolution is
// body z, so every tensor is diagonal with Ixx = Iyy.
//
// Dynamic elements lose mass linearly from their initial mass down to a floor
// over a fixed burn duration. Static elements never change.
package elements

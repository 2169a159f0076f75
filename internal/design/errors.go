package design

import "errors"

var (
	// ErrNotFound indicates an element id that is not part of the design.
	ErrNotFound = errors.New("design: element not found")

	// ErrIllegalState indicates a mutation the lock state forbids.
	ErrIllegalState = errors.New("design: illegal state")

	// ErrZeroMass indicates a design whose total mass is zero.
	ErrZeroMass = errors.New("design: total mass is zero")

	// ErrInvalidState indicates a kinematic update containing NaN or Inf.
	ErrInvalidState = errors.New("design: invalid kinematic state (NaN or Inf)")
)

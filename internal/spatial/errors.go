package spatial

import "errors"

var (
	// ErrInvalidLength indicates a slice of the wrong size was used to build a vector or quaternion.
	ErrInvalidLength = errors.New("spatial: invalid component count")

	// ErrNoConvergence indicates the symmetric eigen decomposition failed.
	ErrNoConvergence = errors.New("spatial: eigen decomposition did not converge")
)

package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/tvcsim/internal/design"
)

var (
	// ErrSingularInertia indicates a consolidated inertia tensor that cannot be inverted.
	ErrSingularInertia = errors.New("sim: singular inertia tensor")

	// ErrInvalidState indicates a tick that produced NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig indicates a run configuration that cannot be simulated.
	ErrInvalidConfig = errors.New("sim: invalid config")

	// ErrZeroMass is the design's zero-mass fault, re-exported for callers
	// that only import sim.
	ErrZeroMass = design.ErrZeroMass
)

// SimulationError carries the tick at which a run failed.
type SimulationError struct {
	Step    int
	Time    float64
	State   design.State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

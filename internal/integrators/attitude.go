package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/tvcsim/internal/spatial"
)

// Attitude advances angular velocity and orientation over one step given
// the angular acceleration.
type Attitude interface {
	Name() string
	Advance(omega, alpha spatial.Vector3, q spatial.Quaternion, dt float64) (spatial.Quaternion, spatial.Vector3)
}

// Translator advances linear state and returns the increments.
type Translator interface {
	Translate(v, a spatial.Vector3, dt float64) (dr, dv spatial.Vector3)
}

var attitudeFactories = map[string]func() Attitude{
	"expmap": func() Attitude { return NewExpMap() },
	"rk4":    func() Attitude { return NewRK4() },
}

// NewAttitude returns a fresh attitude integrator by name. An empty name
// selects the exponential map.
func NewAttitude(name string) (Attitude, error) {
	if name == "" {
		name = "expmap"
	}
	factory, ok := attitudeFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntegrator, name)
	}
	return factory(), nil
}

func AttitudeNames() []string {
	names := make([]string, 0, len(attitudeFactories))
	for n := range attitudeFactories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

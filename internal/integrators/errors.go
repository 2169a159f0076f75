package integrators

import "errors"

var ErrUnknownIntegrator = errors.New("integrators: unknown attitude integrator")

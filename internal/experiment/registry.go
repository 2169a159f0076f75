package experiment

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/tvcsim/internal/config"
	"github.com/san-kum/tvcsim/internal/control"
	"github.com/san-kum/tvcsim/internal/integrators"
	"github.com/san-kum/tvcsim/internal/motor"
	"github.com/san-kum/tvcsim/internal/sim"
)

// ControllerFactory builds a thrust controller for a configured vehicle. m
// is nil when the configuration carries no motor.
type ControllerFactory func(cfg *config.Config, m *motor.Motor) (sim.ThrustController, error)

type Registry struct {
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{controllers: make(map[string]ControllerFactory)}

	r.controllers["none"] = func(*config.Config, *motor.Motor) (sim.ThrustController, error) {
		return control.NewNone(), nil
	}
	r.controllers["tvc"] = func(cfg *config.Config, m *motor.Motor) (sim.ThrustController, error) {
		if m == nil {
			return nil, fmt.Errorf("%w: tvc controller needs a motor", sim.ErrInvalidConfig)
		}
		tvc := control.NewTVC(m,
			control.WithGimbalLimit(cfg.Motor.GimbalLimit*math.Pi/180),
			control.WithSlewRate(cfg.Motor.SlewRate*math.Pi/180))
		tvc.MoveToMotor(cfg.Motor.Offset.Vector())
		return tvc, nil
	}
	return r
}

func (r *Registry) GetController(name string, cfg *config.Config, m *motor.Motor) (sim.ThrustController, error) {
	fn, ok := r.controllers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown controller: %s", sim.ErrInvalidConfig, name)
	}
	return fn(cfg, m)
}

func (r *Registry) GetIntegrator(name string) (integrators.Attitude, error) {
	return integrators.NewAttitude(name)
}

func (r *Registry) ListControllers() []string {
	names := make([]string, 0, len(r.controllers))
	for name := range r.controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string {
	return integrators.AttitudeNames()
}

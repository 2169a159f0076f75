// Package experiment turns a vehicle configuration into a ready-to-run
// simulator: elements, design, motor, controller, setpoint sources and
// telemetry.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"

	"github.com/san-kum/tvcsim/internal/config"
	"github.com/san-kum/tvcsim/internal/control"
	"github.com/san-kum/tvcsim/internal/design"
	"github.com/san-kum/tvcsim/internal/elements"
	"github.com/san-kum/tvcsim/internal/logging"
	"github.com/san-kum/tvcsim/internal/metrics"
	"github.com/san-kum/tvcsim/internal/motor"
	"github.com/san-kum/tvcsim/internal/sim"
	"github.com/san-kum/tvcsim/internal/spatial"
	"github.com/san-kum/tvcsim/internal/telemetry"
)

type Experiment struct {
	cfg      *config.Config
	catalog  *motor.Catalog
	registry *Registry
	log      logging.Log

	sources   []sim.SetpointSource
	observers []sim.Observer
}

type Option func(*Experiment)

func WithCatalog(c *motor.Catalog) Option {
	return func(e *Experiment) { e.catalog = c }
}

func WithLogger(l logging.Log) Option {
	return func(e *Experiment) { e.log = l }
}

// WithSetpointSource adds a source polled after the configured ones, such as
// a keyboard-driven control.Manual.
func WithSetpointSource(src sim.SetpointSource) Option {
	return func(e *Experiment) { e.sources = append(e.sources, src) }
}

func WithObserver(o sim.Observer) Option {
	return func(e *Experiment) { e.observers = append(e.observers, o) }
}

func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		log:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalog == nil {
		c, err := motor.Default()
		if err != nil {
			return nil, err
		}
		e.catalog = c
	}
	return e, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Vehicle is one assembled simulation and the resources it holds.
type Vehicle struct {
	Sim        *sim.Simulator
	Design     *design.Design
	Controller sim.ThrustController
	Motor      *motor.Motor
	MotorID    elements.ID
	Bridge     *telemetry.Bridge
	// Autopilot is set when the PID autopilot flies the vehicle, so its
	// gains can be retuned in flight.
	Autopilot *control.Autopilot

	closers []io.Closer
}

// Close releases network resources held by the vehicle.
func (v *Vehicle) Close() error {
	var errs []error
	for _, c := range v.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Build assembles a vehicle. The seed drives motor randomization when the
// configuration asks for it. Telemetry, extra setpoint sources and observers
// are attached only to live builds.
func (e *Experiment) Build(ctx context.Context, seed int64, live bool) (*Vehicle, error) {
	cfg := e.cfg
	factory := elements.NewFactory()
	d, err := design.New()
	if err != nil {
		return nil, err
	}

	for i, ec := range cfg.Elements {
		spec, err := ec.Spec()
		if err != nil {
			return nil, fmt.Errorf("element %d (%s): %w", i, ec.Name, err)
		}
		el, err := factory.New(spec)
		if err != nil {
			return nil, err
		}
		if err := d.Add(el, ec.PlaceOptions()...); err != nil {
			return nil, err
		}
	}

	v := &Vehicle{Design: d}
	useMotor := strings.EqualFold(cfg.Controller, "tvc")
	if useMotor {
		m, err := e.catalog.Get(cfg.Motor.Name)
		if err != nil {
			return nil, err
		}
		var rng *rand.Rand
		if cfg.Motor.Randomize {
			rng = rand.New(rand.NewSource(seed))
		}
		el, err := factory.New(m.ElementSpec(rng))
		if err != nil {
			return nil, fmt.Errorf("motor %s: %w", m.Name(), err)
		}
		if err := d.Add(el, design.MoveTo(cfg.Motor.Offset.Vector()), design.Orient(cfg.Motor.Attitude.Quaternion())); err != nil {
			return nil, err
		}
		v.Motor, v.MotorID = m, el.ID()
	}

	tc, err := e.registry.GetController(cfg.Controller, cfg, v.Motor)
	if err != nil {
		return nil, err
	}
	att, err := e.registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sim.ErrInvalidConfig, err)
	}
	v.Controller = tc

	opts := []sim.Option{
		sim.WithAttitudeIntegrator(att),
		sim.WithLogger(e.log.With(logging.String("vehicle", cfg.Name), logging.Int64("seed", seed))),
	}
	if useMotor {
		opts = append(opts, sim.WithThrustElement(v.MotorID))
	}
	s := sim.New(d, tc, opts...)
	v.Sim = s

	if cfg.Drag.Enabled {
		s.AddForce(sim.Drag{AirDensity: cfg.Drag.AirDensity, Cd: cfg.Drag.Cd, Area: cfg.Drag.Area})
	}
	if wind := cfg.Wind.Vector(); wind != (spatial.Vector3{}) {
		s.AddForce(sim.ConstantForce{Label: "wind", F: wind})
	}
	if len(cfg.Setpoints) > 0 {
		points := make([]control.Setpoint, len(cfg.Setpoints))
		for i, sp := range cfg.Setpoints {
			points[i] = control.Setpoint{Step: sp.Step, X: sp.X * math.Pi / 180, Y: sp.Y * math.Pi / 180}
		}
		s.AddSetpointSource(control.NewSchedule(points...))
	}
	if cfg.Autopilot.Enabled {
		src := autopilot(cfg.Autopilot)
		if ap, ok := src.(*control.Autopilot); ok {
			v.Autopilot = ap
		}
		s.AddSetpointSource(src)
	}
	if live {
		for _, src := range e.sources {
			s.AddSetpointSource(src)
		}
		for _, o := range e.observers {
			s.AddObserver(o)
		}
	}
	for _, m := range metrics.Default(cfg.Gravity.Vector().Norm()) {
		s.AddMetric(m)
	}

	if live && cfg.Telemetry.URL != "" {
		b, err := telemetry.Dial(ctx, cfg.Telemetry.URL,
			telemetry.WithQueueSize(cfg.Telemetry.QueueSize),
			telemetry.WithLogger(e.log.With(logging.String("component", "telemetry"))))
		if err != nil {
			return nil, err
		}
		s.AddSetpointSource(b)
		s.AddAttitudeSink(b)
		v.Bridge = b
		v.closers = append(v.closers, b)
	}
	return v, nil
}

func autopilot(ac config.AutopilotConfig) sim.SetpointSource {
	if strings.EqualFold(ac.Mode, "feedback") {
		return control.NewStateFeedback(ac.KTilt, ac.KRate)
	}
	ap := control.NewAutopilot(ac.Kp, ac.Ki, ac.Kd)
	if ac.Every > 0 {
		ap.Every = ac.Every
	}
	return ap
}

// Run builds the vehicle with the configured seed and flies it.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	v, err := e.Build(ctx, e.cfg.Seed, true)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := v.Close(); err != nil {
			e.log.Warn("closing vehicle", logging.Error(err))
		}
	}()
	return v.Sim.Run(ctx, e.cfg.Sim())
}

// BuildFunc returns an ensemble builder. Members are never live, so they
// share no state.
func (e *Experiment) BuildFunc() sim.BuildFunc {
	return func(seed int64) (*sim.Simulator, error) {
		v, err := e.Build(context.Background(), seed, false)
		if err != nil {
			return nil, err
		}
		return v.Sim, nil
	}
}

// Ensemble flies n dispersed copies with seeds starting at the configured
// seed. Members that fault keep their partial result and error.
func (e *Experiment) Ensemble(ctx context.Context, n, concurrency int) ([]sim.Member, error) {
	ens := sim.NewEnsemble(e.BuildFunc(), n, e.cfg.Seed)
	ens.SetConcurrency(concurrency)
	return ens.Run(ctx, e.cfg.Sim())
}

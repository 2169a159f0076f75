package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/tvcsim/internal/design"
	"github.com/san-kum/tvcsim/internal/elements"
	"github.com/san-kum/tvcsim/internal/integrators"
	"github.com/san-kum/tvcsim/internal/logging"
	"github.com/san-kum/tvcsim/internal/spatial"
)

// Simulator owns a Design for the duration of a run and advances it one
// tick at a time. It is single-threaded and deterministic for fixed inputs.
type Simulator struct {
	design     *design.Design
	tc         ThrustController
	attitude   integrators.Attitude
	translator integrators.Translator

	thrustID  elements.ID
	hasThrust bool

	forces    []ExternalForce
	setpoints []SetpointSource
	sinks     []AttitudeSink
	metrics   []Metric
	observers []Observer
	log       logging.Log
	keepTrace bool

	step int
	t    float64
}

type Option func(*Simulator)

// WithThrustElement names the element whose relative attitude follows the
// controller after every tick.
func WithThrustElement(id elements.ID) Option {
	return func(s *Simulator) {
		s.thrustID = id
		s.hasThrust = true
	}
}

func WithAttitudeIntegrator(a integrators.Attitude) Option {
	return func(s *Simulator) { s.attitude = a }
}

func WithLogger(l logging.Log) Option {
	return func(s *Simulator) { s.log = l }
}

// WithoutTrace stops Run from keeping per-tick records. Observers and
// metrics still see every tick.
func WithoutTrace() Option {
	return func(s *Simulator) { s.keepTrace = false }
}

func New(d *design.Design, tc ThrustController, opts ...Option) *Simulator {
	s := &Simulator{
		design:     d,
		tc:         tc,
		attitude:   integrators.NewExpMap(),
		translator: integrators.NewEuler(),
		log:        logging.NewNop(),
		keepTrace:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddForce(f ExternalForce)           { s.forces = append(s.forces, f) }
func (s *Simulator) AddSetpointSource(p SetpointSource) { s.setpoints = append(s.setpoints, p) }
func (s *Simulator) AddAttitudeSink(k AttitudeSink)     { s.sinks = append(s.sinks, k) }
func (s *Simulator) AddMetric(m Metric)                 { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)             { s.observers = append(s.observers, o) }

func (s *Simulator) Design() *design.Design { return s.design }
func (s *Simulator) Time() float64          { return s.t }
func (s *Simulator) StepCount() int         { return s.step }

// Step advances one tick. On error nothing is merged into the design and
// the run should be abandoned.
func (s *Simulator) Step(cfg Config) (Record, error) {
	d := s.design
	dt := cfg.Dt
	state := d.State()

	props, err := d.TemporaryProperties()
	if err != nil {
		return Record{}, s.fault(err, state)
	}
	inv, ok := props.Inertia.Inverse()
	if !ok {
		return Record{}, s.fault(ErrSingularInertia, state)
	}

	fBody, mBody := s.tc.ThrustVector(s.t, props.CG)
	force := spatial.RotateVector(state.Q, fBody)
	moment := spatial.RotateVector(state.Q, mBody)

	force = force.Add(cfg.Gravity.Scale(props.Mass))
	for _, f := range s.forces {
		force = force.Add(f.Force(s.t, state, props.Mass))
	}

	// Euler's equation: α = I⁻¹·(M − ω×(I·ω))
	gyro := state.Omega.Cross(props.Inertia.MulVec(state.Omega))
	alpha := inv.MulVec(moment.Sub(gyro))
	accel := force.Scale(1 / props.Mass)
	if s.step < cfg.RailSteps && accel.Z < 0 {
		accel.Z = 0
	}

	q, omega := s.attitude.Advance(state.Omega, alpha, state.Q, dt)
	dr, dv := s.translator.Translate(state.V, accel, dt)

	update := design.Update{DeltaR: dr, DeltaV: dv, Q: q, Omega: omega}
	if cfg.ValidateState && (!update.IsValid() || !alpha.IsValid() || !accel.IsValid()) {
		return Record{}, s.fault(ErrInvalidState, state)
	}
	if err := d.Merge(update); err != nil {
		return Record{}, s.fault(fmt.Errorf("%w: %v", ErrInvalidState, err), state)
	}

	committed := d.State()
	rec := Record{
		Step:         s.step + 1,
		Time:         s.t + dt,
		Position:     committed.R,
		Velocity:     committed.V,
		Acceleration: accel,
		Omega:        committed.Omega,
		Alpha:        alpha,
		Attitude:     committed.Q,
		Mass:         props.Mass,
		Thrust:       fBody.Norm(),
	}
	rec.BodyX, rec.BodyY, rec.BodyZ = committed.BodyAxes()
	if sr, ok := s.tc.(ServoReporter); ok {
		rec.TargetServo, rec.ActualServo = sr.Servo()
	}

	d.Step(dt)
	s.tc.Step(dt)
	s.step++
	s.t += dt

	s.pollSetpoints(committed)
	if s.hasThrust {
		if err := d.Place(s.thrustID, design.Orient(s.tc.Attitude())); err != nil {
			return rec, s.fault(err, committed)
		}
	}
	for _, sink := range s.sinks {
		if err := sink.SendAttitude(committed.Q); err != nil {
			s.log.Warn("attitude sink failed", logging.Int("step", s.step), logging.Error(err))
		}
	}

	return rec, nil
}

func (s *Simulator) pollSetpoints(state design.State) {
	steer, ok := s.tc.(Steerable)
	if !ok {
		return
	}
	for _, src := range s.setpoints {
		if x, y, ok := src.Setpoint(s.step, s.t, state); ok {
			steer.UpdateSetpoint(x, y)
		}
	}
}

func (s *Simulator) fault(err error, state design.State) error {
	return &SimulationError{Step: s.step, Time: s.t, State: state, Wrapped: err}
}

// Run ticks until the vehicle returns to the ground after MinSteps ticks,
// the horizon is reached, or ctx is canceled between ticks. A numeric fault
// ends the run and is returned alongside the partial result.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	result := &Result{
		Metrics: make(map[string]float64),
		Reason:  TerminationHorizon,
	}
	if s.keepTrace {
		result.Records = make([]Record, 0, steps)
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	s.log.Info("run started",
		logging.Float64("dt", cfg.Dt),
		logging.Float64("duration", cfg.Duration),
		logging.Int("steps", steps))

	var runErr error
	for s.step < steps {
		select {
		case <-ctx.Done():
			result.Reason = TerminationCanceled
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		rec, err := s.Step(cfg)
		if err != nil {
			result.Reason = TerminationFault
			runErr = err
			s.log.Error("run aborted", logging.Int("step", s.step), logging.Float64("t", s.t), logging.Error(err))
			break
		}

		for _, m := range s.metrics {
			m.Observe(rec)
		}
		for _, obs := range s.observers {
			obs.OnStep(rec)
		}
		if s.keepTrace {
			result.Records = append(result.Records, rec)
		}

		if s.step > cfg.MinSteps && rec.Position.Z <= 0 {
			result.Reason = TerminationLanded
			break
		}
	}

	result.StepsTaken = s.step
	result.Time = s.t
	result.Final = s.design.State()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if runErr == nil || errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		s.log.Info("run finished",
			logging.String("reason", string(result.Reason)),
			logging.Int("steps", result.StepsTaken),
			logging.Float64("t", result.Time))
	}
	return result, runErr
}

package sim

import (
	"fmt"

	"github.com/san-kum/tvcsim/internal/design"
	"github.com/san-kum/tvcsim/internal/spatial"
)

// ThrustController supplies the propulsive force and moment and steers the
// thrust element.
type ThrustController interface {
	// ThrustVector returns force and moment in the body frame about cg.
	ThrustVector(t float64, cg spatial.Vector3) (force, moment spatial.Vector3)
	Step(dt float64)
	// Attitude is the thrust element's deflection relative to the body.
	Attitude() spatial.Quaternion
}

// Steerable controllers accept gimbal setpoints in radians.
type Steerable interface {
	UpdateSetpoint(x, y float64)
}

type ServoAngles struct {
	X, Y float64
}

// ServoReporter exposes commanded and actual gimbal angles for the trace.
type ServoReporter interface {
	Servo() (target, actual ServoAngles)
}

// ExternalForce returns a world-frame force acting at the CG.
type ExternalForce interface {
	Name() string
	Force(t float64, s design.State, mass float64) spatial.Vector3
}

// SetpointSource is polled once per tick. ok is false when there is nothing
// new; sources must never block.
type SetpointSource interface {
	Setpoint(step int, t float64, s design.State) (x, y float64, ok bool)
}

// AttitudeSink receives the committed attitude after every tick.
type AttitudeSink interface {
	SendAttitude(q spatial.Quaternion) error
}

type Metric interface {
	Name() string
	Observe(rec Record)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(rec Record)
}

type Config struct {
	Dt       float64
	Duration float64
	// MinSteps ticks must complete before ground contact ends the run.
	MinSteps int
	// RailSteps is the number of opening ticks during which downward
	// acceleration is cancelled by the launch rail.
	RailSteps     int
	Gravity       spatial.Vector3
	ValidateState bool
	Seed          int64
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      20,
		MinSteps:      100,
		Gravity:       spatial.Vec(0, 0, -9.8),
		ValidateState: true,
	}
}

func (c Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.Dt)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, c.Duration)
	}
	if c.MinSteps < 0 || c.RailSteps < 0 {
		return fmt.Errorf("%w: step guards must be non-negative", ErrInvalidConfig)
	}
	if !c.Gravity.IsValid() {
		return fmt.Errorf("%w: gravity %v", ErrInvalidConfig, c.Gravity)
	}
	return nil
}

// Steps is the number of ticks in the configured horizon.
func (c Config) Steps() int {
	return int(c.Duration/c.Dt + 0.5)
}

// Record is one committed tick.
type Record struct {
	Step int
	Time float64

	Position     spatial.Vector3
	Velocity     spatial.Vector3
	Acceleration spatial.Vector3
	Omega        spatial.Vector3
	Alpha        spatial.Vector3
	Attitude     spatial.Quaternion

	BodyX, BodyY, BodyZ spatial.Vector3

	TargetServo ServoAngles
	ActualServo ServoAngles

	Mass   float64
	Thrust float64
}

type Termination string

const (
	TerminationLanded   Termination = "landed"
	TerminationHorizon  Termination = "horizon"
	TerminationCanceled Termination = "canceled"
	TerminationFault    Termination = "fault"
)

type Result struct {
	Records    []Record
	StepsTaken int
	Time       float64
	Reason     Termination
	Final      design.State
	Metrics    map[string]float64
}

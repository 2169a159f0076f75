package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tvcsim/internal/design"
	"github.com/san-kum/tvcsim/internal/elements"
	"github.com/san-kum/tvcsim/internal/integrators"
	"github.com/san-kum/tvcsim/internal/sim"
	"github.com/san-kum/tvcsim/internal/spatial"
)

const (
	DefaultDt        = 0.01
	DefaultDuration  = 20.0
	DefaultMinSteps  = 100
	DefaultRailSteps = 10
	DefaultMotor     = "E12"
	DefaultKp        = 1.2
	DefaultKi        = 0.05
	DefaultKd        = 0.3
)

// Vec3 is written as a YAML sequence [x, y, z].
type Vec3 [3]float64

func (v Vec3) Vector() spatial.Vector3 { return spatial.Vec(v[0], v[1], v[2]) }

type Config struct {
	Name       string  `yaml:"name"`
	Integrator string  `yaml:"integrator"`
	Controller string  `yaml:"controller"`
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	MinSteps   int     `yaml:"min_steps"`
	RailSteps  int     `yaml:"rail_steps"`
	Seed       int64   `yaml:"seed"`
	Gravity    Vec3    `yaml:"gravity"`
	// Wind is a steady world-frame force in newtons.
	Wind Vec3 `yaml:"wind,omitempty"`

	Drag      DragConfig       `yaml:"drag"`
	Motor     MotorConfig      `yaml:"motor"`
	Elements  []ElementConfig  `yaml:"elements"`
	Autopilot AutopilotConfig  `yaml:"autopilot"`
	Setpoints []SetpointConfig `yaml:"setpoints,omitempty"`
	Telemetry TelemetryConfig  `yaml:"telemetry,omitempty"`
}

type DragConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Cd         float64 `yaml:"cd"`
	Area       float64 `yaml:"area"`
	AirDensity float64 `yaml:"air_density"`
}

type MotorConfig struct {
	Name      string         `yaml:"name"`
	Offset    Vec3           `yaml:"offset"`
	Attitude  AttitudeConfig `yaml:"attitude,omitempty"`
	Randomize bool           `yaml:"randomize"`
	// Gimbal settings in degrees and degrees per second.
	GimbalLimit float64 `yaml:"gimbal_limit"`
	SlewRate    float64 `yaml:"slew_rate"`
}

// AttitudeConfig is a rotation of AngleDeg degrees about Axis.
type AttitudeConfig struct {
	Axis     Vec3    `yaml:"axis"`
	AngleDeg float64 `yaml:"angle_deg"`
}

func (a AttitudeConfig) Quaternion() spatial.Quaternion {
	return spatial.FromAxisAngle(a.Axis.Vector(), a.AngleDeg*math.Pi/180)
}

// ElementConfig describes one element. Shape selects which size fields
// apply: radius and height for cylinder and cone, inner_radius, outer_radius
// and height for tube, and all of radius, height, inner_radius and
// inner_height for hollow_cone.
type ElementConfig struct {
	Name        string         `yaml:"name"`
	Shape       string         `yaml:"shape"`
	Mass        float64        `yaml:"mass"`
	Radius      float64        `yaml:"radius,omitempty"`
	Height      float64        `yaml:"height,omitempty"`
	InnerRadius float64        `yaml:"inner_radius,omitempty"`
	OuterRadius float64        `yaml:"outer_radius,omitempty"`
	InnerHeight float64        `yaml:"inner_height,omitempty"`
	Position    Vec3           `yaml:"position"`
	Attitude    AttitudeConfig `yaml:"attitude,omitempty"`

	Dynamic      bool    `yaml:"dynamic,omitempty"`
	FloorMass    float64 `yaml:"floor_mass,omitempty"`
	BurnDuration float64 `yaml:"burn_duration,omitempty"`
}

type AutopilotConfig struct {
	Enabled bool `yaml:"enabled"`
	// Mode is pid or feedback.
	Mode    string  `yaml:"mode"`
	Kp      float64 `yaml:"kp"`
	Ki      float64 `yaml:"ki"`
	Kd      float64 `yaml:"kd"`
	// Every decimates the loop to one update per N ticks.
	Every int `yaml:"every"`
	// Tilt and rate gains for feedback mode.
	KTilt float64 `yaml:"k_tilt,omitempty"`
	KRate float64 `yaml:"k_rate,omitempty"`
}

// SetpointConfig commands the gimbal to (X, Y) degrees at a tick.
type SetpointConfig struct {
	Step int     `yaml:"step"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

type TelemetryConfig struct {
	URL       string `yaml:"url"`
	QueueSize int    `yaml:"queue_size"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "custom",
		Integrator: "expmap",
		Controller: "tvc",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		MinSteps:   DefaultMinSteps,
		RailSteps:  DefaultRailSteps,
		Gravity:    Vec3{0, 0, -9.8},
		Drag: DragConfig{
			Cd:         0.2,
			Area:       math.Pi * 0.037 * 0.037,
			AirDensity: 0.99,
		},
		Motor: MotorConfig{
			Name:        DefaultMotor,
			Offset:      Vec3{0, 0, -0.4},
			GimbalLimit: 8,
			SlewRate:    573,
		},
		Autopilot: AutopilotConfig{
			Mode:  "pid",
			Kp:    DefaultKp,
			Ki:    DefaultKi,
			Kd:    DefaultKd,
			Every: 1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) Validate() error {
	if err := c.Sim().Validate(); err != nil {
		return err
	}
	if _, err := integrators.NewAttitude(c.Integrator); err != nil {
		return fmt.Errorf("%w: %v", sim.ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Controller) {
	case "tvc":
		if c.Motor.Name == "" {
			return fmt.Errorf("%w: tvc controller needs a motor", sim.ErrInvalidConfig)
		}
	case "none":
	default:
		return fmt.Errorf("%w: unknown controller %q", sim.ErrInvalidConfig, c.Controller)
	}
	if c.Drag.Enabled && (c.Drag.Cd < 0 || c.Drag.Area < 0 || c.Drag.AirDensity < 0) {
		return fmt.Errorf("%w: drag coefficients must be non-negative", sim.ErrInvalidConfig)
	}
	if c.Motor.GimbalLimit < 0 || c.Motor.SlewRate < 0 {
		return fmt.Errorf("%w: gimbal limit and slew rate must be non-negative", sim.ErrInvalidConfig)
	}
	for i, e := range c.Elements {
		if _, err := e.Spec(); err != nil {
			return fmt.Errorf("%w: element %d (%s): %v", sim.ErrInvalidConfig, i, e.Name, err)
		}
	}
	switch strings.ToLower(c.Autopilot.Mode) {
	case "", "pid", "feedback":
	default:
		return fmt.Errorf("%w: unknown autopilot mode %q", sim.ErrInvalidConfig, c.Autopilot.Mode)
	}
	if !c.Wind.Vector().IsValid() {
		return fmt.Errorf("%w: wind %v", sim.ErrInvalidConfig, c.Wind)
	}
	for _, sp := range c.Setpoints {
		if sp.Step < 0 {
			return fmt.Errorf("%w: setpoint step %d", sim.ErrInvalidConfig, sp.Step)
		}
	}
	return nil
}

// Sim returns the step loop settings.
func (c *Config) Sim() sim.Config {
	return sim.Config{
		Dt:            c.Dt,
		Duration:      c.Duration,
		MinSteps:      c.MinSteps,
		RailSteps:     c.RailSteps,
		Gravity:       c.Gravity.Vector(),
		ValidateState: true,
		Seed:          c.Seed,
	}
}

// Spec converts the entry into an element spec.
func (e ElementConfig) Spec() (elements.Spec, error) {
	kind, err := elements.ParseKind(e.Shape)
	if err != nil {
		return elements.Spec{}, err
	}

	var shape elements.Shape
	switch kind {
	case elements.KindCylinder:
		shape = elements.Cylinder{Radius: e.Radius, Height: e.Height}
	case elements.KindTube:
		shape = elements.Tube{InnerRadius: e.InnerRadius, OuterRadius: e.OuterRadius, Height: e.Height}
	case elements.KindCone:
		shape = elements.Cone{Radius: e.Radius, Height: e.Height}
	case elements.KindHollowCone:
		shape = elements.HollowCone{
			Inner: elements.Cone{Radius: e.InnerRadius, Height: e.InnerHeight},
			Outer: elements.Cone{Radius: e.Radius, Height: e.Height},
		}
	}

	spec := elements.Spec{
		Name:         e.Name,
		Shape:        shape,
		Mass:         e.Mass,
		Dynamic:      e.Dynamic,
		FloorMass:    e.FloorMass,
		BurnDuration: e.BurnDuration,
	}
	return spec, spec.Validate()
}

// PlaceOptions positions the element in the design frame.
func (e ElementConfig) PlaceOptions() []design.PlaceOption {
	return []design.PlaceOption{
		design.MoveTo(e.Position.Vector()),
		design.Orient(e.Attitude.Quaternion()),
	}
}

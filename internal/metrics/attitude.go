package metrics

import (
	"math"

	"github.com/san-kum/tvcsim/internal/sim"
)

// TiltDeg is the angle between the body z axis and world vertical.
func TiltDeg(rec sim.Record) float64 {
	c := math.Max(-1, math.Min(1, rec.BodyZ.Z))
	return math.Acos(c) * 180 / math.Pi
}

// MaxTilt is the largest tilt from vertical, in degrees.
type MaxTilt struct {
	max float64
}

func NewMaxTilt() *MaxTilt { return &MaxTilt{} }

func (m *MaxTilt) Name() string           { return "max_tilt_deg" }
func (m *MaxTilt) Observe(rec sim.Record) { m.max = math.Max(m.max, TiltDeg(rec)) }
func (m *MaxTilt) Value() float64         { return m.max }
func (m *MaxTilt) Reset()                 { m.max = 0 }

// Stability is the fraction of ticks spent within threshold degrees of
// vertical.
type Stability struct {
	threshold  float64
	violations int
	samples    int
}

func NewStability(thresholdDeg float64) *Stability {
	return &Stability{threshold: thresholdDeg}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(rec sim.Record) {
	s.samples++
	if TiltDeg(rec) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// ControlEffort is the mean absolute gimbal deflection in degrees.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort_deg" }

func (c *ControlEffort) Observe(rec sim.Record) {
	c.sum += (math.Abs(rec.ActualServo.X) + math.Abs(rec.ActualServo.Y)) * 180 / math.Pi
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

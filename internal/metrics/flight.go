// Package metrics reduces a flight to scalar figures of merit. Every metric
// implements sim.Metric and is reset at the start of each run.
package metrics

import (
	"math"

	"github.com/san-kum/tvcsim/internal/sim"
)

// Default returns a fresh set of the standard flight metrics. gravity is
// the magnitude of the run's gravitational acceleration.
func Default(gravity float64) []sim.Metric {
	return []sim.Metric{
		NewApogee(),
		NewMaxSpeed(),
		NewMaxTilt(),
		NewFinalMass(),
		NewFlightTime(),
		NewControlEffort(),
		NewStability(15),
		NewEnergy(gravity),
	}
}

// Apogee is the highest altitude reached, in metres.
type Apogee struct {
	max float64
}

func NewApogee() *Apogee { return &Apogee{} }

func (a *Apogee) Name() string           { return "apogee" }
func (a *Apogee) Observe(rec sim.Record) { a.max = math.Max(a.max, rec.Position.Z) }
func (a *Apogee) Value() float64         { return a.max }
func (a *Apogee) Reset()                 { a.max = 0 }

type MaxSpeed struct {
	max float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string           { return "max_speed" }
func (m *MaxSpeed) Observe(rec sim.Record) { m.max = math.Max(m.max, rec.Velocity.Norm()) }
func (m *MaxSpeed) Value() float64         { return m.max }
func (m *MaxSpeed) Reset()                 { m.max = 0 }

// FinalMass is the vehicle mass at the last observed tick.
type FinalMass struct {
	mass float64
}

func NewFinalMass() *FinalMass { return &FinalMass{} }

func (f *FinalMass) Name() string           { return "final_mass" }
func (f *FinalMass) Observe(rec sim.Record) { f.mass = rec.Mass }
func (f *FinalMass) Value() float64         { return f.mass }
func (f *FinalMass) Reset()                 { f.mass = 0 }

type FlightTime struct {
	t float64
}

func NewFlightTime() *FlightTime { return &FlightTime{} }

func (f *FlightTime) Name() string           { return "flight_time" }
func (f *FlightTime) Observe(rec sim.Record) { f.t = rec.Time }
func (f *FlightTime) Value() float64         { return f.t }
func (f *FlightTime) Reset()                 { f.t = 0 }

// Energy tracks the peak specific mechanical energy ½|v|² + g·z in J/kg.
type Energy struct {
	gravity float64
	peak    float64
	seen    bool
}

func NewEnergy(gravity float64) *Energy {
	return &Energy{gravity: gravity}
}

func (e *Energy) Name() string { return "peak_energy" }

func (e *Energy) Observe(rec sim.Record) {
	v := rec.Velocity.Norm()
	en := 0.5*v*v + e.gravity*rec.Position.Z
	if !e.seen || en > e.peak {
		e.peak = en
		e.seen = true
	}
}

func (e *Energy) Value() float64 { return e.peak }

func (e *Energy) Reset() {
	e.peak = 0
	e.seen = false
}

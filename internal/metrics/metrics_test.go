package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/tvcsim/internal/sim"
	"github.com/san-kum/tvcsim/internal/spatial"
)

func rec(tm, z, speed, mass float64, bodyZ spatial.Vector3) sim.Record {
	return sim.Record{
		Time:     tm,
		Position: spatial.Vec(0, 0, z),
		Velocity: spatial.Vec(0, 0, speed),
		BodyZ:    bodyZ,
		Mass:     mass,
	}
}

func TestFlightMetrics(t *testing.T) {
	flight := []sim.Record{
		rec(0.01, 0.1, 5, 0.73, spatial.UnitZ),
		rec(0.02, 40, 30, 0.70, spatial.UnitZ),
		rec(0.03, 55, -2, 0.68, spatial.Vec(0, math.Sin(0.2), math.Cos(0.2))),
		rec(0.04, 0, -20, 0.68, spatial.UnitZ),
	}

	ms := Default(9.8)
	for _, m := range ms {
		for _, r := range flight {
			m.Observe(r)
		}
	}

	want := map[string]float64{
		"apogee":       55,
		"max_speed":    30,
		"max_tilt_deg": 0.2 * 180 / math.Pi,
		"final_mass":   0.68,
		"flight_time":  0.04,
		"stability":    1,
		"peak_energy":  0.5*30*30 + 9.8*40,
	}
	for _, m := range ms {
		w, ok := want[m.Name()]
		if !ok {
			continue
		}
		if math.Abs(m.Value()-w) > 1e-9 {
			t.Errorf("%s = %f, want %f", m.Name(), m.Value(), w)
		}
	}
}

func TestMetricsReset(t *testing.T) {
	for _, m := range Default(9.8) {
		m.Observe(rec(1, 10, 10, 1, spatial.UnitX))
		m.Reset()
		if m.Name() == "stability" {
			if m.Value() != 1 {
				t.Errorf("stability after reset = %f", m.Value())
			}
			continue
		}
		if m.Value() != 0 {
			t.Errorf("%s after reset = %f", m.Name(), m.Value())
		}
	}
}

func TestStabilityThreshold(t *testing.T) {
	s := NewStability(10)
	s.Observe(rec(0, 0, 0, 1, spatial.UnitZ))
	s.Observe(rec(0, 0, 0, 1, spatial.UnitX))
	if s.Value() != 0.5 {
		t.Errorf("expected half the ticks upright, got %f", s.Value())
	}
}

func TestControlEffort(t *testing.T) {
	c := NewControlEffort()
	c.Observe(sim.Record{ActualServo: sim.ServoAngles{X: math.Pi / 180, Y: -math.Pi / 180}})
	c.Observe(sim.Record{})
	if math.Abs(c.Value()-1) > 1e-12 {
		t.Errorf("control effort = %f, want 1", c.Value())
	}
}

func TestTiltDeg(t *testing.T) {
	if d := TiltDeg(sim.Record{BodyZ: spatial.Vec(0, 0, -1)}); math.Abs(d-180) > 1e-12 {
		t.Errorf("inverted tilt = %f", d)
	}
	if d := TiltDeg(sim.Record{BodyZ: spatial.Vec(0, 0, 1.0000000001)}); d != 0 {
		t.Errorf("tilt should clamp rounding, got %f", d)
	}
}

func TestDefaultEnergyUsesGravity(t *testing.T) {
	r := rec(1, 10, 2, 1, spatial.UnitZ)
	for _, g := range []float64{9.8, 1.62} {
		for _, m := range Default(g) {
			if m.Name() != "peak_energy" {
				continue
			}
			m.Observe(r)
			if want := 0.5*2*2 + g*10; math.Abs(m.Value()-want) > 1e-12 {
				t.Errorf("g=%.2f: peak_energy = %f, want %f", g, m.Value(), want)
			}
		}
	}
}

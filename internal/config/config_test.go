package config

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/tvcsim/internal/elements"
	"github.com/san-kum/tvcsim/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Controller != "tvc" {
		t.Errorf("expected controller tvc, got %s", cfg.Controller)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("demo")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if len(cfg.Elements) != 3 {
		t.Errorf("expected 3 airframe elements, got %d", len(cfg.Elements))
	}
	if !cfg.Autopilot.Enabled {
		t.Error("demo flies with the autopilot")
	}

	cfg.Elements = nil
	if again := GetPreset("demo"); len(again.Elements) != 3 {
		t.Error("presets must not share state between calls")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %v", len(Presets), names)
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestElementSpec(t *testing.T) {
	tests := []struct {
		name string
		in   ElementConfig
		kind elements.Kind
	}{
		{"cylinder", ElementConfig{Shape: "cylinder", Mass: 1, Radius: 0.1, Height: 1}, elements.KindCylinder},
		{"tube", ElementConfig{Shape: "tube", Mass: 1, InnerRadius: 0.1, OuterRadius: 0.2, Height: 1}, elements.KindTube},
		{"cone", ElementConfig{Shape: "cone", Mass: 1, Radius: 0.1, Height: 1}, elements.KindCone},
		{"hollow cone", ElementConfig{Shape: "hollow_cone", Mass: 1, Radius: 0.1, Height: 1, InnerRadius: 0.05, InnerHeight: 0.9}, elements.KindHollowCone},
	}
	for _, tt := range tests {
		spec, err := tt.in.Spec()
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if spec.Shape.Kind() != tt.kind {
			t.Errorf("%s: kind %v", tt.name, spec.Shape.Kind())
		}
	}

	if _, err := (ElementConfig{Shape: "sphere", Mass: 1}).Spec(); err == nil {
		t.Error("unknown shape should fail")
	}
	if _, err := (ElementConfig{Shape: "tube", Mass: 1, InnerRadius: 0.2, OuterRadius: 0.1, Height: 1}).Spec(); !errors.Is(err, elements.ErrConstruction) {
		t.Errorf("inverted tube: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"integrator", func(c *Config) { c.Integrator = "leapfrog" }},
		{"controller", func(c *Config) { c.Controller = "lqr" }},
		{"missing motor", func(c *Config) { c.Motor.Name = "" }},
		{"bad element", func(c *Config) { c.Elements = []ElementConfig{{Shape: "cone", Mass: -1, Radius: 1, Height: 1}} }},
		{"setpoint step", func(c *Config) { c.Setpoints = []SetpointConfig{{Step: -1}} }},
		{"autopilot mode", func(c *Config) { c.Autopilot.Mode = "lqr" }},
		{"wind", func(c *Config) { c.Wind = Vec3{math.NaN(), 0, 0} }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, sim.ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", tt.name, err)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tilted.yaml")
	want := GetPreset("tilted")
	if err := Save(path, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Name != "tilted" || len(got.Setpoints) != 3 || got.Setpoints[1].Y != 3 {
		t.Errorf("round trip lost data: %+v", got)
	}
	if got.Elements[1].Position != (Vec3{0, 0, 0.4}) {
		t.Errorf("nose position = %v", got.Elements[1].Position)
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("name: short\nduration: 3\nmotor:\n  name: F15\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Duration != 3 || cfg.Motor.Name != "F15" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Dt != DefaultDt || cfg.Motor.Offset != (Vec3{0, 0, -0.4}) {
		t.Errorf("defaults lost: dt=%v offset=%v", cfg.Dt, cfg.Motor.Offset)
	}

	if _, err := Parse([]byte("dt: -1\n")); !errors.Is(err, sim.ErrInvalidConfig) {
		t.Errorf("invalid yaml config should fail validation, got %v", err)
	}
}

func TestAttitudeConfig(t *testing.T) {
	q := AttitudeConfig{Axis: Vec3{1, 0, 0}, AngleDeg: 90}.Quaternion()
	if math.Abs(q.W-math.Cos(math.Pi/4)) > 1e-12 || math.Abs(q.V.X-math.Sin(math.Pi/4)) > 1e-12 {
		t.Errorf("quaternion = %v", q)
	}

	sc := DefaultConfig().Sim()
	if sc.RailSteps != DefaultRailSteps || sc.Gravity.Z != -9.8 {
		t.Errorf("sim config = %+v", sc)
	}
}

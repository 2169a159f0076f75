package config

import "sort"

// airframe is the 74 mm demo vehicle: body tube, nose cone, flight computer.
func airframe() []ElementConfig {
	return []ElementConfig{
		{
			Name: "body", Shape: "tube", Mass: 0.30,
			InnerRadius: 0.036, OuterRadius: 0.037, Height: 0.8,
		},
		{
			Name: "nose", Shape: "hollow_cone", Mass: 0.12,
			Radius: 0.037, Height: 0.2, InnerRadius: 0.035, InnerHeight: 0.19,
			Position: Vec3{0, 0, 0.4},
		},
		{
			Name: "flight computer", Shape: "cylinder", Mass: 0.18,
			Radius: 0.036, Height: 0.12,
			Position: Vec3{0, 0, 0.15},
		},
	}
}

var Presets = map[string]func() *Config{
	"demo": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "demo"
		cfg.Elements = airframe()
		cfg.Autopilot.Enabled = true
		return cfg
	},
	"heavy": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "heavy"
		cfg.Motor.Name = "F15"
		cfg.Duration = 30
		cfg.Elements = append(airframe(), ElementConfig{
			Name: "payload", Shape: "cylinder", Mass: 0.25,
			Radius: 0.035, Height: 0.1,
			Position: Vec3{0, 0, 0.28},
		})
		cfg.Autopilot.Enabled = true
		cfg.Drag.Enabled = true
		return cfg
	},
	"tilted": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "tilted"
		cfg.Elements = airframe()
		cfg.Setpoints = []SetpointConfig{
			{Step: 100, X: -3, Y: -2},
			{Step: 125, X: 2, Y: 3},
			{Step: 150, X: 0, Y: 0},
		}
		return cfg
	},
	"ballistic": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "ballistic"
		cfg.Controller = "none"
		cfg.Duration = 5
		cfg.Elements = airframe()
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/tvcsim/internal/api"
	"github.com/san-kum/tvcsim/internal/config"
	"github.com/san-kum/tvcsim/internal/design"
	"github.com/san-kum/tvcsim/internal/elements"
	"github.com/san-kum/tvcsim/internal/motor"
	"github.com/san-kum/tvcsim/internal/spatial"
)

func TestParseAdjust(t *testing.T) {
	tests := []struct {
		in      string
		want    adjustment
		wantErr bool
	}{
		{in: "nose=0,0,0.05", want: adjustment{Part: "nose", Shift: spatial.Vec(0, 0, 0.05)}},
		{in: "flight computer = 0.01, -0.02, 0", want: adjustment{Part: "flight computer", Shift: spatial.Vec(0.01, -0.02, 0)}},
		{in: "nose", wantErr: true},
		{in: "=1,2,3", wantErr: true},
		{in: "nose=1,2", wantErr: true},
		{in: "nose=1,x,3", wantErr: true},
		{in: "nose=1,NaN,3", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseAdjust(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func summaryOf(t *testing.T, s *api.Session) design.Summary {
	t.Helper()
	r := s.Summary()
	require.True(t, r.OK, r.Message)
	return r.Value.(design.Summary)
}

func TestSessionFromConfigAppliesAdjustments(t *testing.T) {
	catalog, err := motor.Default()
	require.NoError(t, err)
	cfg := config.GetPreset("demo")
	require.NotNil(t, cfg)

	plain, err := sessionFromConfig(cfg, catalog, nil, nil)
	require.NoError(t, err)
	parts := plain.PartNumbers().Value.(map[string]elements.ID)
	assert.ElementsMatch(t, []string{"body", "nose", "flight computer", api.MotorPart}, api.SortedParts(parts))
	require.NotNil(t, plain.TVC())

	moved, err := sessionFromConfig(cfg, catalog, nil, []adjustment{{Part: "nose", Shift: spatial.Vec(0, 0, 0.05)}})
	require.NoError(t, err)
	before, after := summaryOf(t, plain), summaryOf(t, moved)
	assert.InDelta(t, before.Mass, after.Mass, 1e-12)
	assert.InDelta(t, 0.12*0.05/before.Mass, after.CG.Z-before.CG.Z, 1e-9)

	var out bytes.Buffer
	require.NoError(t, writeDesign(&out, moved))
	assert.Contains(t, out.String(), "flight computer")
	assert.Contains(t, out.String(), "folded")
	assert.Contains(t, out.String(), "mass:")
}

func TestSessionFromConfigRejectsUnknownPart(t *testing.T) {
	catalog, err := motor.Default()
	require.NoError(t, err)
	_, err = sessionFromConfig(config.GetPreset("demo"), catalog, nil, []adjustment{{Part: "fin", Shift: spatial.Vec(0, 0, 1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSessionFromConfigWithoutMotor(t *testing.T) {
	catalog, err := motor.Default()
	require.NoError(t, err)
	s, err := sessionFromConfig(config.GetPreset("ballistic"), catalog, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, s.TVC())
	assert.NotContains(t, s.PartNumbers().Value.(map[string]elements.ID), api.MotorPart)
}

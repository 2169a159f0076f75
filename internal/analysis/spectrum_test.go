package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/tvcsim/internal/sim"
	"github.com/san-kum/tvcsim/internal/spatial"
)

func TestDominantFrequency(t *testing.T) {
	const dt = 0.01
	samples := make([]float64, 512)
	for i := range samples {
		samples[i] = 3 + math.Sin(2*math.Pi*6.25*float64(i)*dt)
	}
	s, err := NewSpectrum(samples, dt)
	require.NoError(t, err)
	assert.Len(t, s.Freq, 257)
	assert.InDelta(t, 50, s.Freq[len(s.Freq)-1], 1e-9, "last bin is Nyquist")

	f, p := s.Dominant()
	assert.InDelta(t, 6.25, f, 1e-9)
	assert.Greater(t, p, 100.0)
	assert.Less(t, s.Power[0], 1e-9, "mean is removed")
}

func TestShortSignal(t *testing.T) {
	_, err := NewSpectrum([]float64{1, 2}, 0.01)
	assert.ErrorIs(t, err, ErrShortSignal)
}

func TestFlatSignalHasNoDominant(t *testing.T) {
	s, err := NewSpectrum([]float64{2, 2, 2, 2, 2}, 0.1)
	require.NoError(t, err)
	assert.Len(t, s.Freq, 5, "padded to 8 samples")
	f, _ := s.Dominant()
	assert.InDelta(t, 0.0, f, 1e-9)
}

func TestExtract(t *testing.T) {
	recs := []sim.Record{
		{Omega: spatial.Vec(1, 2, 3), BodyZ: spatial.UnitZ},
		{Omega: spatial.Vec(4, 5, 6), BodyZ: spatial.UnitZ},
	}
	assert.Equal(t, []float64{2, 5}, Extract(recs, Signals["omega_y"]))
	assert.Equal(t, []float64{0, 0}, Extract(recs, Signals["tilt"]))
}
